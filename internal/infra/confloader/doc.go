// Package confloader loads layered configuration and watches files for
// changes.
//
// Sources, lowest priority first:
//
//  1. Defaults (whatever the target struct already holds)
//  2. A YAML file
//  3. Environment variables (LITTLESTEPS_ prefix)
//  4. A map, usually built from command-line flags
//
// Environment keys nest with a double underscore, so a single underscore
// can stay part of a key name:
//
//	LITTLESTEPS_GATEWAY__REQUEST_TIMEOUT=5s  ->  gateway.request_timeout
//
// The Watcher reports writes, creations, removals and renames of specific
// files. The session file store uses it to follow logins and logouts made
// by other processes.
package confloader
