// Package output renders command results for littlesteps-cli.
//
// Three formats are supported: an aligned table for people, and JSON or
// YAML for scripts. Values that know how to lay themselves out implement
// Tabular; anything else goes through a reflection-based fallback.
// Spinner shows progress on stderr while a request is in flight.
package output
