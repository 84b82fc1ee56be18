// Package config defines and loads the littlesteps-cli configuration.
//
// Sources are layered: built-in defaults, then the YAML file
// (~/.littlesteps/cli.yaml unless --config says otherwise), then
// LITTLESTEPS_* environment variables, then command-line flags.
// Environment variables use "__" for nesting, so
// LITTLESTEPS_GATEWAY__URL sets gateway.url.
package config
