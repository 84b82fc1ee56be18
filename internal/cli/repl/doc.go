// Package repl provides the interactive mode of littlesteps-cli.
//
//   - repl.go: read-eval-print loop and line splitting
//   - completer.go: command-path completion
//   - history.go: command history persistence
//
// The loop knows nothing about commands; every line is split shell-style
// and handed to an Executor, normally the CLI app itself.
package repl
