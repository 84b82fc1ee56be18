// Package main provides the entry point for littlesteps-cli.
//
// The CLI talks to the Little Steps API gateway:
//
//   - Account (login, logout, whoami, register, passwd)
//   - Child profiles (list, get, add, update, link)
//   - Activity feed and logging (meal, nap, drawing, behavior)
//   - Local configuration and client diagnostics
//
// Usage:
//
//	littlesteps-cli [global flags] command [flags]
//	littlesteps-cli login bob
//	littlesteps-cli -o json child list
//	littlesteps-cli activity log nap --child 42 --start 2024-03-01T13:00
//
// Access tokens are refreshed and failed requests replayed transparently.
// Run `littlesteps-cli repl` to share one session across many commands.
package main
