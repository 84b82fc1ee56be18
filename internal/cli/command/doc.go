// Package command provides the littlesteps-cli command tree.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: app, global flags, per-process state
//   - auth.go: login, logout, whoami, register, passwd
//   - child.go: child profile commands
//   - activity.go: activity feed and logging commands
//   - config.go: local configuration commands
//   - system.go: version and client metrics
//   - repl.go: interactive mode
//   - errors.go: mapping of client errors to messages and exit codes
//
// Every command resolves its client through the shared connection.Manager,
// so a REPL session reuses one client, one session and one refresh guard.
package command
