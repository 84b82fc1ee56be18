package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/repl"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// REPLCommand returns the interactive mode command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell", "interactive"},
		Usage:   "Run commands interactively with one shared session",
		Action:  replAction,
	}
}

func replAction(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	app := c.App

	client, err := st.Manager.Client(c.Context)
	if err != nil {
		return err
	}

	// follow logins and logouts made from other terminals
	watchCtx, cancel := context.WithCancel(c.Context)
	defer cancel()
	if err := st.Manager.Watch(watchCtx); err != nil {
		st.Logger.Warn("session file not watched", "error", err)
	}

	exec := func(ctx context.Context, args []string) error {
		if args[0] == "repl" || args[0] == "shell" || args[0] == "interactive" {
			return errors.New("already in interactive mode")
		}
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	}

	r := repl.New(exec,
		repl.WithIO(app.Reader, writer(c)),
		repl.WithHistory(repl.NewHistory(st.Config.HistoryFile, repl.DefaultHistorySize)),
		repl.WithCompleter(repl.NewCompleter(commandPaths(app.Commands, "")...)),
		repl.WithPrompt(func() string { return replPrompt(client) }),
		repl.WithErrorFormatter(func(err error) string {
			msg, _ := Describe(err)
			return msg
		}),
	)

	fmt.Fprintf(writer(c), "Little Steps interactive mode (%s). Type help for commands, exit to leave.\n", client.BaseURL())
	return r.Run(c.Context)
}

func replPrompt(client *gateway.Client) string {
	if u := client.User(); u != nil && client.LoggedIn() {
		return fmt.Sprintf("littlesteps (%s)> ", u.Username)
	}
	return "littlesteps> "
}

// commandPaths lists "child", "child list", ... for completion.
func commandPaths(cmds []*cli.Command, parent string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := cmd.Name
		if parent != "" {
			path = parent + " " + cmd.Name
		}
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}
