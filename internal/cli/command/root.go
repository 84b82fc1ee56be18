package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/cli/connection"
	"github.com/yndnr/littlesteps-go/internal/cli/output"
	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
	"github.com/yndnr/littlesteps-go/internal/infra/buildinfo"
	"github.com/yndnr/littlesteps-go/internal/infra/shutdown"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
)

const stateKey = "littlesteps.state"

// State is what one CLI process shares across command runs. The REPL
// re-enters the app for every line and finds the same State.
type State struct {
	Config     *config.CLIConfig
	ConfigPath string
	Manager    *connection.Manager
	Logger     logger.Logger

	// output and wide hold the values given when the process started, so
	// REPL lines without -o keep them.
	output  string
	wide    bool
	verbose bool
}

// App creates the CLI application. Cleanup (closing the session store)
// is registered on h; the caller runs h after the app returns.
func App(h *shutdown.Handler) *cli.App {
	app := &cli.App{
		Name:                 "littlesteps-cli",
		Usage:                "Little Steps command-line client",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands:             Commands(),
		Before: func(c *cli.Context) error {
			return setup(c, h)
		},
		// errors are reported by main and the REPL, never by os.Exit here
		ExitErrHandler: func(*cli.Context, error) {},
		Metadata:       map[string]any{},
	}
	return app
}

// Commands returns the top-level commands.
func Commands() []*cli.Command {
	return []*cli.Command{
		LoginCommand(),
		LogoutCommand(),
		WhoamiCommand(),
		RegisterCommand(),
		PasswdCommand(),
		ChildCommand(),
		ActivityCommand(),
		ConfigCommand(),
		SystemCommand(),
		REPLCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.littlesteps/cli.yaml)",
			EnvVars: []string{"LITTLESTEPS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"P"},
			Usage:   "Named gateway profile from the config file",
		},
		&cli.StringFlag{
			Name:    "gateway",
			Aliases: []string{"g"},
			Usage:   "API gateway URL (e.g., https://api.littlesteps.app)",
		},
		&cli.StringFlag{
			Name:  "socket",
			Usage: "Reach the gateway through a unix socket",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log requests and token refreshes to stderr",
		},
	}
}

// overrides maps explicitly set global flags onto config keys.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	if c.IsSet("gateway") {
		out["gateway.url"] = c.String("gateway")
	}
	if c.IsSet("socket") {
		out["gateway.socket"] = c.String("socket")
	}
	if c.IsSet("timeout") {
		out["gateway.timeout"] = c.Duration("timeout")
	}
	if c.IsSet("output") {
		out["output"] = c.String("output")
	}
	if c.IsSet("profile") {
		out["profile"] = c.String("profile")
	}
	return out
}

func setup(c *cli.Context, h *shutdown.Handler) error {
	if st, ok := c.App.Metadata[stateKey].(*State); ok && st != nil {
		// a REPL line; global flags apply to this line only
		if c.Bool("verbose") || st.verbose {
			logger.SetLevel("debug")
		} else {
			logger.SetLevel(st.Config.Log.Level)
		}
		return nil
	}

	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return err
	}
	// explicit flags beat the selected profile
	if c.IsSet("gateway") {
		cfg.Gateway.URL = c.String("gateway")
	}
	if c.IsSet("socket") {
		cfg.Gateway.Socket = c.String("socket")
	}
	if c.IsSet("timeout") {
		cfg.Gateway.Timeout = c.Duration("timeout")
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	}
	if c.Bool("verbose") {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	mgr := connection.NewManager(cfg, connection.WithManagerLogger(log))
	if h != nil {
		h.OnShutdown(mgr.Close)
	}

	c.App.Metadata[stateKey] = &State{
		Config:     cfg,
		ConfigPath: c.String("config"),
		Manager:    mgr,
		Logger:     log,
		output:     cfg.Output,
		wide:       c.Bool("wide"),
		verbose:    c.Bool("verbose"),
	}
	return nil
}

// GetState returns the process state set up by the root Before hook.
func GetState(c *cli.Context) (*State, error) {
	st, ok := c.App.Metadata[stateKey].(*State)
	if !ok || st == nil {
		return nil, errors.New("cli state not initialised")
	}
	return st, nil
}

// printer builds the output printer for this run.
func printer(c *cli.Context) (*output.Printer, error) {
	st, err := GetState(c)
	if err != nil {
		return nil, err
	}
	name := st.output
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return &output.Printer{
		Out:    writer(c),
		Format: format,
		Wide:   st.wide || c.Bool("wide"),
	}, nil
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// spinner shows progress on an interactive stderr for table output.
func spinner(c *cli.Context, p *output.Printer, message string) *output.Spinner {
	var w io.Writer
	if p.Format == output.FormatTable && c.App.ErrWriter == os.Stderr && output.IsTerminal(os.Stderr) {
		w = os.Stderr
	}
	return output.NewSpinner(w, message).Start()
}

// withClient runs fn with a signal-scoped context and the shared client.
func withClient(c *cli.Context, fn func(ctx context.Context, client *gateway.Client, p *output.Printer) error) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	p, err := printer(c)
	if err != nil {
		return err
	}

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	client, err := st.Manager.Client(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, client, p)
}

// requireLogin fails early with a hint when nothing is stored.
func requireLogin(client *gateway.Client) error {
	if !client.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func requiredArg(c *cli.Context, name string) (string, error) {
	v, err := optionalArg(c, name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", domain.ErrMissingArgument.WithDetails(name)
	}
	return v, nil
}

// optionalArg returns the single positional argument, if any. Flag
// parsing stops at the first argument, so anything after it is a flag
// that would otherwise be dropped silently.
func optionalArg(c *cli.Context, name string) (string, error) {
	if c.Args().Len() > 1 {
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf(
			"unexpected %q after %s: flags must come before %s", c.Args().Get(1), name, name))
	}
	return c.Args().First(), nil
}
