package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Local configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration, session and key file paths",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

// settings is a flattened view of CLIConfig for table output.
type settings [][2]string

func (s settings) Table(bool) *output.Table {
	t := output.NewTable("KEY", "VALUE")
	for _, kv := range s {
		t.AddRow(kv[0], kv[1])
	}
	return t
}

func flatten(cfg *config.CLIConfig) settings {
	g := cfg.Gateway
	s := settings{
		{"gateway.url", g.URL},
		{"gateway.socket", dash(g.Socket)},
		{"gateway.timeout", g.Timeout.String()},
		{"gateway.ca_file", dash(g.CAFile)},
		{"gateway.insecure_skip_verify", fmt.Sprint(g.InsecureSkipVerify)},
		{"gateway.rate_limit", fmt.Sprint(g.RateLimit)},
		{"gateway.rate_burst", fmt.Sprint(g.RateBurst)},
	}
	services := make([]string, 0, len(g.Endpoints))
	for name := range g.Endpoints {
		services = append(services, name)
	}
	sort.Strings(services)
	for _, name := range services {
		s = append(s, [2]string{"gateway.endpoints." + strings.ToLower(name), g.Endpoints[name]})
	}
	s = append(s, settings{
		{"session.store", cfg.Session.Store},
		{"session.path", cfg.SessionPath()},
		{"session.encrypt", fmt.Sprint(cfg.Session.Encrypt)},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
		{"output", cfg.Output},
		{"history_file", dash(cfg.HistoryFile)},
		{"profile", dash(cfg.Profile)},
	}...)
	return s
}

func configShow(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	p, err := printer(c)
	if err != nil {
		return err
	}
	if p.Format != output.FormatTable {
		return p.Print(st.Config)
	}
	return p.Print(flatten(st.Config))
}

func configPath(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	p, err := printer(c)
	if err != nil {
		return err
	}
	paths := settings{
		{"config", configFile(st)},
		{"session", st.Config.SessionPath()},
	}
	if st.Config.Session.Store == config.StoreFile && st.Config.Session.Encrypt {
		paths = append(paths, [2]string{"key", st.Config.KeyPath()})
	}
	if st.Config.HistoryFile != "" {
		paths = append(paths, [2]string{"history", st.Config.HistoryFile})
	}
	if p.Format != output.FormatTable {
		m := make(map[string]string, len(paths))
		for _, kv := range paths {
			m[kv[0]] = kv[1]
		}
		return p.Print(m)
	}
	return p.Print(paths)
}

func configInit(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	p, err := printer(c)
	if err != nil {
		return err
	}

	path := configFile(st)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.Save(st.Config, path); err != nil {
		return err
	}
	p.Message("Wrote %s", path)
	return nil
}

func configFile(st *State) string {
	if st.ConfigPath != "" {
		return st.ConfigPath
	}
	return config.DefaultConfigPath()
}
