package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/output"
	"github.com/yndnr/littlesteps-go/internal/gateway"
	"github.com/yndnr/littlesteps-go/internal/infra/buildinfo"
	"github.com/yndnr/littlesteps-go/internal/telemetry/metric"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Client information",
		Subcommands: []*cli.Command{
			{
				Name:   "version",
				Usage:  "Show build information",
				Action: systemVersion,
			},
			{
				Name:   "status",
				Usage:  "Show the gateway, session store and sign-in state",
				Action: systemStatus,
			},
			{
				Name:  "metrics",
				Usage: "Show request, refresh and logout counters for this process",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the Prometheus text exposition",
					},
				},
				Action: systemMetrics,
			},
		},
	}
}

type versionView buildinfo.Info

func (v versionView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("Version", v.Version)
	t.AddRow("Commit", v.Commit)
	t.AddRow("Built", v.BuildTime)
	t.AddRow("Go", v.GoVersion)
	return t
}

func systemVersion(c *cli.Context) error {
	p, err := printer(c)
	if err != nil {
		return err
	}
	info := buildinfo.Get()
	if p.Format != output.FormatTable {
		return p.Print(info)
	}
	return p.Print(versionView(info))
}

type statusView struct {
	Gateway   string `json:"gateway" yaml:"gateway"`
	Socket    string `json:"socket,omitempty" yaml:"socket,omitempty"`
	Store     string `json:"store" yaml:"store"`
	LoggedIn  bool   `json:"logged_in" yaml:"logged_in"`
	User      string `json:"user,omitempty" yaml:"user,omitempty"`
	Role      string `json:"role,omitempty" yaml:"role,omitempty"`
	TokenHash string `json:"token_fingerprint,omitempty" yaml:"token_fingerprint,omitempty"`
}

func (s statusView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("Gateway", s.Gateway)
	if s.Socket != "" {
		t.AddRow("Socket", s.Socket)
	}
	t.AddRow("Session store", s.Store)
	t.AddRow("Logged in", strconv.FormatBool(s.LoggedIn))
	if s.User != "" {
		t.AddRow("User", fmt.Sprintf("%s (%s)", s.User, s.Role))
	}
	return t
}

func systemStatus(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		state := client.Session().Snapshot()
		view := statusView{
			Gateway:   client.BaseURL(),
			Socket:    st.Config.Gateway.Socket,
			Store:     st.Config.Session.Store + " " + st.Config.SessionPath(),
			LoggedIn:  state.LoggedIn(),
			TokenHash: token.Fingerprint(state.AccessToken),
		}
		if state.User != nil {
			view.User = state.User.DisplayName()
			view.Role = string(state.User.Role)
		}
		return p.Print(view)
	})
}

type sampleRows []metric.Sample

func (rows sampleRows) Table(bool) *output.Table {
	t := output.NewTable("METRIC", "LABELS", "VALUE")
	t.Empty = "No requests made in this process yet"
	for _, s := range rows {
		t.AddRow(s.Name, dash(s.LabelString()), strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
	return t
}

func systemMetrics(c *cli.Context) error {
	st, err := GetState(c)
	if err != nil {
		return err
	}
	reg := st.Manager.Metrics()
	if c.Bool("raw") {
		return reg.WriteText(writer(c))
	}

	p, err := printer(c)
	if err != nil {
		return err
	}
	samples, err := reg.Samples()
	if err != nil {
		return err
	}
	if p.Format != output.FormatTable {
		return p.Print(samples)
	}
	return p.Print(sampleRows(samples))
}
