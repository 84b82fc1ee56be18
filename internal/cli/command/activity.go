package command

import (
	"context"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/output"
	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/core/service"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// ActivityCommand returns the activity subcommand group.
func ActivityCommand() *cli.Command {
	return &cli.Command{
		Name:    "activity",
		Aliases: []string{"act"},
		Usage:   "View and record daily activities",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List a child's activities, newest first",
				ArgsUsage: "CHILD_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Only show one type: meal, nap, drawing, behavior",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most this many entries (0 for all)",
					},
				},
				Action: activityList,
			},
			{
				Name:  "log",
				Usage: "Record an activity",
				Subcommands: []*cli.Command{
					{
						Name:  "meal",
						Usage: "Record a meal",
						Flags: append(logFlags(),
							&cli.StringFlag{Name: "at", Usage: "Time of the meal (default now)"},
						),
						Action: logMeal,
					},
					{
						Name:  "nap",
						Usage: "Record a nap",
						Flags: append(logFlags(),
							&cli.StringFlag{Name: "start", Usage: "Nap start", Required: true},
							&cli.StringFlag{Name: "end", Usage: "Nap end (default now)"},
							&cli.BoolFlag{Name: "woke-up", Usage: "The child woke up during the nap"},
						),
						Action: logNap,
					},
					{
						Name:  "drawing",
						Usage: "Record a drawing",
						Flags: append(logFlags(),
							&cli.StringFlag{Name: "at", Usage: "Time of the drawing (default now)"},
							&cli.StringFlag{Name: "photo-url", Usage: "Link to a photo of the drawing", Required: true},
							&cli.StringFlag{Name: "title", Usage: "Title"},
							&cli.StringFlag{Name: "description", Usage: "Description"},
						),
						Action: logDrawing,
					},
					{
						Name:  "behavior",
						Usage: "Record the day's behavior",
						Flags: append(logFlags(),
							&cli.StringFlag{Name: "date", Usage: "Day (YYYY-MM-DD, default today)"},
							&cli.StringFlag{Name: "activities", Aliases: []string{"a"}, Usage: "Comma separated activities"},
							&cli.StringFlag{Name: "grade", Usage: "Grade for the day"},
						),
						Action: logBehavior,
					},
				},
			},
		},
	}
}

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "child", Aliases: []string{"c"}, Usage: "Child ID", Required: true},
		&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Notes"},
	}
}

// activityRows renders a feed.
type activityRows []domain.Activity

func (rows activityRows) Table(wide bool) *output.Table {
	t := output.NewTable("WHEN", "TYPE", "SUMMARY")
	if wide {
		t.Headers = append(t.Headers, "NOTES", "ID")
	}
	t.Empty = "No activities recorded"
	for i := range rows {
		a := &rows[i]
		when := a.When()
		if ts := a.WhenTime(); !ts.IsZero() && a.Date == "" {
			when = formatTime(ts)
		}
		cells := []string{when, string(a.Type), dash(output.Truncate(a.Summary(), 60))}
		if wide {
			cells = append(cells, dash(output.Truncate(a.Notes, 40)), a.ID)
		}
		t.AddRow(cells...)
	}
	return t
}

func activityList(c *cli.Context) error {
	childID, err := requiredArg(c, "CHILD_ID")
	if err != nil {
		return err
	}
	var only domain.ActivityType
	if c.IsSet("type") {
		if only, err = domain.ParseActivityType(c.String("type")); err != nil {
			return err
		}
	}

	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		feed, err := service.NewActivityService(client).List(ctx, childID)
		if err != nil {
			return err
		}
		feed = filterFeed(feed, only, c.Int("limit"))
		if p.Format != output.FormatTable {
			return p.Print(feed)
		}
		return p.Print(activityRows(feed))
	})
}

// filterFeed keeps entries of type only (all when empty), newest first,
// capped at limit when positive.
func filterFeed(feed []domain.Activity, only domain.ActivityType, limit int) []domain.Activity {
	out := make([]domain.Activity, 0, len(feed))
	for _, a := range feed {
		if only == "" || a.Type == only {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WhenTime().After(out[j].WhenTime())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// timestamp normalises a flag value, defaulting to now.
func timestamp(c *cli.Context, flag string) (string, error) {
	if !c.IsSet(flag) || c.String(flag) == "" {
		return time.Now().UTC().Format(time.RFC3339), nil
	}
	return domain.NormalizeTimestamp(c.String(flag), time.Local)
}

func recorded(c *cli.Context, kind domain.ActivityType, log func(ctx context.Context, svc *service.ActivityService) error) error {
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		if err := log(ctx, service.NewActivityService(client)); err != nil {
			return err
		}
		p.Message("Recorded %s for child %s", kind, c.String("child"))
		return nil
	})
}

func logMeal(c *cli.Context) error {
	at, err := timestamp(c, "at")
	if err != nil {
		return err
	}
	entry := domain.MealLog{ChildID: c.String("child"), Timestamp: at, Notes: c.String("notes")}
	return recorded(c, entry.Kind(), func(ctx context.Context, svc *service.ActivityService) error {
		return svc.LogMeal(ctx, entry)
	})
}

func logNap(c *cli.Context) error {
	start, err := timestamp(c, "start")
	if err != nil {
		return err
	}
	end, err := timestamp(c, "end")
	if err != nil {
		return err
	}
	entry := domain.NapLog{
		ChildID:      c.String("child"),
		StartTime:    start,
		EndTime:      end,
		WokeUpDuring: c.Bool("woke-up"),
		Notes:        c.String("notes"),
	}
	return recorded(c, entry.Kind(), func(ctx context.Context, svc *service.ActivityService) error {
		return svc.LogNap(ctx, entry)
	})
}

func logDrawing(c *cli.Context) error {
	at, err := timestamp(c, "at")
	if err != nil {
		return err
	}
	entry := domain.DrawingLog{
		ChildID:     c.String("child"),
		Timestamp:   at,
		PhotoURL:    c.String("photo-url"),
		Title:       c.String("title"),
		Description: c.String("description"),
	}
	return recorded(c, entry.Kind(), func(ctx context.Context, svc *service.ActivityService) error {
		return svc.LogDrawing(ctx, entry)
	})
}

func logBehavior(c *cli.Context) error {
	date := c.String("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	entry := domain.BehaviorLog{
		ChildID:    c.String("child"),
		Date:       date,
		Activities: domain.SplitActivities(c.String("activities")),
		Grade:      c.String("grade"),
		Notes:      c.String("notes"),
	}
	return recorded(c, entry.Kind(), func(ctx context.Context, svc *service.ActivityService) error {
		return svc.LogBehavior(ctx, entry)
	})
}
