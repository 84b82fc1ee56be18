package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/output"
	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/core/service"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// ChildCommand returns the child subcommand group.
func ChildCommand() *cli.Command {
	return &cli.Command{
		Name:    "child",
		Aliases: []string{"children"},
		Usage:   "Manage child profiles",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List children",
				Action:  childList,
			},
			{
				Name:      "get",
				Usage:     "Show a child profile",
				ArgsUsage: "CHILD_ID",
				Action:    childGet,
			},
			{
				Name:    "add",
				Aliases: []string{"create"},
				Usage:   "Create a child profile",
				Flags:   childFlags(true),
				Action:  childAdd,
			},
			{
				Name:      "update",
				Aliases:   []string{"edit"},
				Usage:     "Update a child profile; omitted fields keep their value",
				ArgsUsage: "CHILD_ID",
				Flags:     childFlags(false),
				Action:    childUpdate,
			},
			{
				Name:      "link",
				Usage:     "Become a supervisor of a child using its linking code",
				ArgsUsage: "LINKING_CODE",
				Action:    childLink,
			},
		},
	}
}

func childFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Child's name", Required: required},
		&cli.StringFlag{Name: "birthday", Aliases: []string{"b"}, Usage: "Birthday (YYYY-MM-DD)", Required: required},
		&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Usage: "Group or class"},
		&cli.StringFlag{Name: "allergies", Usage: "Allergies"},
		&cli.StringFlag{Name: "notes", Usage: "Notes"},
	}
}

// childRows renders children with birthdays cut to the date.
type childRows []domain.Child

func (rows childRows) Table(wide bool) *output.Table {
	t := output.NewTable("ID", "NAME", "BIRTHDAY", "GROUP")
	if wide {
		t.Headers = append(t.Headers, "ALLERGIES", "LINKING CODE")
	}
	t.Empty = "No children found"
	for i := range rows {
		ch := &rows[i]
		cells := []string{ch.ID, ch.Name, ch.BirthDate(), dash(ch.Group)}
		if wide {
			cells = append(cells, dash(output.Truncate(ch.Allergies, 30)), dash(ch.LinkingCode))
		}
		t.AddRow(cells...)
	}
	return t
}

// childView is one profile as a field list.
type childView struct{ *domain.Child }

func (v childView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("ID", v.ID)
	t.AddRow("Name", v.Name)
	t.AddRow("Birthday", dash(v.BirthDate()))
	t.AddRow("Group", dash(v.Group))
	t.AddRow("Allergies", dash(v.Allergies))
	t.AddRow("Notes", dash(v.Notes))
	if v.LinkingCode != "" {
		t.AddRow("Linking code", v.LinkingCode)
	}
	return t
}

func childList(c *cli.Context) error {
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		children, err := service.NewChildService(client).List(ctx)
		if err != nil {
			return err
		}
		if p.Format != output.FormatTable {
			return p.Print(children)
		}
		return p.Print(childRows(children))
	})
}

func childGet(c *cli.Context) error {
	id, err := requiredArg(c, "CHILD_ID")
	if err != nil {
		return err
	}
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		child, err := service.NewChildService(client).Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Format != output.FormatTable {
			return p.Print(child)
		}
		return p.Print(childView{child})
	})
}

func childAdd(c *cli.Context) error {
	in := domain.ChildInput{
		Name:      c.String("name"),
		Birthday:  c.String("birthday"),
		Group:     c.String("group"),
		Allergies: c.String("allergies"),
		Notes:     c.String("notes"),
	}
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		child, err := service.NewChildService(client).Create(ctx, in)
		if err != nil {
			return err
		}
		if p.Format != output.FormatTable {
			return p.Print(child)
		}
		p.Message("Created %s", child.Name)
		if child.LinkingCode != "" {
			p.Message("Linking code for teachers: %s", child.LinkingCode)
		}
		return nil
	})
}

func childUpdate(c *cli.Context) error {
	id, err := requiredArg(c, "CHILD_ID")
	if err != nil {
		return err
	}
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		svc := service.NewChildService(client)
		current, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}

		in := domain.InputFrom(current)
		for flag, field := range map[string]*string{
			"name":      &in.Name,
			"birthday":  &in.Birthday,
			"group":     &in.Group,
			"allergies": &in.Allergies,
			"notes":     &in.Notes,
		} {
			if c.IsSet(flag) {
				*field = c.String(flag)
			}
		}

		updated, err := svc.Update(ctx, id, in)
		if err != nil {
			return err
		}
		if updated.ID == "" {
			updated.ID = id
		}
		if updated.Name == "" {
			updated.Name = in.Name
		}
		if p.Format != output.FormatTable {
			return p.Print(updated)
		}
		p.Message("Updated %s", updated.Name)
		return nil
	})
}

func childLink(c *cli.Context) error {
	code, err := requiredArg(c, "LINKING_CODE")
	if err != nil {
		return err
	}
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		if err := service.NewChildService(client).LinkSupervisor(ctx, code); err != nil {
			return err
		}
		p.Message("Linked as supervisor")
		return nil
	})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
