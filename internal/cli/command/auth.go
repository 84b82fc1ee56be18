package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/littlesteps-go/internal/cli/output"
	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/core/service"
	"github.com/yndnr/littlesteps-go/internal/gateway"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Sign in and store the session",
		ArgsUsage: "[USERNAME]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Account username",
				EnvVars: []string{"LITTLESTEPS_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
				EnvVars: []string{"LITTLESTEPS_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password from stdin",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	in := bufio.NewReader(c.App.Reader)

	arg, err := optionalArg(c, "USERNAME")
	if err != nil {
		return err
	}
	username := c.String("username")
	if username == "" {
		username = arg
	}
	if username == "" {
		if username, err = prompt(c, in, "Username: "); err != nil {
			return err
		}
	}

	password := c.String("password")
	if password == "" {
		label := "Password: "
		if c.Bool("password-stdin") {
			label = ""
		}
		if password, err = prompt(c, in, label); err != nil {
			return err
		}
	}

	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		spin := spinner(c, p, "Signing in")
		if _, err := client.Login(ctx, username, password); err != nil {
			spin.Fail("Sign in failed")
			return err
		}
		spin.Stop()

		user := client.User()
		if p.Format != output.FormatTable {
			return p.Print(user)
		}
		p.Message("Logged in as %s (%s)", user.DisplayName(), user.Role)
		return nil
	})
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		wasLoggedIn := client.LoggedIn()
		if err := client.Logout(ctx); err != nil {
			return err
		}
		if wasLoggedIn {
			p.Message("Logged out")
		} else {
			p.Message("Not logged in")
		}
		return nil
	})
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Ask the server instead of using the cached identity",
			},
		},
		Action: whoamiAction,
	}
}

// identity is the whoami view.
type identity struct {
	UserID           string      `json:"user_id" yaml:"user_id"`
	Username         string      `json:"username" yaml:"username"`
	Name             string      `json:"name" yaml:"name"`
	Role             domain.Role `json:"role" yaml:"role"`
	Email            string      `json:"email,omitempty" yaml:"email,omitempty"`
	TokenFingerprint string      `json:"token_fingerprint" yaml:"token_fingerprint"`
	TokenExpires     *time.Time  `json:"token_expires,omitempty" yaml:"token_expires,omitempty"`
	Refreshable      bool        `json:"refreshable" yaml:"refreshable"`
}

func (id identity) Table(wide bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("User", id.Username)
	t.AddRow("Name", id.Name)
	t.AddRow("Role", string(id.Role))
	if id.Email != "" {
		t.AddRow("Email", id.Email)
	}
	expires := "unknown"
	if id.TokenExpires != nil {
		expires = formatTime(*id.TokenExpires)
		if time.Until(*id.TokenExpires) <= 0 {
			expires += " (expired, will refresh)"
		}
	}
	t.AddRow("Token expires", expires)
	if wide {
		t.AddRow("User ID", id.UserID)
		t.AddRow("Token", id.TokenFingerprint)
		t.AddRow("Refreshable", fmt.Sprint(id.Refreshable))
	}
	return t
}

func whoamiAction(c *cli.Context) error {
	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}

		user := client.User()
		if user == nil || c.Bool("remote") {
			var err error
			if user, err = service.NewAccountService(client).Me(ctx); err != nil {
				return err
			}
		}

		state := client.Session().Snapshot()
		id := identity{
			UserID:           user.ID,
			Username:         user.Username,
			Name:             user.DisplayName(),
			Role:             user.Role,
			Email:            user.Email,
			TokenFingerprint: token.Fingerprint(state.AccessToken),
			TokenExpires:     tokenExpiry(state.AccessToken),
			Refreshable:      state.RefreshToken != "",
		}
		return p.Print(id)
	})
}

// tokenExpiry reads exp from a JWT access token without verifying it.
// Opaque tokens have no expiry to show.
func tokenExpiry(access string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
			&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Usage: "parent or teacher", Value: string(domain.RoleParent)},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
			&cli.StringFlag{Name: "first-name", Usage: "First name"},
			&cli.StringFlag{Name: "last-name", Usage: "Last name"},
		},
		Action: registerAction,
	}
}

func registerAction(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		if password, err = prompt(c, bufio.NewReader(c.App.Reader), "Password: "); err != nil {
			return err
		}
	}

	reg := domain.Registration{
		Username:  c.String("username"),
		Password:  password,
		Role:      domain.Role(strings.ToLower(c.String("role"))),
		Email:     c.String("email"),
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	}

	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		resp, err := service.NewAccountService(client).Register(ctx, reg)
		if err != nil {
			return err
		}
		if p.Format != output.FormatTable {
			return p.Print(resp)
		}
		var body struct {
			Message string `json:"message"`
		}
		_ = resp.Decode(&body)
		if body.Message == "" {
			body.Message = "Account created"
		}
		p.Message("%s. Run `littlesteps-cli login %s` to sign in.", strings.TrimSuffix(body.Message, "."), strings.TrimSpace(reg.Username))
		return nil
	})
}

// PasswdCommand returns the passwd command.
func PasswdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "Change the password of the signed-in account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "old", Usage: "Current password (prompted when omitted)"},
			&cli.StringFlag{Name: "new", Usage: "New password (prompted when omitted)"},
		},
		Action: passwdAction,
	}
}

func passwdAction(c *cli.Context) error {
	in := bufio.NewReader(c.App.Reader)
	change := domain.PasswordChange{OldPassword: c.String("old"), NewPassword: c.String("new")}
	var err error
	if change.OldPassword == "" {
		if change.OldPassword, err = prompt(c, in, "Current password: "); err != nil {
			return err
		}
	}
	if change.NewPassword == "" {
		if change.NewPassword, err = prompt(c, in, "New password: "); err != nil {
			return err
		}
	}

	return withClient(c, func(ctx context.Context, client *gateway.Client, p *output.Printer) error {
		if err := requireLogin(client); err != nil {
			return err
		}
		if err := service.NewAccountService(client).ChangePassword(ctx, change); err != nil {
			return err
		}
		p.Message("Password changed")
		return nil
	})
}

// prompt writes label to stderr and reads one line.
func prompt(c *cli.Context, in *bufio.Reader, label string) (string, error) {
	if label != "" {
		fmt.Fprint(c.App.ErrWriter, label)
	}
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
