package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlibekovAA/community-board/internal/client"
)

// App is the interactive boardctl session.
type App struct {
	api    *client.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(api *client.Client, in io.Reader, out io.Writer) *App {
	return &App{api: api, reader: bufio.NewReader(in), out: out}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints a command failure in a form the user can act on.
func (a *App) report(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrRefreshFailed):
		a.printf("Session expired, please log in again.\n")
	case errors.As(err, &apiErr):
		a.printf("Error: %s (%s)\n", apiErr.Message, apiErr.Code)
	default:
		a.printf("Error: %v\n", err)
	}
	return err
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	token, err := a.api.Tokens().AccessToken(ctx)
	return err == nil && token != ""
}

func (a *App) Register(ctx context.Context) error {
	var input client.RegisterInput
	var err error

	if input.Username, err = readLine(a.reader, a.out, "Username"); err != nil {
		return err
	}
	if input.Email, err = readLine(a.reader, a.out, "Email"); err != nil {
		return err
	}
	if input.Name, err = readLine(a.reader, a.out, "Display name"); err != nil {
		return err
	}
	if input.Password, err = readSecret(a.reader, a.out, "Password"); err != nil {
		return err
	}
	remember, err := confirm(a.reader, a.out, "Remember me?", true)
	if err != nil {
		return err
	}

	if _, err := a.api.Register(ctx, input, remember); err != nil {
		return a.report(err)
	}
	a.printf("Registered as %s.\n", input.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := readLine(a.reader, a.out, "Username or email")
	if err != nil {
		return err
	}
	password, err := readSecret(a.reader, a.out, "Password")
	if err != nil {
		return err
	}
	remember, err := confirm(a.reader, a.out, "Remember me?", false)
	if err != nil {
		return err
	}

	if _, err := a.api.Login(ctx, username, password, remember); err != nil {
		return a.report(err)
	}
	a.printf("Logged in.\n")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	p, err := a.api.CurrentUser(ctx)
	if err != nil {
		return a.report(err)
	}
	a.printf("%s <%s> %s, member since %s\n", p.Username, p.Email, p.Name, p.CreatedAt.Format("2006-01-02"))
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	current, err := readSecret(a.reader, a.out, "Current password")
	if err != nil {
		return err
	}
	next, err := readSecret(a.reader, a.out, "New password")
	if err != nil {
		return err
	}
	if err := a.api.ChangePassword(ctx, current, next); err != nil {
		return a.report(err)
	}
	a.printf("Password changed. Other sessions will be signed out when their access token expires.\n")
	return nil
}

func (a *App) CheckUsername(ctx context.Context, args []string) error {
	username := strings.Join(args, " ")
	if username == "" {
		var err error
		if username, err = readLine(a.reader, a.out, "Username"); err != nil {
			return err
		}
	}
	available, err := a.api.CheckUsername(ctx, username)
	if err != nil {
		return a.report(err)
	}
	if available {
		a.printf("%s is available.\n", username)
	} else {
		a.printf("%s is taken.\n", username)
	}
	return nil
}

func (a *App) FindAccount(ctx context.Context, args []string) error {
	email := strings.Join(args, " ")
	if email == "" {
		var err error
		if email, err = readLine(a.reader, a.out, "Email"); err != nil {
			return err
		}
	}
	masked, err := a.api.FindAccount(ctx, email)
	if err != nil {
		return a.report(err)
	}
	a.printf("Account found: %s\n", masked)
	return nil
}

func (a *App) Providers(ctx context.Context) error {
	providers, err := a.api.Providers(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(providers) == 0 {
		a.printf("No external sign-in providers are enabled.\n")
		return nil
	}
	a.printf("Sign-in providers: %s\n", strings.Join(providers, ", "))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return a.report(err)
	}
	a.printf("Logged out.\n")
	return nil
}
