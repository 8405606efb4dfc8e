package cli

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	helpLoggedOut = "Available commands: register, login, check <username>, find <email>, providers, exit"
	helpLoggedIn  = "Available commands: me, password, check <username>, providers, logout, exit"
)

// Run reads commands until EOF or exit. Command errors are reported to the
// user by the command itself and do not end the loop.
func (a *App) Run(ctx context.Context) {
	for {
		status := "guest"
		if a.isLoggedIn(ctx) {
			status = "signed in"
		}
		a.printf("board (%s)> ", status)

		line, err := a.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			a.printf("\n")
			return
		}
		if !a.dispatch(ctx, strings.Fields(line)) {
			return
		}
	}
}

// dispatch runs one command and reports whether the loop should continue.
func (a *App) dispatch(ctx context.Context, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		if a.isLoggedIn(ctx) {
			a.printf("%s\n", helpLoggedIn)
		} else {
			a.printf("%s\n", helpLoggedOut)
		}
	case "register":
		_ = a.Register(ctx)
	case "login":
		_ = a.Login(ctx)
	case "me", "whoami":
		_ = a.Me(ctx)
	case "password":
		_ = a.ChangePassword(ctx)
	case "check":
		_ = a.CheckUsername(ctx, args)
	case "find":
		_ = a.FindAccount(ctx, args)
	case "providers":
		_ = a.Providers(ctx)
	case "logout":
		_ = a.Logout(ctx)
	case "exit", "quit":
		a.printf("Bye!\n")
		return false
	default:
		a.printf("Unknown command: %s\n", cmd)
	}
	return true
}
