package cli

import (
	"context"
	"errors"
	"os"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// printErr reports a failed command to the user. Validation failures are
// listed per field; anything else is printed as-is.
func printErr(err error) {
	var verrs session.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			printlnFn(ve.Field + ": " + ve.Message)
		}
		return
	}
	printlnFn("Error:", err.Error())
}

// Login prompts for credentials and authenticates against the fuel-price
// API. On success the session (token and profile) is persisted, so the next
// program start restores it without asking again.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, userName, password); err != nil {
		printErr(err)
		return err
	}

	snap := a.session.Snapshot()
	if snap.User != nil {
		printlnFn("Logged in as " + snap.User.Username)
	}
	return nil
}

// Register prompts for account details, creates the account, and logs the
// new user in.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	req := api.RegisterRequest{
		Username: userName,
		Email:    email,
		FullName: fullName,
		Password: password,
	}

	if err := a.session.Register(ctx, req); err != nil {
		printErr(err)
		return err
	}

	snap := a.session.Snapshot()
	if snap.User != nil {
		printlnFn("Account created. Logged in as " + snap.User.Username)
	}
	return nil
}

// Logout clears the persisted session and resets the browsing position.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		printErr(err)
		return err
	}
	a.filters = api.StationFilters{}
	a.page = 1
	a.hasPage = false
	printlnFn("Logged out")
	return nil
}

// Whoami prints the active account, if any.
func (a *App) Whoami(ctx context.Context) error {
	snap := a.session.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil {
		printlnFn("Not logged in")
		return nil
	}
	u := snap.User
	printlnFn("Username:", u.Username)
	printlnFn("Email:", u.Email)
	printlnFn("Full name:", u.FullName)
	printlnFn("Role:", u.Role)
	return nil
}
