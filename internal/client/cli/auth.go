package cli

import (
	"context"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, an email and a password and creates the
// account. Validation problems come back as validate.Errors before any
// request is made.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	return a.session.Register(ctx, username, email, password)
}

// Login prompts for credentials and signs in. On success the session
// mounts the dashboard through sessionChanged.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	return a.session.Login(ctx, email, password)
}

// Logout closes the open note, announcing the end of editing, and then
// signs out.
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	ed := a.editor
	a.editor = nil
	a.mu.Unlock()
	if ed != nil {
		ed.Close(ctx)
	}
	a.session.Logout(ctx)
	return nil
}

func (a *App) Whoami(context.Context) error {
	u, ok := a.session.User()
	if !ok {
		a.printf("Not logged in\n")
		return nil
	}
	a.printf("%s <%s> id=%s\n", u.DisplayName(), u.Email, u.ID)
	return nil
}
