package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/authkit/internal/client/client"
	"github.com/dmitrijs2005/authkit/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) printUser(u *client.User) {
	fmt.Fprintf(a.out, "#%d %s (%s) role=%s active=%t\n", u.ID, u.Email, u.ProfileName, u.Role, u.IsActive)
}

// readID prompts for a user id; an empty answer means the current user.
func (a *App) readID(prompt string) (int64, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// Register prompts for email, profile name and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter profile name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.Register(ctx, email, string(password), name)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	a.printUser(u)
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.email = u.Email
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.ProfileName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	a.email = ""
	return a.api.Logout(ctx)
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.GetUser(ctx, 0)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) Show(ctx context.Context) error {
	id, err := a.readID("Enter user id (empty for yourself)")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) List(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	users, err := a.api.ListUsers(ctx, 0, 0)
	if err != nil {
		return err
	}
	for i := range users {
		a.printUser(&users[i])
	}
	fmt.Fprintf(a.out, "%d user(s)\n", len(users))
	return nil
}

// Update prompts for an id, a new profile name and a new role. Empty answers
// leave the field unchanged.
func (a *App) Update(ctx context.Context) error {
	id, err := a.readID("Enter user id (empty for yourself)")
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "New profile name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	role, err := getSimpleText(a.reader, "New role ADMIN/STAFF/COMMON (empty to keep)", a.out)
	if err != nil {
		return err
	}

	var namePtr, rolePtr *string
	if name != "" {
		namePtr = &name
	}
	if role != "" {
		rolePtr = &role
	}
	if namePtr == nil && rolePtr == nil {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.UpdateUser(ctx, id, namePtr, rolePtr)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := a.readID("Enter user id (empty for yourself)")
	if err != nil {
		return err
	}
	confirm, err := getSimpleText(a.reader, "Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	if id == 0 {
		a.email = ""
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}
