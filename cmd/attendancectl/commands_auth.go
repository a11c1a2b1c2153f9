package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jrsteele09/go-attendance-admin/auth"
	"github.com/spf13/pflag"
)

const passwordEnv = "ATTENDANCE_PASSWORD"

func (c *cli) loginCommand() *Command {
	var email, password string
	return &Command{
		Name:    "login",
		Summary: "Sign in and store the session",
		Usage:   "attendancectl login --email EMAIL [--password PASSWORD]",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("login")
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", "", "account password (default $"+passwordEnv+")")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			user, err := a.Auth.Login(ctx, email, password)
			if err != nil {
				return errors.New(auth.Message(err))
			}
			return render(c.stdout, c.output, user, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Signed in as %s (%s)\n", user.Email, user.Role)
			})
		},
	}
}

func (c *cli) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Sign out and clear the stored session",
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := a.Auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Flags:   func() *pflag.FlagSet { return c.flags("whoami") },
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			session := a.Sessions.Snapshot()
			if !session.IsAuthenticated() {
				return auth.NotAuthenticatedErr
			}
			user := session.User
			return render(c.stdout, c.output, user, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "ID\tEMAIL\tNAME\tROLE\tEXPIRES\n")
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", user.ID, user.Email, user.Name, user.Role, session.TokenExpiry.Local().Format("15:04:05"))
			})
		},
	}
}

// signedInUserID is the id of the session user, for commands that default to "me"
func signedInUserID(c *cli, ctx context.Context) (string, error) {
	a, err := c.client(ctx)
	if err != nil {
		return "", err
	}
	session := a.Sessions.Snapshot()
	if !session.IsAuthenticated() {
		return "", auth.NotAuthenticatedErr
	}
	return session.User.ID, nil
}
