// Command attendancectl is a terminal console for the attendance admin API.
// The session is kept in the configured store, so a login persists across
// invocations until it is logged out or its refresh token is rejected.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/go-attendance-admin/internal/app"
	"github.com/jrsteele09/go-attendance-admin/internal/config"
	"github.com/jrsteele09/go-attendance-admin/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg)

	c := newCLI(os.Stdout, func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, app.WithLogger(logger.Level(zerolog.WarnLevel)))
	})
	defer c.close()
	return c.root().Execute(ctx, args, os.Stderr)
}

// cli holds what every command needs. The app is opened on first use so
// help output never touches the session store.
type cli struct {
	stdout  io.Writer
	output  string
	openApp func(ctx context.Context) (*app.App, error)
	app     *app.App
}

func newCLI(stdout io.Writer, openApp func(ctx context.Context) (*app.App, error)) *cli {
	return &cli{stdout: stdout, output: outputTable, openApp: openApp}
}

func (c *cli) client(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.openApp(ctx)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
	}
}

// flags returns a flag set carrying the shared --output flag
func (c *cli) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&c.output, "output", "o", outputTable, "output format: table, json or yaml")
	return fs
}

func (c *cli) root() *Command {
	return &Command{
		Name:    "attendancectl",
		Summary: "Manage employees, tasks and attendance from the terminal",
		Subcommands: []*Command{
			c.loginCommand(),
			c.logoutCommand(),
			c.whoamiCommand(),
			c.usersCommand(),
			c.adminsCommand(),
			c.tasksCommand(),
			c.boardCommand(),
			c.coordinatesCommand(),
			c.punchCommand(),
			c.attendanceCommand(),
			c.dashboardCommand(),
			c.apiCommand(),
		},
	}
}
