package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/spf13/pflag"
)

func (c *cli) usersCommand() *Command {
	return &Command{
		Name:    "users",
		Summary: "Manage employees",
		Subcommands: []*Command{
			c.usersListCommand(),
			c.usersGetCommand(),
			c.usersCreateCommand(),
			c.usersDeleteCommand(),
		},
	}
}

func (c *cli) usersListCommand() *Command {
	var page gateway.PageQuery
	return &Command{
		Name:    "list",
		Summary: "List employees",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("list")
			pageFlags(fs, &page)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			resp, err := a.Employees.List(ctx, page)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, resp, func(tw *tabwriter.Writer) {
				employeeTable(tw, resp.Users)
				fmt.Fprintf(tw, "\npage %d of %d, %d employees\n", resp.Pagination.CurrentPage, resp.Pagination.TotalPages, resp.Total)
			})
		},
	}
}

func (c *cli) usersGetCommand() *Command {
	return &Command{
		Name:    "get",
		Summary: "Show one employee",
		Usage:   "attendancectl users get ID",
		Flags:   func() *pflag.FlagSet { return c.flags("get") },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one employee id")
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			employee, err := a.Employees.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, employee, func(tw *tabwriter.Writer) {
				employeeTable(tw, []users.Employee{*employee})
			})
		},
	}
}

func (c *cli) usersCreateCommand() *Command {
	var (
		req               users.CreateEmployeeRequest
		punchIn, punchOut string
	)
	return &Command{
		Name:    "create",
		Summary: "Add an employee",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("create")
			fs.StringVar(&req.Email, "email", "", "email address")
			fs.StringVar(&req.Password, "password", "", "initial password")
			fs.StringVar(&req.Name, "name", "", "display name")
			fs.StringVar(&req.Designation, "designation", "", "job title")
			fs.StringVar(&punchIn, "punch-in", "09:00-09:30", "punch-in window as HH:MM-HH:MM")
			fs.StringVar(&punchOut, "punch-out", "17:00-18:00", "punch-out window as HH:MM-HH:MM")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			var err error
			if req.WorkingHours.PunchIn, err = parseWindow(punchIn); err != nil {
				return err
			}
			if req.WorkingHours.PunchOut, err = parseWindow(punchOut); err != nil {
				return err
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			employee, err := a.Employees.Create(ctx, req)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, employee, func(tw *tabwriter.Writer) {
				employeeTable(tw, []users.Employee{*employee})
			})
		},
	}
}

func (c *cli) usersDeleteCommand() *Command {
	return &Command{
		Name:    "delete",
		Summary: "Remove an employee",
		Usage:   "attendancectl users delete ID",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one employee id")
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := a.Employees.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) adminsCommand() *Command {
	var page gateway.PageQuery
	return &Command{
		Name:    "admins",
		Summary: "List administrators",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("admins")
			pageFlags(fs, &page)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			resp, err := a.Admins.List(ctx, page)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, resp, func(tw *tabwriter.Writer) {
				employeeTable(tw, resp.Admins)
			})
		},
	}
}

func employeeTable(tw *tabwriter.Writer, list []users.Employee) {
	fmt.Fprintf(tw, "ID\tEMAIL\tNAME\tDESIGNATION\tPUNCH IN\tPUNCH OUT\n")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s-%s\t%s-%s\n", e.ID, e.Email, e.Name, e.Designation,
			e.WorkingHours.PunchIn.From, e.WorkingHours.PunchIn.To,
			e.WorkingHours.PunchOut.From, e.WorkingHours.PunchOut.To)
	}
}

func pageFlags(fs *pflag.FlagSet, page *gateway.PageQuery) {
	fs.IntVar(&page.Page, "page", 1, "page number, from 1")
	fs.IntVar(&page.Limit, "limit", gateway.DefaultPageLimit, "results per page")
}

// parseWindow reads "09:00-09:30"
func parseWindow(s string) (users.TimeWindow, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return users.TimeWindow{}, fmt.Errorf("window %q must be HH:MM-HH:MM", s)
	}
	return users.TimeWindow{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}, nil
}
