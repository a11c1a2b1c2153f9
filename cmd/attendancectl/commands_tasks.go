package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/spf13/pflag"
)

const boardTaskLimit = 100

func (c *cli) tasksCommand() *Command {
	return &Command{
		Name:    "tasks",
		Summary: "Assign and track tasks",
		Subcommands: []*Command{
			c.tasksListCommand(),
			c.tasksCreateCommand(),
			c.tasksStatusCommand(),
			c.tasksDeleteCommand(),
		},
	}
}

func (c *cli) tasksListCommand() *Command {
	var q tasks.ListQuery
	return &Command{
		Name:    "list",
		Summary: "List tasks, earliest due first",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("list")
			fs.IntVar(&q.Page, "page", 1, "page number, from 1")
			fs.IntVar(&q.Limit, "limit", 20, "results per page")
			fs.StringVar(&q.FromUserID, "from", "", "only tasks assigned by this user id")
			fs.StringVar(&q.ToUserID, "to", "", "only tasks assigned to this user id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			resp, err := a.Tasks.List(ctx, q)
			if err != nil {
				return err
			}
			tasks.SortByDue(resp.Tasks)
			return render(c.stdout, c.output, resp, func(tw *tabwriter.Writer) {
				taskTable(tw, resp.Tasks)
			})
		},
	}
}

func (c *cli) tasksCreateCommand() *Command {
	var (
		req tasks.CreateRequest
		due string
	)
	return &Command{
		Name:    "create",
		Summary: "Assign a new task",
		Usage:   "attendancectl tasks create --to USER_ID --title TEXT --description TEXT --due 2025-06-02T17:00:00Z",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("create")
			fs.StringVar(&req.ToUserID, "to", "", "assignee user id")
			fs.StringVar(&req.ShortDesc, "title", "", "short description")
			fs.StringVar(&req.Description, "description", "", "full description")
			fs.StringVar(&due, "due", "", "due date and time, RFC 3339")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			at, err := time.Parse(time.RFC3339, due)
			if err != nil {
				return fmt.Errorf("--due must be RFC 3339, got %q", due)
			}
			req.TimeAndDate = at
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			task, err := a.Tasks.Create(ctx, req)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, task, func(tw *tabwriter.Writer) {
				taskTable(tw, []tasks.Task{*task})
			})
		},
	}
}

func (c *cli) tasksStatusCommand() *Command {
	return &Command{
		Name:    "status",
		Summary: "Change a task's status",
		Usage:   "attendancectl tasks status ID planned|inprogress|completed",
		Flags:   func() *pflag.FlagSet { return c.flags("status") },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return errors.New("expected a task id and a status")
			}
			status, err := tasks.ParseStatus(args[1])
			if err != nil {
				return err
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			task, err := a.Tasks.UpdateStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, task, func(tw *tabwriter.Writer) {
				taskTable(tw, []tasks.Task{*task})
			})
		},
	}
}

func (c *cli) tasksDeleteCommand() *Command {
	return &Command{
		Name:    "delete",
		Summary: "Delete a task",
		Usage:   "attendancectl tasks delete ID",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one task id")
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := a.Tasks.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) boardCommand() *Command {
	return &Command{
		Name:    "board",
		Summary: "Show the task board or move a task between columns",
		Usage:   "attendancectl board [move TASK_ID COLUMN_OR_TASK_ID]",
		Flags:   func() *pflag.FlagSet { return c.flags("board") },
		Run: func(ctx context.Context, args []string) error {
			board, err := c.loadBoard(ctx)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if args[0] != "move" || len(args) != 3 {
					return errors.New("usage: board move TASK_ID COLUMN_OR_TASK_ID")
				}
				if err := board.Move(ctx, args[1], args[2]); err != nil {
					return err
				}
			}
			columns := board.Columns()
			return render(c.stdout, c.output, columns, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "COLUMN\tID\tTITLE\tDUE\n")
				for _, col := range columns {
					fmt.Fprintf(tw, "%s (%d)\t\t\t\n", col.Title, len(col.Tasks))
					for _, t := range col.Tasks {
						fmt.Fprintf(tw, "\t%s\t%s\t%s\n", t.ID, t.ShortDesc, t.TimeAndDate.Local().Format("2006-01-02 15:04"))
					}
				}
			})
		},
	}
}

func (c *cli) loadBoard(ctx context.Context) (*tasks.Board, error) {
	a, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := a.Tasks.List(ctx, tasks.ListQuery{Page: 1, Limit: boardTaskLimit})
	if err != nil {
		return nil, err
	}
	tasks.SortByDue(resp.Tasks)
	return tasks.NewBoard(a.Tasks, resp.Tasks)
}

func taskTable(tw *tabwriter.Writer, list []tasks.Task) {
	fmt.Fprintf(tw, "ID\tTITLE\tSTATUS\tASSIGNEE\tDUE\n")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.ShortDesc, t.Status().Title(), t.ToUserID, t.TimeAndDate.Local().Format("2006-01-02 15:04"))
	}
}
