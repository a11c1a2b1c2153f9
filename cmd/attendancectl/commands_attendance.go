package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/spf13/pflag"
)

const (
	dateLayout      = "2006-01-02"
	coordinateLimit = 100
)

func (c *cli) coordinatesCommand() *Command {
	var (
		here    attendance.Location
		nearest bool
	)
	return &Command{
		Name:    "coordinates",
		Summary: "List attendance coordinates, or find the nearest to a location",
		Usage:   "attendancectl coordinates [--nearest --lat LAT --lon LON]",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("coordinates")
			fs.BoolVar(&nearest, "nearest", false, "show only the coordinate nearest to --lat/--lon")
			locationFlags(fs, &here)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			coords, err := c.coordinates(ctx)
			if err != nil {
				return err
			}
			if nearest {
				if err := here.Validate(); err != nil {
					return err
				}
				coord, distance, ok := attendance.Nearest(coords, here)
				if !ok {
					return errors.New("no attendance coordinates are configured")
				}
				result := struct {
					Coordinate attendance.Coordinate `json:"coordinate" yaml:"coordinate"`
					Distance   float64               `json:"distance" yaml:"distance"`
					Inside     bool                  `json:"inside" yaml:"inside"`
				}{coord, distance, coord.Contains(here)}
				return render(c.stdout, c.output, result, func(tw *tabwriter.Writer) {
					coordinateTable(tw, []attendance.Coordinate{coord})
					fmt.Fprintf(tw, "\n%.0fm away, inside: %t\n", distance, result.Inside)
				})
			}
			return render(c.stdout, c.output, coords, func(tw *tabwriter.Writer) {
				coordinateTable(tw, coords)
			})
		},
	}
}

func (c *cli) coordinates(ctx context.Context) ([]attendance.Coordinate, error) {
	a, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := a.Attendance.ListCoordinates(ctx, gateway.PageQuery{Page: 1, Limit: coordinateLimit})
	if err != nil {
		return nil, err
	}
	return resp.Coordinates, nil
}

func (c *cli) punchCommand() *Command {
	var (
		here         attendance.Location
		coordinateID string
		userID       string
		facePath     string
	)
	return &Command{
		Name:    "punch",
		Summary: "Punch in or out at an attendance coordinate",
		Usage:   "attendancectl punch in|out --lat LAT --lon LON --face photo.jpg [--coordinate ID]",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("punch")
			locationFlags(fs, &here)
			fs.StringVar(&coordinateID, "coordinate", "", "coordinate id (default: the nearest)")
			fs.StringVar(&userID, "user", "", "employee id (default: the signed-in user)")
			fs.StringVar(&facePath, "face", "", "path to a face photo")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 || (args[0] != "in" && args[0] != "out") {
				return errors.New("expected in or out")
			}
			image, err := os.ReadFile(facePath)
			if err != nil {
				return fmt.Errorf("reading face photo: %w", err)
			}
			face, err := attendance.EncodeFaceImage(image)
			if err != nil {
				return err
			}
			if userID == "" {
				if userID, err = signedInUserID(c, ctx); err != nil {
					return err
				}
			}

			coord, err := c.punchCoordinate(ctx, coordinateID, here)
			if err != nil {
				return err
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			record, err := a.Attendance.Punch(ctx, coord, attendance.PunchRequest{
				UserID:                 userID,
				AttendanceCoordinateID: coord.ID,
				FaceImage:              face,
				UserLocation:           here,
				PunchType:              attendance.PunchType("punch" + args[0]),
			})
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, record, func(tw *tabwriter.Writer) {
				recordTable(tw, []attendance.Record{*record})
			})
		},
	}
}

// punchCoordinate finds the coordinate by id, or the nearest one when id is empty
func (c *cli) punchCoordinate(ctx context.Context, id string, here attendance.Location) (*attendance.Coordinate, error) {
	if id != "" {
		a, err := c.client(ctx)
		if err != nil {
			return nil, err
		}
		return a.Attendance.GetCoordinate(ctx, id)
	}
	coords, err := c.coordinates(ctx)
	if err != nil {
		return nil, err
	}
	coord, _, ok := attendance.Nearest(coords, here)
	if !ok {
		return nil, errors.New("no attendance coordinates are configured")
	}
	return &coord, nil
}

func (c *cli) attendanceCommand() *Command {
	return &Command{
		Name:    "attendance",
		Summary: "Review attendance records",
		Subcommands: []*Command{
			c.attendanceListCommand(),
			c.attendanceStatsCommand(),
		},
	}
}

func (c *cli) attendanceListCommand() *Command {
	var (
		q          attendance.Query
		status     string
		start, end string
	)
	return &Command{
		Name:    "list",
		Summary: "List attendance records",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("list")
			fs.IntVar(&q.Page, "page", 1, "page number, from 1")
			fs.IntVar(&q.Limit, "limit", 20, "results per page")
			fs.StringVar(&q.UserID, "user", "", "only this employee")
			fs.StringVar(&status, "status", "", "present, absent, late or half_day")
			dateFlags(fs, &start, &end)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			var err error
			if q.StartDate, q.EndDate, err = parseDateRange(start, end); err != nil {
				return err
			}
			q.Status = attendance.RecordStatus(status)
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			resp, err := a.Attendance.List(ctx, q)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, resp, func(tw *tabwriter.Writer) {
				recordTable(tw, resp.Attendances)
			})
		},
	}
}

func (c *cli) attendanceStatsCommand() *Command {
	var (
		q          attendance.StatsQuery
		start, end string
	)
	return &Command{
		Name:    "stats",
		Summary: "Summarise attendance",
		Flags: func() *pflag.FlagSet {
			fs := c.flags("stats")
			fs.StringVar(&q.UserID, "user", "", "only this employee")
			dateFlags(fs, &start, &end)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			var err error
			if q.StartDate, q.EndDate, err = parseDateRange(start, end); err != nil {
				return err
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			stats, err := a.Attendance.Stats(ctx, q)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, stats, func(tw *tabwriter.Writer) {
				statsTable(tw, *stats)
			})
		},
	}
}

func (c *cli) dashboardCommand() *Command {
	return &Command{
		Name:    "dashboard",
		Summary: "Show the admin overview",
		Flags:   func() *pflag.FlagSet { return c.flags("dashboard") },
		Run: func(ctx context.Context, args []string) error {
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			overview, err := a.Dashboard.Load(ctx)
			if err != nil {
				return err
			}
			return render(c.stdout, c.output, overview, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Employees\t%d\n", overview.Employees)
				fmt.Fprintf(tw, "Coordinates\t%d\n", overview.Coordinates)
				fmt.Fprintf(tw, "Tasks\t%d\n", overview.Tasks)
				for _, s := range tasks.Statuses {
					fmt.Fprintf(tw, "  %s\t%d\n", s.Title(), overview.TasksByStatus[s])
				}
				fmt.Fprintln(tw)
				statsTable(tw, overview.Attendance)
			})
		},
	}
}

func locationFlags(fs *pflag.FlagSet, l *attendance.Location) {
	fs.Float64Var(&l.Latitude, "lat", 0, "latitude in degrees")
	fs.Float64Var(&l.Longitude, "lon", 0, "longitude in degrees")
}

func dateFlags(fs *pflag.FlagSet, start, end *string) {
	fs.StringVar(start, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(end, "to", "", "last day, YYYY-MM-DD")
}

func parseDateRange(start, end string) (from, to time.Time, err error) {
	if start != "" {
		if from, err = time.Parse(dateLayout, start); err != nil {
			return from, to, fmt.Errorf("--from must be YYYY-MM-DD, got %q", start)
		}
	}
	if end != "" {
		if to, err = time.Parse(dateLayout, end); err != nil {
			return from, to, fmt.Errorf("--to must be YYYY-MM-DD, got %q", end)
		}
	}
	return from, to, nil
}

func coordinateTable(tw *tabwriter.Writer, coords []attendance.Coordinate) {
	fmt.Fprintf(tw, "ID\tDESCRIPTION\tLATITUDE\tLONGITUDE\tRADIUS\n")
	for _, c := range coords {
		fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\t%.0fm\n", c.ID, c.Desc, c.Latitude, c.Longitude, c.Radius)
	}
}

func recordTable(tw *tabwriter.Writer, records []attendance.Record) {
	fmt.Fprintf(tw, "ID\tUSER\tDAY\tIN\tOUT\tHOURS\tSTATUS\n")
	for _, r := range records {
		in, out := "-", "-"
		if r.PunchIn != nil {
			in = r.PunchIn.Timestamp.Local().Format("15:04")
		}
		if r.PunchOut != nil {
			out = r.PunchOut.Timestamp.Local().Format("15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n", r.ID, r.UserID, r.Day().Local().Format(dateLayout), in, out, r.TotalHours, r.Status)
	}
}

func statsTable(tw *tabwriter.Writer, s attendance.Stats) {
	fmt.Fprintf(tw, "Days\t%d\n", s.TotalDays)
	fmt.Fprintf(tw, "  present\t%d\n", s.PresentDays)
	fmt.Fprintf(tw, "  late\t%d\n", s.LateDays)
	fmt.Fprintf(tw, "  half day\t%d\n", s.HalfDays)
	fmt.Fprintf(tw, "  absent\t%d\n", s.AbsentDays)
	fmt.Fprintf(tw, "Hours\t%.2f (avg %.2f)\n", s.TotalHours, s.AverageHours)
}
