// Package dashboard assembles the admin overview from the domain clients.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/jrsteele09/go-attendance-admin/users/usersapi"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const (
	// DefaultTaskSample is how many tasks are fetched to count board columns
	DefaultTaskSample = 100
	RecentTaskCount   = 5

	maxConcurrentQueries = 4
)

type EmployeeLister interface {
	List(ctx context.Context, page gateway.PageQuery) (*usersapi.ListResponse, error)
}

type TaskLister interface {
	List(ctx context.Context, q tasks.ListQuery) (*tasks.ListResponse, error)
}

type AttendanceSource interface {
	ListCoordinates(ctx context.Context, page gateway.PageQuery) (*attendance.CoordinateListResponse, error)
	Stats(ctx context.Context, q attendance.StatsQuery) (*attendance.Stats, error)
}

var (
	_ EmployeeLister   = (*usersapi.Client)(nil)
	_ TaskLister       = (*tasks.Client)(nil)
	_ AttendanceSource = (*attendance.Client)(nil)
)

type Overview struct {
	Employees     int                  `json:"employees" yaml:"employees"`
	Coordinates   int                  `json:"coordinates" yaml:"coordinates"`
	Tasks         int                  `json:"tasks" yaml:"tasks"`
	TasksByStatus map[tasks.Status]int `json:"tasksByStatus" yaml:"tasksByStatus"`
	RecentTasks   []tasks.Task         `json:"recentTasks" yaml:"recentTasks"`
	Attendance    attendance.Stats     `json:"attendance" yaml:"attendance"`
	LoadedAt      time.Time            `json:"loadedAt" yaml:"loadedAt"`
}

type Loader struct {
	employees  EmployeeLister
	tasks      TaskLister
	attendance AttendanceSource
	taskSample int
	nowTime    func() time.Time
}

type Option func(l *Loader)

func WithTaskSample(n int) Option {
	return func(l *Loader) {
		l.taskSample = n
	}
}

func WithNowTime(nowTime func() time.Time) Option {
	return func(l *Loader) {
		l.nowTime = nowTime
	}
}

func NewLoader(employees EmployeeLister, taskLister TaskLister, att AttendanceSource, opts ...Option) (*Loader, error) {
	if employees == nil {
		return nil, errors.New("[dashboard.NewLoader] employee lister is required")
	}
	if taskLister == nil {
		return nil, errors.New("[dashboard.NewLoader] task lister is required")
	}
	if att == nil {
		return nil, errors.New("[dashboard.NewLoader] attendance source is required")
	}
	l := &Loader{
		employees:  employees,
		tasks:      taskLister,
		attendance: att,
		taskSample: DefaultTaskSample,
		nowTime:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load runs the overview queries concurrently. The first failure cancels
// the rest and is returned.
func (l *Loader) Load(ctx context.Context) (*Overview, error) {
	overview := &Overview{LoadedAt: l.nowTime()}

	p := pool.New().
		WithMaxGoroutines(maxConcurrentQueries).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	// each goroutine writes a distinct field of overview
	p.Go(func(ctx context.Context) error {
		resp, err := l.employees.List(ctx, gateway.PageQuery{Page: 1, Limit: 1})
		if err != nil {
			return fmt.Errorf("employees: %w", err)
		}
		overview.Employees = resp.Total
		return nil
	})
	p.Go(func(ctx context.Context) error {
		resp, err := l.tasks.List(ctx, tasks.ListQuery{Page: 1, Limit: l.taskSample})
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		overview.Tasks = resp.Total
		overview.TasksByStatus = tasks.CountByStatus(resp.Tasks)
		overview.RecentTasks = recent(resp.Tasks, RecentTaskCount)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		resp, err := l.attendance.ListCoordinates(ctx, gateway.PageQuery{Page: 1, Limit: 1})
		if err != nil {
			return fmt.Errorf("coordinates: %w", err)
		}
		overview.Coordinates = resp.Total
		return nil
	})
	p.Go(func(ctx context.Context) error {
		stats, err := l.attendance.Stats(ctx, attendance.StatsQuery{})
		if err != nil {
			return fmt.Errorf("attendance stats: %w", err)
		}
		overview.Attendance = *stats
		return nil
	})

	if err := p.Wait(); err != nil {
		log.Warn().Err(err).Msg("[Loader.Load] dashboard query failed")
		return nil, fmt.Errorf("[Loader.Load] %w", err)
	}
	return overview, nil
}

// recent returns up to n tasks, most recently created first
func recent(list []tasks.Task, n int) []tasks.Task {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b tasks.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
