package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidDropTarget = errors.New("no valid drop target")
	ErrTaskNotOnBoard    = errors.New("task is not on the board")
)

// Updater persists a task change. *Client satisfies it.
type Updater interface {
	Update(ctx context.Context, id string, req UpdateRequest) (*Task, error)
}

var _ Updater = (*Client)(nil)

type Column struct {
	Status Status
	Title  string
	Tasks  []Task
}

// Board groups tasks into status columns and moves them between columns.
// A move is applied locally before the API call and reverted if the call fails.
type Board struct {
	updater Updater
	nowTime func() time.Time
	lock    sync.Mutex
	tasks   map[string]*Task
	column  map[string]Status
	order   []string
}

type BoardOption func(b *Board)

func WithBoardNowTime(nowTime func() time.Time) BoardOption {
	return func(b *Board) {
		b.nowTime = nowTime
	}
}

func NewBoard(updater Updater, tasks []Task, opts ...BoardOption) (*Board, error) {
	if updater == nil {
		return nil, errors.New("[tasks.NewBoard] updater is required")
	}
	b := &Board{
		updater: updater,
		nowTime: NowTimeFunc,
		tasks:   make(map[string]*Task, len(tasks)),
		column:  make(map[string]Status, len(tasks)),
	}
	for _, opt := range opts {
		opt(b)
	}
	for i := range tasks {
		t := tasks[i]
		t.Tracking = slices.Clone(t.Tracking)
		if _, ok := b.tasks[t.ID]; !ok {
			b.order = append(b.order, t.ID)
		}
		b.tasks[t.ID] = &t
		b.column[t.ID] = t.Status()
	}
	return b, nil
}

// Columns returns every column in board order with its tasks in load order
func (b *Board) Columns() []Column {
	b.lock.Lock()
	defer b.lock.Unlock()

	columns := make([]Column, 0, len(Statuses))
	for _, s := range Statuses {
		col := Column{Status: s, Title: s.Title(), Tasks: []Task{}}
		for _, id := range b.order {
			if b.column[id] == s {
				col.Tasks = append(col.Tasks, b.copyOf(id))
			}
		}
		columns = append(columns, col)
	}
	return columns
}

// ColumnOf reports the column a task currently sits in
func (b *Board) ColumnOf(taskID string) (Status, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	s, ok := b.column[taskID]
	return s, ok
}

// Counts returns the number of tasks in each column
func (b *Board) Counts() map[Status]int {
	b.lock.Lock()
	defer b.lock.Unlock()

	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, s := range b.column {
		counts[s]++
	}
	return counts
}

// Move drops taskID onto target. The target is a column id, or the id of
// another task, in which case the task lands in that task's column. Moving
// a task onto its own column does nothing.
func (b *Board) Move(ctx context.Context, taskID, target string) error {
	b.lock.Lock()
	task, ok := b.tasks[taskID]
	if !ok {
		b.lock.Unlock()
		return fmt.Errorf("[Board.Move] %s: %w", taskID, ErrTaskNotOnBoard)
	}
	to, ok := b.resolveTarget(target)
	if !ok {
		b.lock.Unlock()
		return fmt.Errorf("[Board.Move] %q: %w", target, ErrInvalidDropTarget)
	}
	from := b.column[taskID]
	if from == to {
		b.lock.Unlock()
		return nil
	}

	tracking := append(slices.Clone(task.Tracking), TrackingEntry{Status: to, Date: b.nowTime().UTC()})
	b.column[taskID] = to
	b.lock.Unlock()

	updated, err := b.updater.Update(ctx, taskID, UpdateRequest{Tracking: tracking})

	b.lock.Lock()
	defer b.lock.Unlock()
	if err != nil {
		if b.column[taskID] == to {
			b.column[taskID] = from
		}
		log.Warn().Err(err).Str("task", taskID).Str("from", string(from)).Str("to", string(to)).Msg("task move reverted")
		return fmt.Errorf("[Board.Move] updater.Update: %w", err)
	}

	if updated != nil && updated.ID == taskID {
		t := *updated
		t.Tracking = slices.Clone(t.Tracking)
		b.tasks[taskID] = &t
		b.column[taskID] = t.Status()
	} else {
		task.Tracking = tracking
	}
	return nil
}

func (b *Board) resolveTarget(target string) (Status, bool) {
	if s := Status(target); s.Valid() {
		return s, true
	}
	if s, ok := b.column[target]; ok {
		return s, true
	}
	return "", false
}

func (b *Board) copyOf(id string) Task {
	t := *b.tasks[id]
	t.Tracking = slices.Clone(t.Tracking)
	return t
}

// SortByDue orders tasks by due date, earliest first
func SortByDue(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].TimeAndDate.Before(tasks[j].TimeAndDate)
	})
}
