package tasks

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

// Status is a kanban column. A task's status is its latest tracking entry.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "inprogress"
	StatusCompleted  Status = "completed"
)

const (
	MaxShortDescLength   = 200
	MaxDescriptionLength = 1000
)

// Statuses lists the columns in board order
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Title is the column heading shown for the status
func (s Status) Title() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", apperrors.Validationf("unknown task status %q", s)
	}
	return status, nil
}

type TrackingEntry struct {
	Status Status    `json:"status"`
	Date   time.Time `json:"date"`
}

type Task struct {
	ID          string          `json:"_id"`
	FromUserID  string          `json:"fromUserId"`
	ToUserID    string          `json:"toUserId"`
	Description string          `json:"description"`
	ShortDesc   string          `json:"shortDesc"`
	TimeAndDate time.Time       `json:"timeAndDate"`
	Tracking    []TrackingEntry `json:"tracking"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// Status returns the latest tracking status, or planned for an untracked task
func (t Task) Status() Status {
	if len(t.Tracking) == 0 {
		return StatusPlanned
	}
	return t.Tracking[len(t.Tracking)-1].Status
}

// LastTracked returns the date of the latest tracking entry, or the zero time
func (t Task) LastTracked() time.Time {
	if len(t.Tracking) == 0 {
		return time.Time{}
	}
	return t.Tracking[len(t.Tracking)-1].Date
}

// CountByStatus counts tasks per column. Every column is present in the result.
func CountByStatus(tasks []Task) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		counts[t.Status()]++
	}
	return counts
}

// CreateRequest is the body of POST /tasks
type CreateRequest struct {
	FromUserID  string    `json:"fromUserId"`
	ToUserID    string    `json:"toUserId"`
	Description string    `json:"description"`
	ShortDesc   string    `json:"shortDesc"`
	TimeAndDate time.Time `json:"timeAndDate"`
}

// Validate applies the task form rules. The due date must be after now.
func (r CreateRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.ToUserID) == "" {
		return apperrors.Validationf("assignee is required")
	}
	if err := validateText("short description", r.ShortDesc, MaxShortDescLength); err != nil {
		return err
	}
	if err := validateText("description", r.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if r.TimeAndDate.IsZero() {
		return apperrors.Validationf("date and time is required")
	}
	if !r.TimeAndDate.After(now) {
		return apperrors.Validationf("date and time must be in the future")
	}
	return nil
}

// UpdateRequest is the body of PUT /tasks/{id}. Unset fields are left unchanged.
type UpdateRequest struct {
	ToUserID    string          `json:"toUserId,omitempty"`
	Description string          `json:"description,omitempty"`
	ShortDesc   string          `json:"shortDesc,omitempty"`
	TimeAndDate *time.Time      `json:"timeAndDate,omitempty"`
	Tracking    []TrackingEntry `json:"tracking,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if r.ShortDesc != "" {
		if err := validateText("short description", r.ShortDesc, MaxShortDescLength); err != nil {
			return err
		}
	}
	if r.Description != "" {
		if err := validateText("description", r.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	for i, entry := range r.Tracking {
		if !entry.Status.Valid() {
			return apperrors.Validationf("tracking entry %d has unknown status %q", i, entry.Status)
		}
	}
	return nil
}

func validateText(field, value string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		return apperrors.Validationf("%s is required", field)
	case n > max:
		return apperrors.Validationf("%s must be at most %d characters, got %d", field, max, n)
	}
	return nil
}

func (s Status) String() string {
	return string(s)
}

var _ fmt.Stringer = Status("")
