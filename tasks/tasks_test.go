package tasks_test

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func validCreate() tasks.CreateRequest {
	return tasks.CreateRequest{
		FromUserID:  "admin-1",
		ToUserID:    "emp-1",
		ShortDesc:   "Stock take",
		Description: "Count the warehouse stock before Friday",
		TimeAndDate: now.Add(24 * time.Hour),
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	require.NoError(t, validCreate().Validate(now))

	tests := []struct {
		name   string
		mutate func(r *tasks.CreateRequest)
	}{
		{"missing assignee", func(r *tasks.CreateRequest) { r.ToUserID = "" }},
		{"missing short description", func(r *tasks.CreateRequest) { r.ShortDesc = "   " }},
		{"short description too long", func(r *tasks.CreateRequest) { r.ShortDesc = strings.Repeat("a", 201) }},
		{"missing description", func(r *tasks.CreateRequest) { r.Description = "" }},
		{"description too long", func(r *tasks.CreateRequest) { r.Description = strings.Repeat("é", 1001) }},
		{"missing date", func(r *tasks.CreateRequest) { r.TimeAndDate = time.Time{} }},
		{"date is now", func(r *tasks.CreateRequest) { r.TimeAndDate = now }},
		{"date in the past", func(r *tasks.CreateRequest) { r.TimeAndDate = now.Add(-time.Minute) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			require.ErrorIs(t, req.Validate(now), apperrors.ErrValidation)
		})
	}

	t.Run("limits are inclusive", func(t *testing.T) {
		req := validCreate()
		req.ShortDesc = strings.Repeat("a", 200)
		req.Description = strings.Repeat("b", 1000)
		require.NoError(t, req.Validate(now))
	})
}

func TestUpdateRequest_Validate(t *testing.T) {
	require.NoError(t, tasks.UpdateRequest{}.Validate())
	require.NoError(t, tasks.UpdateRequest{Tracking: []tasks.TrackingEntry{{Status: tasks.StatusCompleted, Date: now}}}.Validate())
	require.Error(t, tasks.UpdateRequest{Tracking: []tasks.TrackingEntry{{Status: "done", Date: now}}}.Validate())
	require.Error(t, tasks.UpdateRequest{ShortDesc: strings.Repeat("a", 201)}.Validate())
}

func TestTask_Status(t *testing.T) {
	task := tasks.Task{ID: "t-1"}
	require.Equal(t, tasks.StatusPlanned, task.Status())
	require.True(t, task.LastTracked().IsZero())

	task.Tracking = []tasks.TrackingEntry{
		{Status: tasks.StatusPlanned, Date: now},
		{Status: tasks.StatusInProgress, Date: now.Add(time.Hour)},
	}
	require.Equal(t, tasks.StatusInProgress, task.Status())
	require.Equal(t, now.Add(time.Hour), task.LastTracked())
}

func TestParseStatus(t *testing.T) {
	s, err := tasks.ParseStatus(" InProgress ")
	require.NoError(t, err)
	require.Equal(t, tasks.StatusInProgress, s)
	require.Equal(t, "In Progress", s.Title())

	_, err = tasks.ParseStatus("blocked")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCountByStatus(t *testing.T) {
	counts := tasks.CountByStatus([]tasks.Task{
		{ID: "1"},
		{ID: "2", Tracking: []tasks.TrackingEntry{{Status: tasks.StatusCompleted}}},
		{ID: "3", Tracking: []tasks.TrackingEntry{{Status: tasks.StatusCompleted}}},
	})
	require.Equal(t, map[tasks.Status]int{
		tasks.StatusPlanned:    1,
		tasks.StatusInProgress: 0,
		tasks.StatusCompleted:  2,
	}, counts)
}

func TestSortByDue(t *testing.T) {
	list := []tasks.Task{
		{ID: "late", TimeAndDate: now.Add(2 * time.Hour)},
		{ID: "early", TimeAndDate: now.Add(time.Hour)},
	}
	tasks.SortByDue(list)
	require.Equal(t, "early", list[0].ID)
}
