package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/jrsteele09/go-attendance-admin/users"
)

// requireAssignee checks the task's assignee is a known account
func (s *Server) requireAssignee(userID string) error {
	if _, err := s.repos.Users.GetByID(userID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.Validationf("assignee %q does not exist", userID)
		}
		return err
	}
	return nil
}

func isAdmin(r *http.Request) bool {
	claims, ok := claimsFromContext(r.Context())
	return ok && claims.Role == string(users.RoleAdmin)
}

// ListTasksHandler lists tasks newest first. Without a filter an employee
// sees the tasks assigned to them.
func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := page(r)
		filter := tasks.Filter{
			FromUserID: r.URL.Query().Get("fromUserId"),
			ToUserID:   r.URL.Query().Get("toUserId"),
		}
		if !isAdmin(r) && filter.FromUserID == "" && filter.ToUserID == "" {
			claims, _ := claimsFromContext(r.Context())
			filter.ToUserID = claims.Subject
		}

		found, total, err := s.repos.Tasks.List(filter, offset, limit)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		list := make([]tasks.Task, 0, len(found))
		for _, t := range found {
			list = append(list, *t)
		}
		writeJSON(w, http.StatusOK, tasks.ListResponse{
			Tasks:      list,
			Total:      total,
			Limit:      limit,
			Offset:     offset,
			Pagination: gateway.NewPagination(total, limit, offset),
		})
	}
}

func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tasks.CreateRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		now := NowTimeFunc().UTC()
		if err := req.Validate(now); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := s.requireAssignee(req.ToUserID); err != nil {
			s.writeErr(w, r, err)
			return
		}
		claims, _ := claimsFromContext(r.Context())

		task := &tasks.Task{
			FromUserID:  claims.Subject,
			ToUserID:    req.ToUserID,
			Description: strings.TrimSpace(req.Description),
			ShortDesc:   strings.TrimSpace(req.ShortDesc),
			TimeAndDate: req.TimeAndDate.UTC(),
			Tracking:    []tasks.TrackingEntry{{Status: tasks.StatusPlanned, Date: now}},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repos.Tasks.Upsert(task); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tasks.TaskResponse{Message: "Task created successfully", Task: *task})
	}
}

func (s *Server) GetTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks.TaskResponse{Task: *task})
	}
}

func (s *Server) UpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tasks.UpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(); err != nil {
			s.writeErr(w, r, err)
			return
		}
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		updated := *task
		if req.ToUserID != "" && req.ToUserID != task.ToUserID {
			if err := s.requireAssignee(req.ToUserID); err != nil {
				s.writeErr(w, r, err)
				return
			}
			updated.ToUserID = req.ToUserID
		}
		if req.Description != "" {
			updated.Description = strings.TrimSpace(req.Description)
		}
		if req.ShortDesc != "" {
			updated.ShortDesc = strings.TrimSpace(req.ShortDesc)
		}
		if req.TimeAndDate != nil {
			updated.TimeAndDate = req.TimeAndDate.UTC()
		}
		if len(req.Tracking) > 0 {
			updated.Tracking = req.Tracking
		}
		updated.UpdatedAt = NowTimeFunc().UTC()

		if err := s.repos.Tasks.Upsert(&updated); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks.TaskResponse{Message: "Task updated successfully", Task: updated})
	}
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTaskStatusHandler appends a tracking entry when the status changes
func (s *Server) UpdateTaskStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taskStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		status, err := tasks.ParseStatus(req.Status)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		updated := *task
		if task.Status() != status {
			now := NowTimeFunc().UTC()
			updated.Tracking = append(append([]tasks.TrackingEntry(nil), task.Tracking...), tasks.TrackingEntry{Status: status, Date: now})
			updated.UpdatedAt = now
			if err := s.repos.Tasks.Upsert(&updated); err != nil {
				s.writeErr(w, r, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, tasks.TaskResponse{Message: "Task status updated", Task: updated})
	}
}

func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Tasks.Delete(r.PathValue("id")); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Task deleted successfully")
	}
}
