package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

const dateLayout = "2006-01-02"

// recordFilter reads the attendance filters from the query string.
// Employees only ever see their own records.
func recordFilter(r *http.Request) (attendance.RecordFilter, error) {
	q := r.URL.Query()
	filter := attendance.RecordFilter{
		UserID: q.Get("userId"),
		Status: attendance.RecordStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, apperrors.Validationf("unknown attendance status %q", filter.Status)
	}
	for name, dst := range map[string]*time.Time{"startDate": &filter.From, "endDate": &filter.To} {
		value := q.Get(name)
		if value == "" {
			continue
		}
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return filter, apperrors.Validationf("%s must be YYYY-MM-DD, got %q", name, value)
		}
		*dst = parsed
	}
	if !isAdmin(r) {
		claims, _ := claimsFromContext(r.Context())
		filter.UserID = claims.Subject
	}
	return filter, nil
}

// PunchHandler records a punch-in or punch-out for today. The location must
// be inside the coordinate's radius. A punch-in after the employee's window
// is late and a day shorter than four hours becomes a half day.
func (s *Server) PunchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendance.PunchRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if claims, _ := claimsFromContext(r.Context()); !isAdmin(r) && claims.Subject != req.UserID {
			writeError(w, http.StatusForbidden, "you can only punch for yourself")
			return
		}

		coordinate, err := s.repos.Coordinates.Get(req.AttendanceCoordinateID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				err = apperrors.Validationf("attendance coordinate %q does not exist", req.AttendanceCoordinateID)
			}
			s.writeErr(w, r, err)
			return
		}
		if distance := coordinate.DistanceTo(req.UserLocation); distance > coordinate.Radius {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("You are outside the allowed area: %.0fm from %s, radius %.0fm", distance, coordinate.Desc, coordinate.Radius))
			return
		}
		account, err := s.repos.Users.GetByID(req.UserID)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		now := NowTimeFunc()
		detail := &attendance.PunchDetail{
			Timestamp: now,
			Location: attendance.LocationData{
				Latitude:  req.UserLocation.Latitude,
				Longitude: req.UserLocation.Longitude,
				Timestamp: now.UnixMilli(),
			},
			Photo: req.FaceImage,
		}

		existing, err := s.repos.Records.ForDay(req.UserID, now)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.writeErr(w, r, err)
			return
		}

		switch req.PunchType {
		case attendance.PunchIn:
			if existing != nil && existing.PunchIn != nil {
				writeError(w, http.StatusBadRequest, "already punched in today")
				return
			}
			record := &attendance.Record{
				UserID:    req.UserID,
				PunchIn:   detail,
				Status:    attendance.ClassifyPunchIn(now, account.WorkingHours),
				CreatedAt: now.UTC(),
				UpdatedAt: now.UTC(),
			}
			if existing != nil {
				record.ID = existing.ID
				record.CreatedAt = existing.CreatedAt
			}
			if err := s.repos.Records.Upsert(record); err != nil {
				s.writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, attendance.RecordResponse{Message: "Punched in successfully", Attendance: *record})

		case attendance.PunchOut:
			if existing == nil || existing.PunchIn == nil {
				writeError(w, http.StatusBadRequest, "no punch-in found for today")
				return
			}
			if existing.PunchOut != nil {
				writeError(w, http.StatusBadRequest, "already punched out today")
				return
			}
			record := *existing
			record.PunchOut = detail
			record.CompletePunchOut()
			record.UpdatedAt = now.UTC()
			if err := s.repos.Records.Upsert(&record); err != nil {
				s.writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, attendance.RecordResponse{Message: "Punched out successfully", Attendance: record})
		}
	}
}

func (s *Server) ListAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := recordFilter(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		limit, offset := page(r)
		found, total, err := s.repos.Records.List(filter, offset, limit)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		records := make([]attendance.Record, 0, len(found))
		for _, rec := range found {
			records = append(records, *rec)
		}
		writeJSON(w, http.StatusOK, attendance.ListResponse{
			Attendances: records,
			Total:       total,
			Limit:       limit,
			Offset:      offset,
			Pagination:  gateway.NewPagination(total, limit, offset),
		})
	}
}

// AttendanceStatsHandler aggregates every matching record
func (s *Server) AttendanceStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := recordFilter(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		found, _, err := s.repos.Records.List(filter, 0, 0)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		records := make([]attendance.Record, 0, len(found))
		for _, rec := range found {
			records = append(records, *rec)
		}
		writeJSON(w, http.StatusOK, attendance.StatsResponse{Stats: attendance.ComputeStats(records, NowTimeFunc())})
	}
}

func (s *Server) record(r *http.Request) (*attendance.Record, error) {
	record, err := s.repos.Records.Get(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if claims, _ := claimsFromContext(r.Context()); !isAdmin(r) && record.UserID != claims.Subject {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (s *Server) GetAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := s.record(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, attendance.RecordResponse{Attendance: *record})
	}
}

func applyRecordRequest(record *attendance.Record, req attendance.RecordRequest) {
	if req.PunchIn != nil {
		record.PunchIn = req.PunchIn
	}
	if req.PunchOut != nil {
		record.PunchOut = req.PunchOut
	}
	if req.Status != "" {
		record.Status = req.Status
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		record.Notes = notes
	}
	record.TotalHours = record.WorkedHours()
}

// CreateAttendanceHandler lets an admin record a day by hand, such as an absence
func (s *Server) CreateAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendance.RecordRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(true); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if _, err := s.repos.Users.GetByID(req.UserID); err != nil {
			s.writeErr(w, r, err)
			return
		}
		now := NowTimeFunc().UTC()
		record := &attendance.Record{UserID: req.UserID, CreatedAt: now, UpdatedAt: now}
		applyRecordRequest(record, req)
		if err := s.repos.Records.Upsert(record); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, attendance.RecordResponse{Message: "Attendance created successfully", Attendance: *record})
	}
}

func (s *Server) UpdateAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendance.RecordRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(false); err != nil {
			s.writeErr(w, r, err)
			return
		}
		existing, err := s.record(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		record := *existing
		applyRecordRequest(&record, req)
		if record.PunchIn != nil && record.PunchOut != nil && record.PunchOut.Timestamp.Before(record.PunchIn.Timestamp) {
			s.writeErr(w, r, apperrors.Validationf("punch out is before punch in"))
			return
		}
		record.UpdatedAt = NowTimeFunc().UTC()
		if err := s.repos.Records.Upsert(&record); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, attendance.RecordResponse{Message: "Attendance updated successfully", Attendance: record})
	}
}

func (s *Server) DeleteAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Records.Delete(r.PathValue("id")); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Attendance deleted successfully")
	}
}

func (s *Server) ListCoordinatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := page(r)
		found, total, err := s.repos.Coordinates.List(offset, limit)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		coordinates := make([]attendance.Coordinate, 0, len(found))
		for _, c := range found {
			coordinates = append(coordinates, *c)
		}
		writeJSON(w, http.StatusOK, attendance.CoordinateListResponse{
			Coordinates: coordinates,
			Total:       total,
			Limit:       limit,
			Offset:      offset,
			Pagination:  gateway.NewPagination(total, limit, offset),
		})
	}
}

func (s *Server) CreateCoordinateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendance.CoordinateRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(); err != nil {
			s.writeErr(w, r, err)
			return
		}
		adminID := req.AdminID
		if adminID == "" {
			claims, _ := claimsFromContext(r.Context())
			adminID = claims.Subject
		}
		now := NowTimeFunc().UTC()
		coordinate := &attendance.Coordinate{
			Desc:      strings.TrimSpace(req.Desc),
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Radius:    req.Radius,
			AdminID:   adminID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repos.Coordinates.Upsert(coordinate); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, attendance.CoordinateResponse{Message: "Attendance coordinate created successfully", Coordinate: *coordinate})
	}
}

func (s *Server) GetCoordinateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coordinate, err := s.repos.Coordinates.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, attendance.CoordinateResponse{Coordinate: *coordinate})
	}
}

func (s *Server) UpdateCoordinateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendance.CoordinateUpdate
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		existing, err := s.repos.Coordinates.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		updated, err := req.Apply(*existing)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		updated.UpdatedAt = NowTimeFunc().UTC()
		if err := s.repos.Coordinates.Upsert(&updated); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, attendance.CoordinateResponse{Message: "Attendance coordinate updated successfully", Coordinate: updated})
	}
}

func (s *Server) DeleteCoordinateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Coordinates.Delete(r.PathValue("id")); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Attendance coordinate deleted successfully")
	}
}
