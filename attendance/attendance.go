// Package attendance covers geofenced punch-in/out and the attendance
// records and statistics derived from them.
package attendance

import (
	"encoding/base64"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
)

var ErrOutsideGeofence = errors.New("location is outside the attendance coordinate radius")

type PunchType string

const (
	PunchIn  PunchType = "punchin"
	PunchOut PunchType = "punchout"
)

func (p PunchType) Valid() bool {
	return p == PunchIn || p == PunchOut
}

type RecordStatus string

const (
	StatusPresent RecordStatus = "present"
	StatusAbsent  RecordStatus = "absent"
	StatusLate    RecordStatus = "late"
	StatusHalfDay RecordStatus = "half_day"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// HalfDayHours is the worked time below which a completed day counts as a half day
const HalfDayHours = 4.0

// LocationData is a device fix. Timestamp is epoch milliseconds.
type LocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

func (l LocationData) Location() Location {
	return Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

type PunchDetail struct {
	Timestamp time.Time    `json:"timestamp"`
	Location  LocationData `json:"location"`
	Photo     string       `json:"photo,omitempty"`
	Notes     string       `json:"notes,omitempty"`
}

type Record struct {
	ID         string       `json:"_id"`
	UserID     string       `json:"userId"`
	PunchIn    *PunchDetail `json:"punchIn,omitempty"`
	PunchOut   *PunchDetail `json:"punchOut,omitempty"`
	TotalHours float64      `json:"totalHours,omitempty"`
	Status     RecordStatus `json:"status"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"createdAt,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt,omitempty"`
}

// Day is the time the record is attributed to: punch-in if present, otherwise creation
func (r Record) Day() time.Time {
	if r.PunchIn != nil {
		return r.PunchIn.Timestamp
	}
	return r.CreatedAt
}

// WorkedHours is the time between punch-in and punch-out, rounded to
// hundredths. It is zero until both punches exist.
func (r Record) WorkedHours() float64 {
	if r.PunchIn == nil || r.PunchOut == nil {
		return 0
	}
	h := r.PunchOut.Timestamp.Sub(r.PunchIn.Timestamp).Hours()
	if h < 0 {
		return 0
	}
	return math.Round(h*100) / 100
}

// ClassifyPunchIn marks a punch-in late when its clock time is after the
// end of the employee's punch-in window. Times are compared in at's location.
func ClassifyPunchIn(at time.Time, hours users.WorkingHours) RecordStatus {
	if hours.PunchIn.To == "" {
		return StatusPresent
	}
	if at.Format("15:04") > hours.PunchIn.To {
		return StatusLate
	}
	return StatusPresent
}

// CompletePunchOut fills TotalHours and downgrades a short day to half_day
func (r *Record) CompletePunchOut() {
	r.TotalHours = r.WorkedHours()
	if r.TotalHours < HalfDayHours {
		r.Status = StatusHalfDay
	}
}

// PunchRequest is the body of POST /attendances/punch
type PunchRequest struct {
	UserID                 string    `json:"userId"`
	AttendanceCoordinateID string    `json:"attendanceCoordinateId"`
	FaceImage              string    `json:"faceImage"`
	UserLocation           Location  `json:"userLocation"`
	PunchType              PunchType `json:"punchType"`
}

func (r PunchRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return apperrors.Validationf("userId is required")
	}
	if strings.TrimSpace(r.AttendanceCoordinateID) == "" {
		return apperrors.Validationf("attendanceCoordinateId is required")
	}
	if !r.PunchType.Valid() {
		return apperrors.Validationf("punchType must be %q or %q, got %q", PunchIn, PunchOut, r.PunchType)
	}
	if err := r.UserLocation.Validate(); err != nil {
		return err
	}
	if _, _, err := DecodeFaceImage(r.FaceImage); err != nil {
		return err
	}
	return nil
}

// EncodeFaceImage returns image as a base64 data URL. The content must sniff as an image.
func EncodeFaceImage(image []byte) (string, error) {
	if len(image) == 0 {
		return "", apperrors.Validationf("face image is empty")
	}
	mediaType := http.DetectContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", apperrors.Validationf("face image has content type %q, want an image", mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image), nil
}

// DecodeFaceImage parses a base64 image data URL
func DecodeFaceImage(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", apperrors.Validationf("face image must be a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", apperrors.Validationf("face image data URL has no payload")
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok || !strings.HasPrefix(mediaType, "image/") {
		return nil, "", apperrors.Validationf("face image must be a base64 encoded image")
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(image) == 0 {
		return nil, "", apperrors.Validationf("face image payload is not valid base64")
	}
	return image, mediaType, nil
}

// RecordRequest is the admin body for creating or updating a record
type RecordRequest struct {
	UserID   string       `json:"userId,omitempty"`
	PunchIn  *PunchDetail `json:"punchIn,omitempty"`
	PunchOut *PunchDetail `json:"punchOut,omitempty"`
	Status   RecordStatus `json:"status,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

// Validate checks a create request; updates skip the required fields
func (r RecordRequest) Validate(create bool) error {
	if create && strings.TrimSpace(r.UserID) == "" {
		return apperrors.Validationf("userId is required")
	}
	if create && r.Status == "" {
		return apperrors.Validationf("status is required")
	}
	if r.Status != "" && !r.Status.Valid() {
		return apperrors.Validationf("unknown attendance status %q", r.Status)
	}
	if r.PunchIn != nil && r.PunchOut != nil && r.PunchOut.Timestamp.Before(r.PunchIn.Timestamp) {
		return apperrors.Validationf("punch out is before punch in")
	}
	return nil
}

type MonthStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	HalfDay int `json:"halfDay"`
}

type Stats struct {
	TotalDays         int        `json:"totalDays"`
	PresentDays       int        `json:"presentDays"`
	AbsentDays        int        `json:"absentDays"`
	LateDays          int        `json:"lateDays"`
	HalfDays          int        `json:"halfDays"`
	TotalHours        float64    `json:"totalHours"`
	AverageHours      float64    `json:"averageHours"`
	CurrentMonthStats MonthStats `json:"currentMonthStats"`
}

// ComputeStats aggregates records. The current month is the calendar month of now.
// AverageHours is over the records with hours worked.
func ComputeStats(records []Record, now time.Time) Stats {
	var (
		stats  Stats
		worked int
	)
	year, month, _ := now.Date()
	for _, r := range records {
		stats.TotalDays++
		stats.TotalHours += r.TotalHours
		if r.TotalHours > 0 {
			worked++
		}

		thisMonth := false
		if y, m, _ := r.Day().In(now.Location()).Date(); y == year && m == month {
			thisMonth = true
		}

		switch r.Status {
		case StatusPresent:
			stats.PresentDays++
			if thisMonth {
				stats.CurrentMonthStats.Present++
			}
		case StatusAbsent:
			stats.AbsentDays++
			if thisMonth {
				stats.CurrentMonthStats.Absent++
			}
		case StatusLate:
			stats.LateDays++
			if thisMonth {
				stats.CurrentMonthStats.Late++
			}
		case StatusHalfDay:
			stats.HalfDays++
			if thisMonth {
				stats.CurrentMonthStats.HalfDay++
			}
		}
	}
	stats.TotalHours = math.Round(stats.TotalHours*100) / 100
	if worked > 0 {
		stats.AverageHours = math.Round(stats.TotalHours/float64(worked)*100) / 100
	}
	return stats
}
