package attendance_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/stretchr/testify/require"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func validPunch(t *testing.T) attendance.PunchRequest {
	t.Helper()
	face, err := attendance.EncodeFaceImage(pngImage)
	require.NoError(t, err)
	return attendance.PunchRequest{
		UserID:                 "emp-1",
		AttendanceCoordinateID: office.ID,
		FaceImage:              face,
		UserLocation:           office.Center(),
		PunchType:              attendance.PunchIn,
	}
}

func TestFaceImage(t *testing.T) {
	face, err := attendance.EncodeFaceImage(pngImage)
	require.NoError(t, err)
	require.Contains(t, face, "data:image/png;base64,")

	decoded, mediaType, err := attendance.DecodeFaceImage(face)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)
	require.Equal(t, pngImage, decoded)

	_, err = attendance.EncodeFaceImage([]byte("plain text, not a photo"))
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = attendance.EncodeFaceImage(nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	for _, bad := range []string{"", "aGVsbG8=", "data:text/plain;base64,aGVsbG8=", "data:image/png,raw", "data:image/png;base64,!!!"} {
		_, _, err := attendance.DecodeFaceImage(bad)
		require.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
}

func TestPunchRequest_Validate(t *testing.T) {
	require.NoError(t, validPunch(t).Validate())

	tests := []struct {
		name   string
		mutate func(r *attendance.PunchRequest)
	}{
		{"missing user", func(r *attendance.PunchRequest) { r.UserID = "" }},
		{"missing coordinate", func(r *attendance.PunchRequest) { r.AttendanceCoordinateID = "" }},
		{"bad punch type", func(r *attendance.PunchRequest) { r.PunchType = "lunch" }},
		{"bad location", func(r *attendance.PunchRequest) { r.UserLocation.Latitude = 100 }},
		{"missing image", func(r *attendance.PunchRequest) { r.FaceImage = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPunch(t)
			tt.mutate(&req)
			require.ErrorIs(t, req.Validate(), apperrors.ErrValidation)
		})
	}
}

func TestClassifyPunchIn(t *testing.T) {
	hours := users.WorkingHours{PunchIn: users.TimeWindow{From: "09:00", To: "09:30"}}
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	require.Equal(t, attendance.StatusPresent, attendance.ClassifyPunchIn(day.Add(9*time.Hour), hours))
	require.Equal(t, attendance.StatusPresent, attendance.ClassifyPunchIn(day.Add(9*time.Hour+30*time.Minute), hours))
	require.Equal(t, attendance.StatusLate, attendance.ClassifyPunchIn(day.Add(9*time.Hour+31*time.Minute), hours))
	require.Equal(t, attendance.StatusPresent, attendance.ClassifyPunchIn(day.Add(23*time.Hour), users.WorkingHours{}))
}

func TestRecord_CompletePunchOut(t *testing.T) {
	in := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	r := attendance.Record{Status: attendance.StatusPresent, PunchIn: &attendance.PunchDetail{Timestamp: in}}
	require.Zero(t, r.WorkedHours())

	r.PunchOut = &attendance.PunchDetail{Timestamp: in.Add(8*time.Hour + 20*time.Minute)}
	r.CompletePunchOut()
	require.Equal(t, 8.33, r.TotalHours)
	require.Equal(t, attendance.StatusPresent, r.Status)

	r.PunchOut.Timestamp = in.Add(3 * time.Hour)
	r.CompletePunchOut()
	require.Equal(t, 3.0, r.TotalHours)
	require.Equal(t, attendance.StatusHalfDay, r.Status)
}

func TestRecordRequest_Validate(t *testing.T) {
	require.NoError(t, attendance.RecordRequest{UserID: "emp-1", Status: attendance.StatusAbsent}.Validate(true))
	require.Error(t, attendance.RecordRequest{Status: attendance.StatusAbsent}.Validate(true))
	require.Error(t, attendance.RecordRequest{UserID: "emp-1"}.Validate(true))
	require.NoError(t, attendance.RecordRequest{Notes: "sick"}.Validate(false))
	require.Error(t, attendance.RecordRequest{Status: "away"}.Validate(false))

	in := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.Error(t, attendance.RecordRequest{
		PunchIn:  &attendance.PunchDetail{Timestamp: in},
		PunchOut: &attendance.PunchDetail{Timestamp: in.Add(-time.Hour)},
	}.Validate(false))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)

	records := []attendance.Record{
		{Status: attendance.StatusPresent, TotalHours: 8, PunchIn: &attendance.PunchDetail{Timestamp: thisMonth}},
		{Status: attendance.StatusLate, TotalHours: 7.5, PunchIn: &attendance.PunchDetail{Timestamp: thisMonth}},
		{Status: attendance.StatusHalfDay, TotalHours: 3.5, PunchIn: &attendance.PunchDetail{Timestamp: lastMonth}},
		{Status: attendance.StatusAbsent, CreatedAt: thisMonth},
	}

	stats := attendance.ComputeStats(records, now)
	require.Equal(t, attendance.Stats{
		TotalDays:    4,
		PresentDays:  1,
		AbsentDays:   1,
		LateDays:     1,
		HalfDays:     1,
		TotalHours:   19,
		AverageHours: 6.33,
		CurrentMonthStats: attendance.MonthStats{
			Present: 1,
			Absent:  1,
			Late:    1,
		},
	}, stats)

	require.Equal(t, attendance.Stats{}, attendance.ComputeStats(nil, now))
}
