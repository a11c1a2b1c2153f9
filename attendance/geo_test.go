package attendance_test

import (
	"math"
	"strings"
	"testing"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/internal/utils"
	"github.com/stretchr/testify/require"
)

// meters in one degree of latitude on a sphere of the earth's mean radius
var metersPerDegree = attendance.EarthRadiusMeters * math.Pi / 180

var office = attendance.Coordinate{ID: "c-1", Desc: "Head office", Latitude: 12.9716, Longitude: 77.5946, Radius: 100}

func TestDistance(t *testing.T) {
	a := attendance.Location{Latitude: 0, Longitude: 0}

	require.Zero(t, attendance.Distance(a, a))
	require.InDelta(t, metersPerDegree, attendance.Distance(a, attendance.Location{Latitude: 1}), 0.001)
	require.InDelta(t, metersPerDegree, attendance.Distance(a, attendance.Location{Longitude: 1}), 0.001)

	paris := attendance.Location{Latitude: 48.8566, Longitude: 2.3522}
	london := attendance.Location{Latitude: 51.5074, Longitude: -0.1278}
	require.InDelta(t, 343_500, attendance.Distance(paris, london), 1_000)
	require.InDelta(t, attendance.Distance(paris, london), attendance.Distance(london, paris), 1e-6)
}

func TestCoordinate_Contains(t *testing.T) {
	require.True(t, office.Contains(office.Center()))

	// 0.0008 degrees of latitude is roughly 89m
	require.True(t, office.Contains(attendance.Location{Latitude: office.Latitude + 0.0008, Longitude: office.Longitude}))
	// 0.001 degrees is roughly 111m
	require.False(t, office.Contains(attendance.Location{Latitude: office.Latitude + 0.001, Longitude: office.Longitude}))

	onEdge := office
	onEdge.Radius = office.DistanceTo(attendance.Location{Latitude: office.Latitude + 0.0005, Longitude: office.Longitude})
	require.True(t, onEdge.Contains(attendance.Location{Latitude: office.Latitude + 0.0005, Longitude: office.Longitude}))
}

func TestNearest(t *testing.T) {
	_, _, ok := attendance.Nearest(nil, office.Center())
	require.False(t, ok)

	warehouse := attendance.Coordinate{ID: "c-2", Latitude: 13.0, Longitude: 77.6, Radius: 500}
	nearest, distance, ok := attendance.Nearest([]attendance.Coordinate{warehouse, office}, attendance.Location{Latitude: 12.972, Longitude: 77.5946})
	require.True(t, ok)
	require.Equal(t, "c-1", nearest.ID)
	require.Less(t, distance, 100.0)
}

func TestCoordinateRequest_Validate(t *testing.T) {
	valid := attendance.CoordinateRequest{Desc: "Head office", Latitude: 12.97, Longitude: 77.59, Radius: 100}
	require.NoError(t, valid.Validate())

	edges := valid
	edges.Latitude, edges.Longitude, edges.Radius = -90, 180, 10000
	require.NoError(t, edges.Validate())
	edges.Radius = 1
	require.NoError(t, edges.Validate())

	tests := []struct {
		name   string
		mutate func(r *attendance.CoordinateRequest)
	}{
		{"missing description", func(r *attendance.CoordinateRequest) { r.Desc = " " }},
		{"description too long", func(r *attendance.CoordinateRequest) { r.Desc = strings.Repeat("x", 201) }},
		{"latitude too large", func(r *attendance.CoordinateRequest) { r.Latitude = 90.0001 }},
		{"longitude too small", func(r *attendance.CoordinateRequest) { r.Longitude = -180.5 }},
		{"radius zero", func(r *attendance.CoordinateRequest) { r.Radius = 0 }},
		{"radius too large", func(r *attendance.CoordinateRequest) { r.Radius = 10001 }},
		{"radius NaN", func(r *attendance.CoordinateRequest) { r.Radius = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			require.ErrorIs(t, req.Validate(), apperrors.ErrValidation)
		})
	}
}

func TestCoordinateUpdate_Apply(t *testing.T) {
	updated, err := attendance.CoordinateUpdate{Radius: utils.Ptr(250.0)}.Apply(office)
	require.NoError(t, err)
	require.Equal(t, 250.0, updated.Radius)
	require.Equal(t, office.Desc, updated.Desc)

	_, err = attendance.CoordinateUpdate{Latitude: utils.Ptr(120.0)}.Apply(office)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
