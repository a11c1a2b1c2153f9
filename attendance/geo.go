package attendance

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

const (
	EarthRadiusMeters = 6371000.0

	MinRadiusMeters    = 1
	MaxRadiusMeters    = 10000
	MaxDescriptionSize = 200
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return apperrors.Validationf("latitude must be between -90 and 90, got %v", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return apperrors.Validationf("longitude must be between -180 and 180, got %v", l.Longitude)
	}
	return nil
}

// Distance is the great-circle distance in meters between a and b (haversine)
func Distance(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Coordinate is a geofence employees may punch from
type Coordinate struct {
	ID        string    `json:"_id"`
	Desc      string    `json:"desc"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    float64   `json:"radius"`
	AdminID   string    `json:"adminId"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (c Coordinate) Center() Location {
	return Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// DistanceTo is the distance in meters from the fence center to l
func (c Coordinate) DistanceTo(l Location) float64 {
	return Distance(c.Center(), l)
}

// Contains reports whether l lies inside the fence, boundary included
func (c Coordinate) Contains(l Location) bool {
	return c.DistanceTo(l) <= c.Radius
}

// Nearest returns the coordinate whose center is closest to l. ok is false
// when coords is empty.
func Nearest(coords []Coordinate, l Location) (nearest Coordinate, distance float64, ok bool) {
	distance = math.Inf(1)
	for _, c := range coords {
		if d := c.DistanceTo(l); d < distance {
			nearest, distance, ok = c, d, true
		}
	}
	return nearest, distance, ok
}

// CoordinateRequest is the body of POST /attendance-coordinates
type CoordinateRequest struct {
	Desc      string  `json:"desc"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	AdminID   string  `json:"adminId,omitempty"`
}

func (r CoordinateRequest) Validate() error {
	desc := strings.TrimSpace(r.Desc)
	if desc == "" {
		return apperrors.Validationf("description is required")
	}
	if n := utf8.RuneCountInString(desc); n > MaxDescriptionSize {
		return apperrors.Validationf("description must be at most %d characters, got %d", MaxDescriptionSize, n)
	}
	if err := (Location{Latitude: r.Latitude, Longitude: r.Longitude}).Validate(); err != nil {
		return err
	}
	return validateRadius(r.Radius)
}

// CoordinateUpdate is the body of PUT /attendance-coordinates/{id}. Nil fields are unchanged.
type CoordinateUpdate struct {
	Desc      *string  `json:"desc,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// Apply returns c with the update applied, validated as a whole
func (u CoordinateUpdate) Apply(c Coordinate) (Coordinate, error) {
	if u.Desc != nil {
		c.Desc = *u.Desc
	}
	if u.Latitude != nil {
		c.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		c.Longitude = *u.Longitude
	}
	if u.Radius != nil {
		c.Radius = *u.Radius
	}
	req := CoordinateRequest{Desc: c.Desc, Latitude: c.Latitude, Longitude: c.Longitude, Radius: c.Radius}
	if err := req.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func validateRadius(radius float64) error {
	if math.IsNaN(radius) || radius < MinRadiusMeters || radius > MaxRadiusMeters {
		return apperrors.Validationf("radius must be between %d and %d meters, got %v", MinRadiusMeters, MaxRadiusMeters, radius)
	}
	return nil
}
