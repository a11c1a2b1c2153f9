package attendance

import "time"

// RecordFilter narrows an attendance listing. Zero fields match everything;
// From and To bound the record's day inclusively by date.
type RecordFilter struct {
	UserID string
	Status RecordStatus
	From   time.Time
	To     time.Time
}

func (f RecordFilter) Matches(r *Record) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	day := r.Day()
	if !f.From.IsZero() && day.Before(startOfDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && !day.Before(startOfDay(f.To).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in a's location
func SameDay(a, b time.Time) bool {
	return startOfDay(a).Equal(startOfDay(b.In(a.Location())))
}

type CoordinateRepo interface {
	Upsert(coordinate *Coordinate) error
	Delete(id string) error
	Get(id string) (*Coordinate, error)
	List(offset, limit int) ([]*Coordinate, int, error)
}

type RecordRepo interface {
	Upsert(record *Record) error
	Delete(id string) error
	Get(id string) (*Record, error)
	List(filter RecordFilter, offset, limit int) ([]*Record, int, error)
	// ForDay returns the user's record whose day matches day, or ErrNotFound
	ForDay(userID string, day time.Time) (*Record, error)
}
