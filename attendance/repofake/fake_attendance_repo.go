package fakeattendancerepo

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-attendance-admin/attendance"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/internal/utils"
)

var (
	_ attendance.CoordinateRepo = (*FakeCoordinateRepo)(nil)
	_ attendance.RecordRepo     = (*FakeRecordRepo)(nil)
)

type FakeCoordinateRepo struct {
	coordinates map[string]*attendance.Coordinate
	lock        sync.RWMutex
}

func NewFakeCoordinateRepo() attendance.CoordinateRepo {
	return &FakeCoordinateRepo{
		coordinates: make(map[string]*attendance.Coordinate),
	}
}

func (cr *FakeCoordinateRepo) Upsert(coordinate *attendance.Coordinate) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if coordinate.ID == "" {
		coordinate.ID = uuid.New().String()
	}
	cr.coordinates[coordinate.ID] = coordinate
	return nil
}

func (cr *FakeCoordinateRepo) Delete(id string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if _, ok := cr.coordinates[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(cr.coordinates, id)
	return nil
}

func (cr *FakeCoordinateRepo) Get(id string) (*attendance.Coordinate, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	c, ok := cr.coordinates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (cr *FakeCoordinateRepo) List(offset, limit int) ([]*attendance.Coordinate, int, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	list := make([]*attendance.Coordinate, 0, len(cr.coordinates))
	for _, c := range cr.coordinates {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return utils.Paginate(list, offset, limit), len(list), nil
}

type FakeRecordRepo struct {
	records map[string]*attendance.Record
	lock    sync.RWMutex
}

func NewFakeRecordRepo() attendance.RecordRepo {
	return &FakeRecordRepo{
		records: make(map[string]*attendance.Record),
	}
}

func (rr *FakeRecordRepo) Upsert(record *attendance.Record) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	rr.records[record.ID] = record
	return nil
}

func (rr *FakeRecordRepo) Delete(id string) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.records[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(rr.records, id)
	return nil
}

func (rr *FakeRecordRepo) Get(id string) (*attendance.Record, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	r, ok := rr.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

// List returns matching records, most recent day first
func (rr *FakeRecordRepo) List(filter attendance.RecordFilter, offset, limit int) ([]*attendance.Record, int, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	list := make([]*attendance.Record, 0, len(rr.records))
	for _, r := range rr.records {
		if filter.Matches(r) {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		di, dj := list[i].Day(), list[j].Day()
		if di.Equal(dj) {
			return list[i].ID < list[j].ID
		}
		return di.After(dj)
	})
	return utils.Paginate(list, offset, limit), len(list), nil
}

func (rr *FakeRecordRepo) ForDay(userID string, day time.Time) (*attendance.Record, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	for _, r := range rr.records {
		if r.UserID == userID && attendance.SameDay(day, r.Day()) {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
