package kvfake

import (
	"context"
	"maps"
	"sync"
)

// FakeBackend is an in-memory tokenstore.Backend. Fail makes every
// subsequent call return the given error until it is reset with nil.
type FakeBackend struct {
	values map[string]string
	err    error
	lock   sync.RWMutex
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		values: make(map[string]string),
	}
}

func (b *FakeBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.err != nil {
		return "", false, b.err
	}
	value, ok := b.values[key]
	return value, ok, nil
}

func (b *FakeBackend) Set(_ context.Context, key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.err != nil {
		return b.err
	}
	b.values[key] = value
	return nil
}

func (b *FakeBackend) Delete(_ context.Context, key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.err != nil {
		return b.err
	}
	delete(b.values, key)
	return nil
}

func (b *FakeBackend) Fail(err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.err = err
}

// Snapshot returns a copy of everything stored
func (b *FakeBackend) Snapshot() map[string]string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return maps.Clone(b.values)
}
