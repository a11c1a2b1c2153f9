package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store is the persistence the Manager needs. *tokenstore.Store satisfies it.
type Store interface {
	Load(ctx context.Context) *tokenstore.Record
	Write(ctx context.Context, record tokenstore.Record)
	WriteAccessToken(ctx context.Context, accessToken string, expiry time.Time)
	UpdateUser(ctx context.Context, user users.User)
	Clear(ctx context.Context)
}

// Observer is called after every accepted transition with the event and
// the resulting session.
type Observer func(event Event, session Session)

// Manager owns the live session. Dispatches are serialized and each
// transition's storage effect completes before the next dispatch starts.
type Manager struct {
	store     Store
	now       func() time.Time
	logger    zerolog.Logger
	observers []Observer

	lock    sync.Mutex
	session Session
}

type Option func(*Manager)

func WithNowTime(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, observer)
	}
}

func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[sessions.NewManager] store is required")
	}
	m := &Manager{
		store:   store,
		now:     NowTimeFunc,
		logger:  log.Logger,
		session: Anonymous(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Initialize restores a stored, unexpired session. An expired or partial
// record is cleared and the session stays anonymous.
func (m *Manager) Initialize(ctx context.Context) (Session, error) {
	return m.Dispatch(ctx, InitializeAuth{Record: m.store.Load(ctx)})
}

// Dispatch runs event through Reduce and applies the resulting effect. A
// rejected event leaves both the session and storage untouched.
func (m *Manager) Dispatch(ctx context.Context, event Event) (Session, error) {
	m.lock.Lock()
	next, effect, err := Reduce(m.session, event, m.now())
	if err != nil {
		current := m.session.Clone()
		m.lock.Unlock()
		m.logger.Debug().Err(err).Str("event", event.String()).Msg("[Manager.Dispatch] event rejected")
		return current, err
	}
	m.apply(ctx, next, effect)
	m.session = next
	snapshot := next.Clone()
	m.lock.Unlock()

	m.logger.Debug().
		Str("event", event.String()).
		Str("status", string(snapshot.Status)).
		Str("effect", effect.String()).
		Msg("[Manager.Dispatch] session updated")

	for _, observer := range m.observers {
		observer(event, snapshot.Clone())
	}
	return snapshot, nil
}

func (m *Manager) apply(ctx context.Context, next Session, effect Effect) {
	switch effect {
	case EffectPersist:
		m.store.Write(ctx, tokenstore.Record{
			AccessToken:  next.AccessToken,
			RefreshToken: next.RefreshToken,
			TokenExpiry:  next.TokenExpiry,
			TokenType:    next.TokenType,
			User:         *next.User,
		})
	case EffectPersistAccess:
		m.store.WriteAccessToken(ctx, next.AccessToken, next.TokenExpiry)
	case EffectPersistUser:
		m.store.UpdateUser(ctx, *next.User)
	case EffectClear:
		m.store.Clear(ctx)
	}
}

// Snapshot returns a copy of the current session
func (m *Manager) Snapshot() Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.Clone()
}

func (m *Manager) AccessToken() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.RefreshToken
}

func (m *Manager) IsAuthenticated() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.IsAuthenticated()
}

// IsTokenExpired reports whether the current access token is expired now
func (m *Manager) IsTokenExpired() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return IsExpired(m.session.TokenExpiry, m.now())
}

// NeedsRefresh reports whether the access token expires within buffer
func (m *Manager) NeedsRefresh(buffer time.Duration) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.IsAuthenticated() && NeedsRefresh(m.session.TokenExpiry, m.now(), buffer)
}

func (m *Manager) Now() time.Time {
	return m.now()
}
