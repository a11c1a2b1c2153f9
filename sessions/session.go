// Package sessions holds the in-memory authentication session. All changes go
// through Reduce, a pure function over the transition table; Manager owns the
// live session and carries out the storage effects Reduce asks for.
package sessions

import (
	"slices"
	"time"

	"github.com/jrsteele09/go-attendance-admin/users"
)

type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
)

// Session is the signed-in context. IsLoading and Error are transient and
// never persisted.
type Session struct {
	Status       Status
	User         *users.User
	AccessToken  string
	RefreshToken string
	TokenType    string
	TokenExpiry  time.Time
	UserType     string
	IsLoading    bool
	Error        string
}

// Anonymous is the empty, signed-out session
func Anonymous() Session {
	return Session{Status: StatusAnonymous}
}

// IsAuthenticated is true iff both a user and an access token are present
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Clone returns a copy that shares no memory with s
func (s Session) Clone() Session {
	if s.User != nil {
		user := *s.User
		user.Permissions = slices.Clone(s.User.Permissions)
		s.User = &user
	}
	return s
}

// IsExpired reports whether an access token expiring at expiry must be
// treated as invalid at now. A zero expiry is always expired.
func IsExpired(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return true
	}
	return !now.Before(expiry)
}

// NeedsRefresh is IsExpired with the expiry brought forward by buffer
func NeedsRefresh(expiry, now time.Time, buffer time.Duration) bool {
	if expiry.IsZero() || buffer <= 0 {
		return IsExpired(expiry, now)
	}
	return IsExpired(expiry.Add(-buffer), now)
}
