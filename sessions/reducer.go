package sessions

import (
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-attendance-admin/internal/utils"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
)

var (
	// ErrInvalidTransition is returned when an event is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidEvent is returned when an event is missing data the transition needs
	ErrInvalidEvent = errors.New("invalid session event")
)

// Reduce applies event to current at time now and returns the next session
// with the storage effect it requires. On error the returned session is
// current, unchanged, and the effect is EffectNone.
func Reduce(current Session, event Event, now time.Time) (Session, Effect, error) {
	if current.Status == "" {
		current.Status = StatusAnonymous
	}

	switch e := event.(type) {
	case LoginStart:
		if current.Status == StatusAuthenticating {
			return rejected(current, event)
		}
		next := current.Clone()
		next.Status = StatusAuthenticating
		next.IsLoading = true
		next.Error = ""
		return next, EffectNone, nil

	case LoginSuccess:
		if current.Status != StatusAuthenticating {
			return rejected(current, event)
		}
		if e.AccessToken == "" || e.RefreshToken == "" {
			return current, EffectNone, fmt.Errorf("%w: %s requires access and refresh tokens", ErrInvalidEvent, event)
		}
		user := e.User
		user.UserType = utils.FirstNonEmpty(e.UserType, user.UserType)
		next := Session{
			Status:       StatusAuthenticated,
			User:         &user,
			AccessToken:  e.AccessToken,
			RefreshToken: e.RefreshToken,
			TokenType:    e.TokenType,
			TokenExpiry:  tokenstore.ExpiryAfter(now, e.ExpiresIn),
			UserType:     user.UserType,
		}
		return next.Clone(), EffectPersist, nil

	case LoginFailure:
		if current.Status != StatusAuthenticating {
			return rejected(current, event)
		}
		next := Anonymous()
		next.Error = e.Message
		return next, EffectClear, nil

	case RefreshStart:
		if current.Status != StatusAuthenticated {
			return rejected(current, event)
		}
		next := current.Clone()
		next.IsLoading = true
		return next, EffectNone, nil

	case RefreshSuccess:
		if current.Status != StatusAuthenticated {
			return rejected(current, event)
		}
		if e.AccessToken == "" {
			return current, EffectNone, fmt.Errorf("%w: %s requires an access token", ErrInvalidEvent, event)
		}
		next := current.Clone()
		next.AccessToken = e.AccessToken
		next.TokenExpiry = tokenstore.ExpiryAfter(now, e.ExpiresIn)
		next.IsLoading = false
		next.Error = ""
		return next, EffectPersistAccess, nil

	case RefreshFailure:
		next := Anonymous()
		next.Error = e.Message
		return next, EffectClear, nil

	case Logout:
		return Anonymous(), EffectClear, nil

	case InitializeAuth:
		if current.Status != StatusAnonymous {
			return rejected(current, event)
		}
		if e.Record == nil || IsExpired(e.Record.TokenExpiry, now) {
			return Anonymous(), EffectClear, nil
		}
		user := e.Record.User
		next := Session{
			Status:       StatusAuthenticated,
			User:         &user,
			AccessToken:  e.Record.AccessToken,
			RefreshToken: e.Record.RefreshToken,
			TokenType:    e.Record.TokenType,
			TokenExpiry:  e.Record.TokenExpiry,
			UserType:     user.UserType,
		}
		return next.Clone(), EffectNone, nil

	case ClearError:
		next := current.Clone()
		next.Error = ""
		return next, EffectNone, nil

	case UpdateUser:
		if current.Status != StatusAuthenticated || current.User == nil {
			return rejected(current, event)
		}
		next := current.Clone()
		merged := next.User.Merge(e.Patch)
		next.User = &merged
		return next, EffectPersistUser, nil
	}

	return current, EffectNone, fmt.Errorf("%w: unknown event %T", ErrInvalidEvent, event)
}

func rejected(current Session, event Event) (Session, Effect, error) {
	return current, EffectNone, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, current.Status)
}
