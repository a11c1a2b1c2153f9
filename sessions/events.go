package sessions

import (
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/users"
)

// Event is a request to change the session
type Event interface {
	String() string
}

type LoginStart struct{}

// LoginSuccess carries a login response. ExpiresIn is in seconds.
type LoginSuccess struct {
	User         users.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
	UserType     string
}

type LoginFailure struct {
	Message string
}

type RefreshStart struct{}

type RefreshSuccess struct {
	AccessToken string
	ExpiresIn   int64
}

type RefreshFailure struct {
	Message string
}

type Logout struct{}

// InitializeAuth restores the session from a record loaded from storage.
// A nil Record means nothing was stored.
type InitializeAuth struct {
	Record *tokenstore.Record
}

type ClearError struct{}

// UpdateUser merges the non-empty fields of Patch into the signed-in profile
type UpdateUser struct {
	Patch users.User
}

func (LoginStart) String() string     { return "loginStart" }
func (LoginSuccess) String() string   { return "loginSuccess" }
func (LoginFailure) String() string   { return "loginFailure" }
func (RefreshStart) String() string   { return "refreshStart" }
func (RefreshSuccess) String() string { return "refreshSuccess" }
func (RefreshFailure) String() string { return "refreshFailure" }
func (Logout) String() string         { return "logout" }
func (InitializeAuth) String() string { return "initializeAuth" }
func (ClearError) String() string     { return "clearError" }
func (UpdateUser) String() string     { return "updateUser" }

// Effect is the storage work a transition requires
type Effect int

const (
	EffectNone          Effect = iota
	EffectPersist              // write the whole record
	EffectPersistAccess        // write access token and expiry only
	EffectPersistUser          // write the profile only
	EffectClear                // delete every stored key
)

func (e Effect) String() string {
	switch e {
	case EffectPersist:
		return "persist"
	case EffectPersistAccess:
		return "persistAccess"
	case EffectPersistUser:
		return "persistUser"
	case EffectClear:
		return "clear"
	default:
		return "none"
	}
}
