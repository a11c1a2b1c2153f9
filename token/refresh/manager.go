package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	expiry time.Duration
	length int
}

// NewManager creates a refresh token manager. length is the number of random
// bytes in a token; expiry is how long a token stays valid after issue.
func NewManager(repo Repo, expiry time.Duration, length int) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[refresh.NewManager] repo is required")
	}
	if length < 16 {
		return nil, errors.New("[refresh.NewManager] token length must be at least 16 bytes")
	}
	return &Manager{
		repo:   repo,
		expiry: expiry,
		length: length,
	}, nil
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID string) (string, error) {
	// Delete existing refresh token for this user (single refresh token per user)
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored token if it exists and has not expired. An
// expired token is deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// RevokeUser removes whatever refresh token the user holds
func (m *Manager) RevokeUser(userID string) {
	if rt, err := m.repo.GetByUserID(userID); err == nil && rt != nil {
		_ = m.repo.Delete(rt.Token)
	}
}

// IsExpired reports whether the token is older than the configured expiry. A zero expiry never expires.
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	if m.expiry == 0 {
		return false
	}
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}

// PurgeExpired deletes every token past its expiry and returns how many went
func (m *Manager) PurgeExpired() (int, error) {
	if m.expiry == 0 {
		return 0, nil
	}
	expired, err := m.repo.IssuedBefore(NowTimeFunc().Add(-m.expiry))
	if err != nil {
		return 0, fmt.Errorf("[Manager.PurgeExpired] %w", err)
	}
	for _, rt := range expired {
		if err := m.repo.Delete(rt.Token); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return 0, fmt.Errorf("[Manager.PurgeExpired] %w", err)
		}
	}
	return len(expired), nil
}
