package refresh_test

import (
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-attendance-admin/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T, expiry time.Duration) (*refresh.Manager, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })

	manager, err := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), expiry, 32)
	require.NoError(t, err)
	return manager, &now
}

func TestCreateAndValidate(t *testing.T) {
	manager, _ := setupManager(t, time.Hour)

	token, err := manager.Create("u-1")
	require.NoError(t, err)
	require.Len(t, token, 64)

	stored, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", stored.UserID)

	_, err = manager.Validate("unknown")
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestOneTokenPerUser(t *testing.T) {
	manager, _ := setupManager(t, time.Hour)

	first, err := manager.Create("u-1")
	require.NoError(t, err)
	second, err := manager.Create("u-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = manager.Validate(first)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	_, err = manager.Validate(second)
	require.NoError(t, err)

	manager.RevokeUser("u-1")
	_, err = manager.Validate(second)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestExpiredTokenIsDeleted(t *testing.T) {
	manager, now := setupManager(t, time.Hour)
	token, err := manager.Create("u-1")
	require.NoError(t, err)

	*now = now.Add(61 * time.Minute)
	_, err = manager.Validate(token)
	require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)

	_, err = manager.Get(token)
	require.Error(t, err)
}

func TestZeroExpiryNeverExpires(t *testing.T) {
	manager, now := setupManager(t, 0)
	token, err := manager.Create("u-1")
	require.NoError(t, err)

	*now = now.Add(365 * 24 * time.Hour)
	_, err = manager.Validate(token)
	require.NoError(t, err)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := refresh.NewManager(nil, time.Hour, 32)
	require.Error(t, err)
	_, err = refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour, 8)
	require.Error(t, err)
}

func TestPurgeExpired(t *testing.T) {
	manager, now := setupManager(t, time.Hour)
	old, err := manager.Create("u-1")
	require.NoError(t, err)

	*now = now.Add(45 * time.Minute)
	fresh, err := manager.Create("u-2")
	require.NoError(t, err)

	*now = now.Add(30 * time.Minute)
	removed, err := manager.PurgeExpired()
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = manager.Get(old)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = manager.Validate(fresh)
	require.NoError(t, err)
}
