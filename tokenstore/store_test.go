package tokenstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/kvfake"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testUser = users.User{
	ID:          "u-1",
	Email:       "a@b.com",
	Name:        "Alice",
	Role:        "admin",
	Permissions: []string{"users:write"},
}

func setupStore(t *testing.T, now time.Time) (*tokenstore.Store, *kvfake.FakeBackend) {
	t.Helper()
	backend := kvfake.NewFakeBackend()
	store, err := tokenstore.New(backend,
		tokenstore.WithNowTime(func() time.Time { return now }),
		tokenstore.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	return store, backend
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := tokenstore.New(nil)
	require.Error(t, err)
}

func TestSave_ComputesExpiryAndWritesAllKeys(t *testing.T) {
	ctx := context.Background()
	store, backend := setupStore(t, time.UnixMilli(1000))

	record := store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600}, testUser)
	require.Equal(t, int64(3601000), record.TokenExpiry.UnixMilli())

	values := backend.Snapshot()
	require.Equal(t, "A1", values[tokenstore.KeyAccessToken])
	require.Equal(t, "R1", values[tokenstore.KeyRefreshToken])
	require.Equal(t, "3601000", values[tokenstore.KeyTokenExpiry])
	require.Equal(t, tokenstore.DefaultTokenType, values[tokenstore.KeyTokenType])
	require.JSONEq(t, `{"id":"u-1","email":"a@b.com","name":"Alice","role":"admin","permissions":["users:write"]}`, values[tokenstore.KeyUserData])

	loaded := store.Load(ctx)
	require.NotNil(t, loaded)
	require.Equal(t, "A1", loaded.AccessToken)
	require.Equal(t, "R1", loaded.RefreshToken)
	require.Equal(t, int64(3601000), loaded.TokenExpiry.UnixMilli())
	require.Equal(t, testUser, loaded.User)
}

func TestLoad_PartialRecordIsNoSession(t *testing.T) {
	ctx := context.Background()

	for _, missing := range []string{
		tokenstore.KeyAccessToken,
		tokenstore.KeyRefreshToken,
		tokenstore.KeyTokenExpiry,
		tokenstore.KeyUserData,
	} {
		t.Run(missing, func(t *testing.T) {
			store, backend := setupStore(t, time.UnixMilli(1000))
			store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
			require.NoError(t, backend.Delete(ctx, missing))
			require.Nil(t, store.Load(ctx))
		})
	}

	t.Run("token type is optional", func(t *testing.T) {
		store, backend := setupStore(t, time.UnixMilli(1000))
		store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
		require.NoError(t, backend.Delete(ctx, tokenstore.KeyTokenType))
		record := store.Load(ctx)
		require.NotNil(t, record)
		require.Equal(t, tokenstore.DefaultTokenType, record.TokenType)
	})
}

func TestLoad_MalformedValuesAreNoSession(t *testing.T) {
	ctx := context.Background()

	t.Run("expiry", func(t *testing.T) {
		store, backend := setupStore(t, time.UnixMilli(1000))
		store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
		require.NoError(t, backend.Set(ctx, tokenstore.KeyTokenExpiry, "tomorrow"))
		require.Nil(t, store.Load(ctx))
	})

	t.Run("user", func(t *testing.T) {
		store, backend := setupStore(t, time.UnixMilli(1000))
		store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
		require.NoError(t, backend.Set(ctx, tokenstore.KeyUserData, "{not json"))
		require.Nil(t, store.Load(ctx))
	})
}

func TestUpdateAccessToken_KeepsRefreshTokenAndUser(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1000)
	backend := kvfake.NewFakeBackend()
	store, err := tokenstore.New(backend, tokenstore.WithNowTime(func() time.Time { return now }), tokenstore.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
	now = time.UnixMilli(50_000)
	expiry := store.UpdateAccessToken(ctx, "A2", 120)
	require.Equal(t, int64(170_000), expiry.UnixMilli())

	record := store.Load(ctx)
	require.NotNil(t, record)
	require.Equal(t, "A2", record.AccessToken)
	require.Equal(t, "R1", record.RefreshToken)
	require.Equal(t, expiry, record.TokenExpiry)
	require.Equal(t, testUser, record.User)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t, time.UnixMilli(1000))
	store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)

	updated := testUser
	updated.Name = "Alice Smith"
	store.UpdateUser(ctx, updated)

	record := store.Load(ctx)
	require.NotNil(t, record)
	require.Equal(t, "Alice Smith", record.User.Name)
	require.Equal(t, "A1", record.AccessToken)
}

func TestClear_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, backend := setupStore(t, time.UnixMilli(1000))
	store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)

	store.Clear(ctx)
	require.Empty(t, backend.Snapshot())
	require.Nil(t, store.Load(ctx))

	store.Clear(ctx)
	require.Empty(t, backend.Snapshot())
}

func TestStorageFailure_DegradesToNoSession(t *testing.T) {
	ctx := context.Background()
	store, backend := setupStore(t, time.UnixMilli(1000))
	backend.Fail(errors.New("quota exceeded"))

	require.NotPanics(t, func() {
		store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
		store.Clear(ctx)
	})
	require.Nil(t, store.Load(ctx))
	require.Empty(t, store.AuthHeader(ctx))

	backend.Fail(nil)
	require.Nil(t, store.Load(ctx))
}

func TestAuthHeader(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t, time.UnixMilli(1000))
	require.Empty(t, store.AuthHeader(ctx))

	store.Save(ctx, tokenstore.Tokens{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 60}, testUser)
	require.Equal(t, "Bearer A1", store.AuthHeader(ctx))
}
