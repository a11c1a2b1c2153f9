package jwt_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-attendance-admin/token/jwt"
	"github.com/jrsteele09/go-attendance-admin/token/keys"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/stretchr/testify/require"
)

var testAccount = &users.Account{Employee: users.Employee{ID: "u-1", Email: "a@b.com", Role: users.RoleAdmin}}

func newCreator(t *testing.T, issuer, secret string) *jwt.Creator {
	t.Helper()
	signer, err := keys.NewHMACSigner("test", secret)
	require.NoError(t, err)
	creator, err := jwt.NewCreator(issuer, 15*time.Minute, signer)
	require.NoError(t, err)
	return creator
}

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	previous := jwt.NowTimeFunc
	jwt.NowTimeFunc = func() time.Time { return at }
	t.Cleanup(func() { jwt.NowTimeFunc = previous })
}

func TestCreateAndVerify(t *testing.T) {
	issued := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	pinClock(t, issued)
	creator := newCreator(t, "issuer", "secret")

	access, err := creator.CreateAccessToken(testAccount)
	require.NoError(t, err)
	require.Equal(t, int64(900), access.ExpiresIn)
	require.Equal(t, issued.Add(15*time.Minute), access.ExpiresAt)

	claims, err := creator.Verify(access.Token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.Subject)
	require.Equal(t, "a@b.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, access.ID, claims.ID)

	parsed, _, err := jwtlib.NewParser().ParseUnverified(access.Token, &jwt.Claims{})
	require.NoError(t, err)
	require.Equal(t, "test", parsed.Header["kid"])
}

func TestVerifyRejects(t *testing.T) {
	issued := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	pinClock(t, issued)
	creator := newCreator(t, "issuer", "secret")
	access, err := creator.CreateAccessToken(testAccount)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		pinClock(t, issued.Add(16*time.Minute))
		_, err := creator.Verify(access.Token)
		require.ErrorIs(t, err, jwtlib.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := newCreator(t, "issuer", "other").Verify(access.Token)
		require.ErrorIs(t, err, jwtlib.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := newCreator(t, "someone-else", "secret").Verify(access.Token)
		require.ErrorIs(t, err, jwtlib.ErrTokenInvalidIssuer)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := creator.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtlib.ErrTokenMalformed)
	})
}

func TestNewCreatorValidation(t *testing.T) {
	_, err := jwt.NewCreator("issuer", time.Minute, nil)
	require.Error(t, err)

	signer, err := keys.NewHMACSigner("", "secret")
	require.NoError(t, err)
	_, err = jwt.NewCreator("issuer", 0, signer)
	require.Error(t, err)

	_, err = keys.NewHMACSigner("", "")
	require.Error(t, err)
}
