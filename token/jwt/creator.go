package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-attendance-admin/token/keys"
	"github.com/jrsteele09/go-attendance-admin/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the access token claims issued by the development API
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtlib.RegisteredClaims
}

// AccessToken is a signed token and its lifetime in seconds
type AccessToken struct {
	Token     string
	ExpiresIn int64
	ID        string
	ExpiresAt time.Time
}

// Creator issues and verifies access tokens
type Creator struct {
	issuer string
	expiry time.Duration
	signer keys.Signer
}

func NewCreator(issuer string, expiry time.Duration, signer keys.Signer) (*Creator, error) {
	if signer == nil {
		return nil, errors.New("[jwt.NewCreator] signer is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[jwt.NewCreator] expiry must be positive")
	}
	return &Creator{issuer: issuer, expiry: expiry, signer: signer}, nil
}

// CreateAccessToken creates an access token for the account
func (c *Creator) CreateAccessToken(account *users.Account) (*AccessToken, error) {
	now := NowTimeFunc()
	expiresAt := now.Add(c.expiry)
	id := uuid.New().String()

	claims := Claims{
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   account.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			ID:        id,
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("[Creator.CreateAccessToken] %w", err)
	}
	return &AccessToken{
		Token:     signed,
		ExpiresIn: int64(c.expiry / time.Second),
		ID:        id,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature, issuer and expiry of an access token
func (c *Creator) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, c.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwtlib.WithIssuer(c.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("[Creator.Verify] %w", err)
	}
	return claims, nil
}
