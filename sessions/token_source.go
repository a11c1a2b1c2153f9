package sessions

import (
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"golang.org/x/oauth2"
)

type tokenSource struct {
	manager *Manager
}

// TokenSource exposes the current access token as an oauth2.TokenSource so
// an oauth2.Transport can authenticate requests from the live session. It
// never refreshes; expired tokens are handed out as they are and the
// gateway's 401 handling takes over.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{manager: m}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	session := ts.manager.Snapshot()
	if !session.IsAuthenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}
	tokenType := session.TokenType
	if tokenType == "" {
		tokenType = tokenstore.DefaultTokenType
	}
	return &oauth2.Token{
		AccessToken:  session.AccessToken,
		TokenType:    tokenType,
		RefreshToken: session.RefreshToken,
		Expiry:       session.TokenExpiry,
	}, nil
}
