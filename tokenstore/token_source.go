package tokenstore

import (
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*TokenSource)(nil)

// TokenSource adapts a Store to the standard oauth2.TokenSource interface so
// oauth2-aware HTTP clients can consume the persisted pair directly. The
// refresh token is carried along but never exchanged, the dashboard
// re-authenticates with a full login instead of a silent refresh.
type TokenSource struct {
	store Store
}

func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store}
}

func (ts *TokenSource) Token() (*oauth2.Token, error) {
	access, err := ts.store.Get(KeyAccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenSource.Token] no access token")
	}
	token := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if refresh, err := ts.store.Get(KeyRefreshToken); err == nil {
		token.RefreshToken = refresh
	}
	return token, nil
}
