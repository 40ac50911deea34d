package tokenstore_test

import (
	"testing"

	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/itchub/edu-dashboard/tokenstore/storefake"
	"github.com/stretchr/testify/require"
)

func TestTokenSourceReturnsStoredPair(t *testing.T) {
	store := storefake.NewFakeStore()
	require.NoError(t, store.Set(tokenstore.KeyAccessToken, "tok1"))
	require.NoError(t, store.Set(tokenstore.KeyRefreshToken, "ref1"))

	token, err := tokenstore.NewTokenSource(store).Token()
	require.NoError(t, err)
	require.Equal(t, "tok1", token.AccessToken)
	require.Equal(t, "ref1", token.RefreshToken)
	require.Equal(t, "Bearer", token.TokenType)
}

func TestTokenSourceWithoutRefreshToken(t *testing.T) {
	store := storefake.NewFakeStore()
	require.NoError(t, store.Set(tokenstore.KeyAccessToken, "tok1"))

	token, err := tokenstore.NewTokenSource(store).Token()
	require.NoError(t, err)
	require.Empty(t, token.RefreshToken)
}

func TestTokenSourceErrorsWhenLoggedOut(t *testing.T) {
	_, err := tokenstore.NewTokenSource(storefake.NewFakeStore()).Token()
	require.Error(t, err)
}
