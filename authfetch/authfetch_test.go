package authfetch_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchub/edu-dashboard/authfetch"
	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/itchub/edu-dashboard/tokenstore/storefake"
	"github.com/stretchr/testify/require"
)

type wrapperFixture struct {
	store   *storefake.FakeStore
	server  *httptest.Server
	client  *authfetch.Client
	expired bool
}

func setupWrapper(t *testing.T, handler http.HandlerFunc) *wrapperFixture {
	t.Helper()

	f := &wrapperFixture{store: storefake.NewFakeStore()}
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)

	client, err := authfetch.New(f.server.URL, f.store,
		authfetch.WithOnSessionExpired(func() { f.expired = true }))
	require.NoError(t, err)
	f.client = client
	return f
}

func TestDoAttachesStoredBearerToken(t *testing.T) {
	var gotAuth string
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})
	require.NoError(t, f.store.Set(tokenstore.KeyAccessToken, "tok1"))

	resp, err := f.client.Do(context.Background(), "/users/me/", authfetch.Options{})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer tok1", gotAuth)
}

func TestDoOmitsAuthorizationWhenLoggedOut(t *testing.T) {
	var gotAuth string
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})

	resp, err := f.client.Do(context.Background(), "/users/login/", authfetch.Options{})
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, gotAuth)
}

func TestDoDefaultsToJSONContentType(t *testing.T) {
	var gotContentType string
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	})

	resp, err := f.client.Do(context.Background(), "/users/login/", authfetch.Options{
		Method: http.MethodPost,
		Body:   bytes.NewReader([]byte(`{}`)),
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "application/json", gotContentType)
}

func TestDoKeepsMultipartContentType(t *testing.T) {
	var gotContentType string
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	})

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("username", "aziz"))
	require.NoError(t, writer.Close())

	resp, err := f.client.Do(context.Background(), "/users/users/", authfetch.Options{
		Method:      http.MethodPost,
		Body:        buf,
		ContentType: writer.FormDataContentType(),
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, writer.FormDataContentType(), gotContentType, "the boundary must survive")
}

func TestDoUnauthorizedTearsDownSession(t *testing.T) {
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.NoError(t, f.store.Set(tokenstore.KeyAccessToken, "stale"))
	require.NoError(t, f.store.Set(tokenstore.KeyRefreshToken, "stale"))
	require.NoError(t, f.store.Set(tokenstore.KeyCurrentUser, `{"id":"u1"}`))

	_, err := f.client.Do(context.Background(), "/users/me/", authfetch.Options{})
	require.ErrorIs(t, err, authfetch.ErrSessionExpired)
	require.True(t, f.expired, "the session-expired hook fires")
	require.False(t, f.store.Has(tokenstore.KeyAccessToken))
	require.False(t, f.store.Has(tokenstore.KeyRefreshToken))
	require.False(t, f.store.Has(tokenstore.KeyCurrentUser))
}

func TestDoServerErrorLeavesSessionAlone(t *testing.T) {
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.NoError(t, f.store.Set(tokenstore.KeyAccessToken, "tok1"))

	resp, err := f.client.Do(context.Background(), "/users/statistics/", authfetch.Options{})
	require.NoError(t, err, "500 responses are handed back to the caller")
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.True(t, f.store.Has(tokenstore.KeyAccessToken), "no forced logout on 500")
	require.False(t, f.expired)
}

func TestDoOtherClientErrorsPassThrough(t *testing.T) {
	f := setupWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	resp, err := f.client.Do(context.Background(), "/users/login/", authfetch.Options{Method: http.MethodPost})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, f.expired)
}

func TestDoTransportErrorIsWrapped(t *testing.T) {
	store := storefake.NewFakeStore()
	client, err := authfetch.New("http://127.0.0.1:1", store)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), "/users/me/", authfetch.Options{})
	require.Error(t, err)
	require.NotErrorIs(t, err, authfetch.ErrSessionExpired)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := authfetch.New("", storefake.NewFakeStore())
	require.Error(t, err)
	_, err = authfetch.New("http://localhost", nil)
	require.Error(t, err)
}
