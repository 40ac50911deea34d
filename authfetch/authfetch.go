// Package authfetch wraps outbound HTTP calls to the dashboard API. It
// attaches the stored bearer token to every request and owns the forced
// session teardown on authorization failure.
package authfetch

import (
	"context"
	"io"
	"net/http"

	apperrors "github.com/itchub/edu-dashboard/internal/errors"
	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

// ErrSessionExpired is returned after a 401 response. The store has already
// been cleared and the OnSessionExpired hook invoked by the time the caller
// sees it, the error only stops calling code from proceeding as if the
// request succeeded.
var ErrSessionExpired = apperrors.ErrSessionExpired

// Options holds the per-request parameters. ContentType overrides the JSON
// default; multipart bodies must pass the writer's FormDataContentType so
// the boundary survives.
type Options struct {
	Method      string
	Body        io.Reader
	ContentType string
	Header      map[string]string
}

// Client issues authenticated requests against a base URL
type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            tokenstore.Store
	onSessionExpired func()
	log              zerolog.Logger
}

// Option defines a function type to modify the Client instance
type Option func(*Client)

// WithHTTPClient replaces the default transport (e.g. to set a timeout)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithOnSessionExpired registers the hook invoked after forced teardown on a
// 401. The hosting application decides what "go to login" means, the wrapper
// itself never navigates.
func WithOnSessionExpired(hook func()) Option {
	return func(c *Client) {
		c.onSessionExpired = hook
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// New creates an authenticated request wrapper around the given base URL and
// token store.
func New(baseURL string, store tokenstore.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[authfetch.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[authfetch.New] token store is required")
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		store:      store,
		log:        log.Logger,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do issues a request against a relative API endpoint.
//
// Status handling follows the session contract: 401 tears the session down
// and returns ErrSessionExpired; 500 is logged but handed back to the caller
// untouched; every other status (2xx and non-401 4xx) is returned as-is for
// the caller to interpret. Transport errors are logged and wrapped, never
// retried.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, opts.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] new request")
	}

	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	} else if opts.Body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	for key, value := range opts.Header {
		req.Header.Set(key, value)
	}

	if token, err := c.store.Get(tokenstore.KeyAccessToken); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("fetch error")
		return nil, errors.Wrap(err, "[Client.Do] http request")
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		_ = resp.Body.Close()
		c.expireSession(endpoint)
		return nil, ErrSessionExpired
	case http.StatusInternalServerError:
		c.log.Error().Str("endpoint", endpoint).Msg("server error, please try again later")
	}
	return resp, nil
}

// expireSession clears every session key and notifies the host application
func (c *Client) expireSession(endpoint string) {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear token store")
	}
	c.log.Warn().Str("endpoint", endpoint).Msg("unauthorized, session terminated")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// BaseURL returns the configured API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}
