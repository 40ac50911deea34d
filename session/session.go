// Package session holds the client-side record of who is currently logged
// in: the current user, the cached user list and the token pair, kept in
// sync between memory and the token store. It is an explicitly constructed
// object handed to consumers, never ambient state.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/itchub/edu-dashboard/backend"
	apperrors "github.com/itchub/edu-dashboard/internal/errors"
	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/itchub/edu-dashboard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NetworkErrorMessage is shown when the backend cannot be reached at all
const NetworkErrorMessage = "Unable to reach the server. Please try again."

// ErrNoSession is returned by operations that need a logged-in user
var ErrNoSession = apperrors.ErrNoSession

// LoginResult is the structured outcome of a login attempt. Failures never
// escape as raw errors past this boundary.
type LoginResult struct {
	Success bool
	Error   string
}

// Session is the session context. All state access is mutex-guarded since
// Go callers, unlike the single-threaded browser runtime, may come from
// multiple goroutines.
type Session struct {
	backend backend.Backend
	store   tokenstore.Store
	log     zerolog.Logger

	mu      sync.RWMutex
	current *users.User
	users   []users.User
	loading bool
}

// Option defines a function type to modify the Session instance
type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// New constructs a session context over a backend and a token store
func New(b backend.Backend, store tokenstore.Store, options ...Option) (*Session, error) {
	if b == nil {
		return nil, errors.New("[session.New] backend is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] token store is required")
	}

	s := &Session{
		backend: b,
		store:   store,
		log:     log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Bootstrap restores session state on startup: the cached user list is
// loaded best-effort, then the current user is re-fetched from the backend
// if an access token is stored. Any failure of that fetch clears all session
// state and tokens; Bootstrap itself never fails the caller.
func (s *Session) Bootstrap(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	if raw, err := s.store.Get(tokenstore.KeyAllUsers); err == nil {
		var cached []users.User
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			s.mu.Lock()
			s.users = cached
			s.mu.Unlock()
		}
	}

	if _, err := s.store.Get(tokenstore.KeyAccessToken); err != nil {
		return // logged out, nothing to restore
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("bootstrap: could not restore session")
		s.reset()
		return
	}

	s.mu.Lock()
	s.current = user
	s.persistCurrentLocked()
	s.mu.Unlock()
}

// Login posts credentials (username or phone number) and, on success,
// persists the token pair and the normalized user record.
func (s *Session) Login(ctx context.Context, identifier, password string) LoginResult {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.backend.Login(ctx, identifier, password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return LoginResult{Error: apiErr.Message}
		}
		s.log.Error().Err(err).Msg("login failed")
		return LoginResult{Error: NetworkErrorMessage}
	}

	if err := s.store.Set(tokenstore.KeyAccessToken, resp.Access); err != nil {
		s.log.Error().Err(err).Msg("failed to persist access token")
		return LoginResult{Error: NetworkErrorMessage}
	}
	if resp.Refresh != "" {
		if err := s.store.Set(tokenstore.KeyRefreshToken, resp.Refresh); err != nil {
			s.log.Error().Err(err).Msg("failed to persist refresh token")
		}
	}

	user := resp.User
	s.mu.Lock()
	s.current = &user
	s.persistCurrentLocked()
	s.mu.Unlock()

	return LoginResult{Success: true}
}

// Logout tells the backend best-effort, then unconditionally clears the
// current user, the known user list and every stored session key.
func (s *Session) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("logout request failed, clearing session anyway")
	}
	s.reset()
}

// Close tears the in-memory state down without touching the store, so a
// later Bootstrap can restore the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.users = nil
}

// CurrentUser returns a copy of the logged-in user, or nil when logged out
func (s *Session) CurrentUser() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	user := *s.current
	return &user
}

// Users returns the known user list (local cache, not authoritative)
func (s *Session) Users() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]users.User, len(s.users))
	copy(list, s.users)
	return list
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// UpdateProfile shallow-merges partial fields into the current user and
// mirrors the result into the store and the matching known-user entry. This
// is a local-only reconciliation step, it does not call the backend.
func (s *Session) UpdateProfile(partial users.Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoSession
	}
	merged := s.current.Merge(partial)
	s.current = &merged

	for i := range s.users {
		if s.users[i].ID == merged.ID {
			s.users[i] = merged
			break
		}
	}
	s.persistCurrentLocked()
	s.persistUsersLocked()
	return nil
}

// AddUser appends to the known-user list after a create call has already
// succeeded against the backend.
func (s *Session) AddUser(user users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
	s.persistUsersLocked()
}

// UpdateUser patches the known-user entry with the given ID, and the current
// user too when the IDs match.
func (s *Session) UpdateUser(id string, partial users.Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i] = s.users[i].Merge(partial)
			break
		}
	}
	s.persistUsersLocked()

	if s.current != nil && s.current.ID == id {
		merged := s.current.Merge(partial)
		s.current = &merged
		s.persistCurrentLocked()
	}
}

// DeleteUser drops the known-user entry with the given ID
func (s *Session) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.users[:0]
	for _, user := range s.users {
		if user.ID != id {
			filtered = append(filtered, user)
		}
	}
	s.users = filtered
	s.persistUsersLocked()
}

// SetUsers replaces the known-user list wholesale, normally after an admin
// listing call.
func (s *Session) SetUsers(list []users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]users.User(nil), list...)
	s.persistUsersLocked()
}

// reset clears memory and every stored session key
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.users = nil
	if err := s.store.Clear(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear token store")
	}
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Session) persistCurrentLocked() {
	if s.current == nil {
		return
	}
	data, err := json.Marshal(s.current)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal current user")
		return
	}
	if err := s.store.Set(tokenstore.KeyCurrentUser, string(data)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist current user")
	}
}

func (s *Session) persistUsersLocked() {
	data, err := json.Marshal(s.users)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal user list")
		return
	}
	if err := s.store.Set(tokenstore.KeyAllUsers, string(data)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist user list")
	}
}
