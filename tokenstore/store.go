// Package tokenstore is the durable key/value persistence for the client
// session: token pair plus cached user JSON, surviving process restarts the
// way localStorage survives page reloads. Expiry is never checked here, an
// expired token is only discovered through a failed request.
package tokenstore

import apperrors "github.com/itchub/edu-dashboard/internal/errors"

// Fixed storage keys. The names match what the browser build of the
// dashboard kept in localStorage so a migrated profile stays readable.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCurrentUser  = "currentUser"
	KeyAllUsers     = "allUsers"
)

// SessionKeys lists every key that belongs to a login session
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyCurrentUser, KeyAllUsers}

// ErrKeyNotFound is returned by Get for absent keys
var ErrKeyNotFound = apperrors.ErrKeyNotFound

// Store is the persistence port for session state
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Remove(key string) error
	// Clear removes every session key. Used on logout and on forced
	// session teardown after a 401.
	Clear() error
}
