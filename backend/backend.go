// Package backend defines the capability port between the session layer and
// whatever actually stores users: the remote REST API (backend/httpapi) or
// the embedded fixture database (backend/localfixture). The two are
// interchangeable and selected at startup.
package backend

import (
	"context"

	"github.com/itchub/edu-dashboard/users"
)

// LoginResponse is what a successful credential check yields: a token pair
// (refresh may be absent) and the normalized user payload.
type LoginResponse struct {
	Access  string
	Refresh string
	User    users.User
}

// UserPage is one page of the admin user listing
type UserPage struct {
	Count    int
	Next     string
	Previous string
	Results  []users.User
}

// NewUser carries the admin create-user form
type NewUser struct {
	Username    string
	Surname     string
	Lastname    string
	MemberID    string
	PhoneNumber string
	TgUsername  string
	Level       users.Level
	Course      string
	Direction   string
	Password    string
	Photo       *PhotoUpload
}

// UserPatch is a partial update; a photo upload forces the multipart form
type UserPatch struct {
	users.Partial
	Photo *PhotoUpload
}

// PhotoUpload is an avatar file attached to a create or update call
type PhotoUpload struct {
	Filename string
	Content  []byte
}

// Statistics is the aggregate snapshot behind the statistics view
type Statistics struct {
	TotalUsers     int `json:"total_users"`
	TotalStudents  int `json:"total_students"`
	ActiveStudents int `json:"active_students"`
	TotalCoins     int `json:"total_coins"`
}

// Backend is the storage port.
//
// Identity for Me comes from the token store, not from parameters, so both
// implementations behave like the browser client did: whoever holds the
// access token is the current user. Business failures surface as *APIError
// so callers can show the parsed message; a 401 anywhere surfaces as
// ErrSessionExpired with the session already torn down.
type Backend interface {
	Login(ctx context.Context, identifier, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*users.User, error)
	ListUsers(ctx context.Context, limit, offset int) (*UserPage, error)
	CreateUser(ctx context.Context, newUser NewUser) (*users.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*users.User, error)
	DeleteUser(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, newPassword, confirmPassword string) error
	Statistics(ctx context.Context) (*Statistics, error)
}
