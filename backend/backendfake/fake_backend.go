package backendfake

import (
	"context"

	"github.com/itchub/edu-dashboard/backend"
	apperrors "github.com/itchub/edu-dashboard/internal/errors"
	"github.com/itchub/edu-dashboard/users"
)

var _ backend.Backend = (*FakeBackend)(nil)

// FakeBackend is a function-field stub of the backend port for tests. Calls
// without a configured function return ErrNotFound.
type FakeBackend struct {
	LoginFunc          func(ctx context.Context, identifier, password string) (*backend.LoginResponse, error)
	LogoutFunc         func(ctx context.Context) error
	MeFunc             func(ctx context.Context) (*users.User, error)
	ListUsersFunc      func(ctx context.Context, limit, offset int) (*backend.UserPage, error)
	CreateUserFunc     func(ctx context.Context, newUser backend.NewUser) (*users.User, error)
	UpdateUserFunc     func(ctx context.Context, id string, patch backend.UserPatch) (*users.User, error)
	DeleteUserFunc     func(ctx context.Context, id string) error
	ChangePasswordFunc func(ctx context.Context, id, newPassword, confirmPassword string) error
	StatisticsFunc     func(ctx context.Context) (*backend.Statistics, error)
}

func (f *FakeBackend) Login(ctx context.Context, identifier, password string) (*backend.LoginResponse, error) {
	if f.LoginFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.LoginFunc(ctx, identifier, password)
}

func (f *FakeBackend) Logout(ctx context.Context) error {
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

func (f *FakeBackend) Me(ctx context.Context) (*users.User, error) {
	if f.MeFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.MeFunc(ctx)
}

func (f *FakeBackend) ListUsers(ctx context.Context, limit, offset int) (*backend.UserPage, error) {
	if f.ListUsersFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.ListUsersFunc(ctx, limit, offset)
}

func (f *FakeBackend) CreateUser(ctx context.Context, newUser backend.NewUser) (*users.User, error) {
	if f.CreateUserFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.CreateUserFunc(ctx, newUser)
}

func (f *FakeBackend) UpdateUser(ctx context.Context, id string, patch backend.UserPatch) (*users.User, error) {
	if f.UpdateUserFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.UpdateUserFunc(ctx, id, patch)
}

func (f *FakeBackend) DeleteUser(ctx context.Context, id string) error {
	if f.DeleteUserFunc == nil {
		return apperrors.ErrNotFound
	}
	return f.DeleteUserFunc(ctx, id)
}

func (f *FakeBackend) ChangePassword(ctx context.Context, id, newPassword, confirmPassword string) error {
	if f.ChangePasswordFunc == nil {
		return apperrors.ErrNotFound
	}
	return f.ChangePasswordFunc(ctx, id, newPassword, confirmPassword)
}

func (f *FakeBackend) Statistics(ctx context.Context) (*backend.Statistics, error) {
	if f.StatisticsFunc == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.StatisticsFunc(ctx)
}
