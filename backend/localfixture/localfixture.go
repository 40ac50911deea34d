// Package localfixture implements the backend port on an embedded SQLite
// database. It is the mode the dashboard ran in before the real API existed:
// a durable local user store, seeded with the original fixture accounts,
// issuing its own token pair so the session layer works unchanged.
package localfixture

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/itchub/edu-dashboard/backend"
	apperrors "github.com/itchub/edu-dashboard/internal/errors"
	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/itchub/edu-dashboard/users"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver registration
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultAccessTTL = time.Hour
	defaultListLimit = 50
)

var _ backend.Backend = (*Fixture)(nil)

// Fixture is the SQLite-backed implementation of backend.Backend
type Fixture struct {
	db        *sqlx.DB
	store     tokenstore.Store
	secret    []byte
	accessTTL time.Duration
	nowTime   func() time.Time
	log       zerolog.Logger
}

// Option defines a function type to modify the Fixture instance
type Option func(*Fixture)

// WithSecret overrides the HS256 signing secret
func WithSecret(secret []byte) Option {
	return func(f *Fixture) {
		f.secret = secret
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(f *Fixture) {
		f.accessTTL = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(f *Fixture) {
		f.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fixture) {
		f.log = logger
	}
}

// New opens (or creates) the fixture database at dsn, applies the schema and
// seeds the default accounts on first run. The token store is where Me reads
// the caller's identity from, same as the HTTP backend.
func New(dsn string, store tokenstore.Store, options ...Option) (*Fixture, error) {
	if store == nil {
		return nil, errors.New("[localfixture.New] token store is required")
	}

	db, err := sqlx.Connect("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "[localfixture.New] connect")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "[localfixture.New] apply schema")
	}

	fixture := &Fixture{
		db:        db,
		store:     store,
		secret:    []byte("edu-dashboard-local-fixture"),
		accessTTL: defaultAccessTTL,
		nowTime:   time.Now,
		log:       log.Logger,
	}
	for _, opt := range options {
		opt(fixture)
	}

	if err := fixture.seed(); err != nil {
		return nil, errors.Wrap(err, "[localfixture.New] seed")
	}
	return fixture, nil
}

func (f *Fixture) Close() error {
	return f.db.Close()
}

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Surname      string    `db:"surname"`
	Lastname     string    `db:"lastname"`
	MemberID     string    `db:"member_id"`
	PhoneNumber  string    `db:"phone_number"`
	TgUsername   string    `db:"tg_username"`
	Level        string    `db:"level"`
	Course       string    `db:"course"`
	Direction    string    `db:"direction"`
	Photo        string    `db:"photo"`
	QRCode       string    `db:"qr_code"`
	Coins        int       `db:"coins"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toUser() users.User {
	return users.User{
		ID:          r.ID,
		Username:    r.Username,
		Role:        users.Role(r.Role),
		Surname:     r.Surname,
		Lastname:    r.Lastname,
		MemberID:    r.MemberID,
		PhoneNumber: r.PhoneNumber,
		TgUsername:  r.TgUsername,
		Level:       users.Level(r.Level),
		Course:      r.Course,
		Direction:   r.Direction,
		Photo:       r.Photo,
		QRCode:      r.QRCode,
		Coins:       r.Coins,
		Active:      r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const selectColumns = `id, username, password_hash, role, surname, lastname, member_id,
	phone_number, tg_username, level, course, direction, photo, qr_code, coins,
	is_active, created_at, updated_at`

func (f *Fixture) Login(ctx context.Context, identifier, password string) (*backend.LoginResponse, error) {
	var row userRow
	query := `SELECT ` + selectColumns + ` FROM users WHERE username = ? OR phone_number = ?`
	if err := f.db.GetContext(ctx, &row, query, identifier, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.NewAPIError(400, "Invalid credentials")
		}
		return nil, errors.Wrap(err, "[Fixture.Login] query user")
	}

	if !users.CheckPasswordHash(password, row.PasswordHash) {
		return nil, backend.NewAPIError(400, "Invalid credentials")
	}
	if !row.IsActive {
		return nil, backend.NewAPIError(400, "User is inactive")
	}

	user := row.toUser()
	access, err := f.issueAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Fixture.Login] issue access token")
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Fixture.Login] issue refresh token")
	}
	return &backend.LoginResponse{Access: access, Refresh: refresh, User: user}, nil
}

// Logout has nothing to invalidate locally, tokens simply stop being stored
func (f *Fixture) Logout(ctx context.Context) error {
	return nil
}

// Me resolves the current user from the stored access token. An invalid or
// expired token tears the session down exactly like a 401 from the real API.
func (f *Fixture) Me(ctx context.Context) (*users.User, error) {
	rawToken, err := f.store.Get(tokenstore.KeyAccessToken)
	if err != nil {
		return nil, apperrors.ErrNoSession
	}

	subject, err := f.subjectFromToken(rawToken)
	if err != nil {
		f.expireSession()
		return nil, apperrors.ErrSessionExpired
	}

	row, err := f.getRow(ctx, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			f.expireSession()
			return nil, apperrors.ErrSessionExpired
		}
		return nil, errors.Wrap(err, "[Fixture.Me] query user")
	}
	user := row.toUser()
	return &user, nil
}

func (f *Fixture) ListUsers(ctx context.Context, limit, offset int) (*backend.UserPage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var count int
	if err := f.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, errors.Wrap(err, "[Fixture.ListUsers] count")
	}

	rows := []userRow{}
	query := `SELECT ` + selectColumns + ` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`
	if err := f.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, errors.Wrap(err, "[Fixture.ListUsers] select")
	}

	page := &backend.UserPage{Count: count, Results: make([]users.User, 0, len(rows))}
	for _, row := range rows {
		page.Results = append(page.Results, row.toUser())
	}
	return page, nil
}

func (f *Fixture) CreateUser(ctx context.Context, newUser backend.NewUser) (*users.User, error) {
	if newUser.MemberID != "" {
		if err := users.ValidateMemberID(newUser.MemberID); err != nil {
			return nil, backend.NewAPIError(400, err.Error())
		}
	}

	var exists int
	if err := f.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM users WHERE username = ?`, newUser.Username); err != nil {
		return nil, errors.Wrap(err, "[Fixture.CreateUser] check username")
	}
	if exists > 0 {
		return nil, backend.NewAPIError(400, "A user with this username already exists")
	}

	passwordHash, err := users.HashPassword(newUser.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Fixture.CreateUser] hash password")
	}

	id := newUser.MemberID
	if id == "" {
		id = uuid.New().String()
	}
	now := f.nowTime()

	row := userRow{
		ID:           id,
		Username:     newUser.Username,
		PasswordHash: passwordHash,
		Role:         string(users.RoleStudent),
		Surname:      newUser.Surname,
		Lastname:     newUser.Lastname,
		MemberID:     newUser.MemberID,
		PhoneNumber:  newUser.PhoneNumber,
		TgUsername:   newUser.TgUsername,
		Level:        string(newUser.Level),
		Course:       newUser.Course,
		Direction:    newUser.Direction,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `INSERT INTO users (id, username, password_hash, role, surname, lastname, member_id,
		phone_number, tg_username, level, course, direction, photo, qr_code, coins, is_active,
		created_at, updated_at)
		VALUES (:id, :username, :password_hash, :role, :surname, :lastname, :member_id,
		:phone_number, :tg_username, :level, :course, :direction, :photo, :qr_code, :coins,
		:is_active, :created_at, :updated_at)`
	if _, err := f.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, errors.Wrap(err, "[Fixture.CreateUser] insert")
	}

	user := row.toUser()
	return &user, nil
}

func (f *Fixture) UpdateUser(ctx context.Context, id string, patch backend.UserPatch) (*users.User, error) {
	row, err := f.getRow(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.NewAPIError(404, "User not found")
		}
		return nil, errors.Wrap(err, "[Fixture.UpdateUser] query user")
	}

	merged := row.toUser().Merge(patch.Partial)
	if patch.Photo != nil {
		// No file storage locally, keep the filename as the avatar reference
		merged.Photo = patch.Photo.Filename
	}
	merged.UpdatedAt = f.nowTime()

	query := `UPDATE users SET username = ?, surname = ?, lastname = ?, member_id = ?,
		phone_number = ?, tg_username = ?, level = ?, course = ?, direction = ?, photo = ?,
		coins = ?, is_active = ?, updated_at = ? WHERE id = ?`
	if _, err := f.db.ExecContext(ctx, query,
		merged.Username, merged.Surname, merged.Lastname, merged.MemberID,
		merged.PhoneNumber, merged.TgUsername, string(merged.Level), merged.Course,
		merged.Direction, merged.Photo, merged.Coins, merged.Active, merged.UpdatedAt, id,
	); err != nil {
		return nil, errors.Wrap(err, "[Fixture.UpdateUser] update")
	}
	return &merged, nil
}

func (f *Fixture) DeleteUser(ctx context.Context, id string) error {
	result, err := f.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "[Fixture.DeleteUser] delete")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[Fixture.DeleteUser] rows affected")
	}
	if affected == 0 {
		return backend.NewAPIError(404, "User not found")
	}
	return nil
}

func (f *Fixture) ChangePassword(ctx context.Context, id, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return backend.NewAPIError(400, "Passwords do not match")
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return backend.NewAPIError(400, err.Error())
	}

	passwordHash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Fixture.ChangePassword] hash password")
	}

	result, err := f.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, f.nowTime(), id)
	if err != nil {
		return errors.Wrap(err, "[Fixture.ChangePassword] update")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[Fixture.ChangePassword] rows affected")
	}
	if affected == 0 {
		return backend.NewAPIError(404, "User not found")
	}
	return nil
}

func (f *Fixture) Statistics(ctx context.Context) (*backend.Statistics, error) {
	stats := &backend.Statistics{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&stats.TotalUsers, `SELECT COUNT(*) FROM users`},
		{&stats.TotalStudents, `SELECT COUNT(*) FROM users WHERE role = 'student'`},
		{&stats.ActiveStudents, `SELECT COUNT(*) FROM users WHERE role = 'student' AND is_active = 1`},
		{&stats.TotalCoins, `SELECT COALESCE(SUM(coins), 0) FROM users WHERE role = 'student'`},
	}
	for _, q := range queries {
		if err := f.db.GetContext(ctx, q.dest, q.query); err != nil {
			return nil, errors.Wrap(err, "[Fixture.Statistics] query")
		}
	}
	return stats, nil
}

func (f *Fixture) getRow(ctx context.Context, id string) (userRow, error) {
	var row userRow
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = ?`
	err := f.db.GetContext(ctx, &row, query, id)
	return row, err
}

func (f *Fixture) expireSession() {
	if err := f.store.Clear(); err != nil {
		f.log.Error().Err(err).Msg("failed to clear token store")
	}
}
