package localfixture

import (
	"github.com/itchub/edu-dashboard/users"
	"github.com/pkg/errors"
)

// Default accounts carried over from the pre-backend fixture data. Seeded
// only when the users table is empty so local edits survive restarts.
var seedUsers = []struct {
	user     users.User
	password string
}{
	{
		user: users.User{
			ID:          "e4c9b8f1-5a2d-4e3c-9b1f-6d8a7c5e4b3a",
			Username:    "student",
			Role:        users.RoleStudent,
			Surname:     "Karimov",
			Lastname:    "Aziz",
			PhoneNumber: "+998901234567",
			TgUsername:  "aziz_karimov",
			Level:       users.LevelIntermediate,
			Course:      "Kurs 2",
			Direction:   "Dasturiy injinering",
			Photo:       "https://api.dicebear.com/7.x/avataaars/svg?seed=Aziz",
			Coins:       150,
			Active:      true,
		},
		password: "student123",
	},
	{
		user: users.User{
			ID:          "a1b2c3d4-e5f6-4a5b-8c9d-0e1f2a3b4c5d",
			Username:    "admin",
			Role:        users.RoleAdmin,
			Surname:     "Admin",
			Lastname:    "User",
			PhoneNumber: "+998901234568",
			Active:      true,
		},
		password: "admin123",
	},
}

func (f *Fixture) seed() error {
	var count int
	if err := f.db.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		return errors.Wrap(err, "[Fixture.seed] count")
	}
	if count > 0 {
		return nil
	}

	now := f.nowTime()
	query := `INSERT INTO users (id, username, password_hash, role, surname, lastname, member_id,
		phone_number, tg_username, level, course, direction, photo, qr_code, coins, is_active,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, seed := range seedUsers {
		passwordHash, err := users.HashPassword(seed.password)
		if err != nil {
			return errors.Wrap(err, "[Fixture.seed] hash password")
		}
		u := seed.user
		if _, err := f.db.Exec(query,
			u.ID, u.Username, passwordHash, string(u.Role), u.Surname, u.Lastname,
			u.MemberID, u.PhoneNumber, u.TgUsername, string(u.Level), u.Course,
			u.Direction, u.Photo, u.QRCode, u.Coins, u.Active, now, now,
		); err != nil {
			return errors.Wrap(err, "[Fixture.seed] insert")
		}
	}
	f.log.Info().Int("users", len(seedUsers)).Msg("seeded fixture accounts")
	return nil
}
