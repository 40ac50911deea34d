package users

import (
	"fmt"
	"regexp"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role represents what a user is allowed to see in the dashboard.
// Roles are fixed at creation time, there is no role-change operation.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Level is a student's proficiency level
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// memberIDPattern matches the centre's member IDs printed on QR badges (e.g. ITC003)
var memberIDPattern = regexp.MustCompile(`^ITC\d{3}$`)

type User struct {
	ID          string    `json:"id"`                     // Unique identifier for the user
	Username    string    `json:"username"`               // Unique login name
	Role        Role      `json:"role"`                   // student or admin, immutable after creation
	Surname     string    `json:"surname"`                // First name
	Lastname    string    `json:"lastname"`               // Last name
	MemberID    string    `json:"uuid,omitempty"`         // Badge ID encoded in the QR code
	PhoneNumber string    `json:"phone_number"`           // Contact phone, also usable as a login identifier
	TgUsername  string    `json:"tg_username,omitempty"`  // Telegram handle without the @
	Level       Level     `json:"level,omitempty"`        // Proficiency level, students only
	Course      string    `json:"course,omitempty"`       // Course label (e.g. "Kurs 2")
	Direction   string    `json:"direction,omitempty"`    // Study direction
	Photo       string    `json:"photo,omitempty"`        // Avatar URL
	QRCode      string    `json:"image_qrkod,omitempty"`  // Server-generated QR image URL
	Coins       int       `json:"coins"`                  // Reward balance, never negative
	Active      bool      `json:"is_active"`              // Deactivated users cannot log in
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// FullName returns "<first> <last>" the way the profile page displays it
func (u User) FullName() string {
	return u.Surname + " " + u.Lastname
}

// Partial carries an optional subset of user fields for shallow merging.
// A nil field means "leave unchanged".
type Partial struct {
	Username    *string `json:"username,omitempty"`
	Surname     *string `json:"surname,omitempty"`
	Lastname    *string `json:"lastname,omitempty"`
	MemberID    *string `json:"uuid,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	TgUsername  *string `json:"tg_username,omitempty"`
	Level       *Level  `json:"level,omitempty"`
	Course      *string `json:"course,omitempty"`
	Direction   *string `json:"direction,omitempty"`
	Photo       *string `json:"photo,omitempty"`
	Coins       *int    `json:"coins,omitempty"`
	Active      *bool   `json:"is_active,omitempty"`
}

// IsZero reports whether the partial carries no fields at all
func (p Partial) IsZero() bool {
	return p == Partial{}
}

// Merge applies the non-nil fields of p on top of u and returns the result.
// Coins are clamped at zero, the balance can never go negative.
func (u User) Merge(p Partial) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Surname != nil {
		u.Surname = *p.Surname
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.MemberID != nil {
		u.MemberID = *p.MemberID
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.TgUsername != nil {
		u.TgUsername = *p.TgUsername
	}
	if p.Level != nil {
		u.Level = *p.Level
	}
	if p.Course != nil {
		u.Course = *p.Course
	}
	if p.Direction != nil {
		u.Direction = *p.Direction
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Coins != nil {
		u.Coins = *p.Coins
		if u.Coins < 0 {
			u.Coins = 0
		}
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	return u
}

// ValidateMemberID checks the badge ID format: "ITC" followed by three digits
func ValidateMemberID(memberID string) error {
	if !memberIDPattern.MatchString(memberID) {
		return fmt.Errorf("member ID must be ITC followed by 3 digits (e.g. ITC003)")
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
