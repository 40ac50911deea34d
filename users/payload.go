package users

import (
	"encoding/json"
	"time"

	"github.com/itchub/edu-dashboard/internal/utils"
)

// FlexID absorbs user identifiers regardless of how the API serializes them:
// Django emits numeric primary keys, the fixture data uses string badge IDs.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// Payload is the user object as the API serializes it. Every field beyond the
// identity triple is optional and may be missing or null depending on the
// endpoint, so all of them are pointers and Normalize defaults each one
// independently.
type Payload struct {
	ID          FlexID     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	MemberID    *string    `json:"uuid"`
	QRCode      *string    `json:"image_qrkod"`
	PhoneNumber *string    `json:"phone_number"`
	TgUsername  *string    `json:"tg_username"`
	Level       *string    `json:"level"`
	Course      *string    `json:"course"`
	Direction   *string    `json:"direction"`
	Photo       *string    `json:"photo"`
	Coins       *int       `json:"coins"`
	IsActive    *bool      `json:"is_active"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Normalize converts an API payload into the canonical User shape.
// Missing optional fields become their zero values, except the active flag
// which defaults to true (the API omits it for users that were never
// deactivated). Negative coin balances are clamped to zero.
func (p Payload) Normalize() User {
	user := User{
		ID:          p.ID.String(),
		Username:    p.Username,
		Role:        Role(p.Role),
		Surname:     utils.Value(p.FirstName),
		Lastname:    utils.Value(p.LastName),
		MemberID:    utils.Value(p.MemberID),
		QRCode:      utils.Value(p.QRCode),
		PhoneNumber: utils.Value(p.PhoneNumber),
		TgUsername:  utils.Value(p.TgUsername),
		Level:       Level(utils.Value(p.Level)),
		Course:      utils.Value(p.Course),
		Direction:   utils.Value(p.Direction),
		Photo:       utils.Value(p.Photo),
		Coins:       utils.Value(p.Coins),
		Active:      true,
		CreatedAt:   utils.Value(p.CreatedAt),
		UpdatedAt:   utils.Value(p.UpdatedAt),
	}
	if p.IsActive != nil {
		user.Active = *p.IsActive
	}
	if user.Coins < 0 {
		user.Coins = 0
	}
	return user
}

// FromPayloadJSON decodes and normalizes a raw API user object
func FromPayloadJSON(data []byte) (User, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return User{}, err
	}
	return payload.Normalize(), nil
}

// NormalizeAll converts a page of API payloads in order
func NormalizeAll(payloads []Payload) []User {
	userList := make([]User, 0, len(payloads))
	for _, p := range payloads {
		userList = append(userList, p.Normalize())
	}
	return userList
}
