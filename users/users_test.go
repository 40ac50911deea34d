package users_test

import (
	"encoding/json"
	"testing"

	"github.com/itchub/edu-dashboard/internal/utils"
	"github.com/itchub/edu-dashboard/users"
	"github.com/stretchr/testify/require"
)

func TestMergeShallowMerge(t *testing.T) {
	user := users.User{
		ID:       "ITC001",
		Username: "student",
		Role:     users.RoleStudent,
		Surname:  "Karimov",
		Coins:    150,
		Active:   true,
	}

	merged := user.Merge(users.Partial{Coins: utils.Ptr(300)})
	require.Equal(t, 300, merged.Coins)
	require.Equal(t, "Karimov", merged.Surname, "untouched fields survive the merge")
	require.Equal(t, 150, user.Coins, "merge does not mutate the receiver")
}

func TestMergeClampsNegativeCoins(t *testing.T) {
	user := users.User{Coins: 10}
	merged := user.Merge(users.Partial{Coins: utils.Ptr(-5)})
	require.Equal(t, 0, merged.Coins)
}

func TestMergeEmptyPartialIsNoop(t *testing.T) {
	user := users.User{ID: "u1", Username: "admin", Coins: 7, Active: true}
	require.Equal(t, user, user.Merge(users.Partial{}))
	require.True(t, users.Partial{}.IsZero())
}

func TestNormalizeDefaultsEveryOptionalField(t *testing.T) {
	payload := users.Payload{
		ID:       "ADM1",
		Username: "admin",
		Role:     "admin",
	}

	user := payload.Normalize()
	require.Equal(t, "ADM1", user.ID)
	require.Equal(t, users.RoleAdmin, user.Role)
	require.Empty(t, user.Surname)
	require.Empty(t, user.TgUsername)
	require.Empty(t, user.Course)
	require.Zero(t, user.Coins)
	require.True(t, user.Active, "active defaults to true when the API omits it")
	require.True(t, user.CreatedAt.IsZero())
}

func TestNormalizeClampsNegativeCoins(t *testing.T) {
	payload := users.Payload{ID: "u1", Username: "x", Role: "student", Coins: utils.Ptr(-20)}
	require.Zero(t, payload.Normalize().Coins)
}

func TestFromPayloadJSON(t *testing.T) {
	raw := []byte(`{
		"id": 42,
		"username": "aziz",
		"role": "student",
		"first_name": "Aziz",
		"last_name": "Karimov",
		"uuid": "ITC007",
		"image_qrkod": "https://api.example.com/qr/ITC007.png",
		"phone_number": "+998901234567",
		"level": "intermediate",
		"coins": 150,
		"is_active": false
	}`)

	user, err := users.FromPayloadJSON(raw)
	require.NoError(t, err)
	require.Equal(t, "42", user.ID, "numeric IDs are normalized to strings")
	require.Equal(t, "Aziz", user.Surname)
	require.Equal(t, "Karimov", user.Lastname)
	require.Equal(t, "ITC007", user.MemberID)
	require.Equal(t, users.LevelIntermediate, user.Level)
	require.Equal(t, 150, user.Coins)
	require.False(t, user.Active)
}

func TestFlexIDAcceptsStringsAndNumbers(t *testing.T) {
	var id users.FlexID
	require.NoError(t, json.Unmarshal([]byte(`"ITC003"`), &id))
	require.Equal(t, "ITC003", id.String())
	require.NoError(t, json.Unmarshal([]byte(`17`), &id))
	require.Equal(t, "17", id.String())
	require.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestValidateMemberID(t *testing.T) {
	require.NoError(t, users.ValidateMemberID("ITC003"))
	require.Error(t, users.ValidateMemberID("ITC13"))
	require.Error(t, users.ValidateMemberID("itc003"))
	require.Error(t, users.ValidateMemberID("ITC0031"))
	require.Error(t, users.ValidateMemberID(""))
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Password1"))
	require.Error(t, users.ValidatePasswordStrength("short1A"))
	require.Error(t, users.ValidatePasswordStrength("alllowercase1"))
	require.Error(t, users.ValidatePasswordStrength("ALLUPPERCASE1"))
	require.Error(t, users.ValidatePasswordStrength("NoNumbersHere"))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := users.HashPassword("student123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("student123", hash))
	require.False(t, users.CheckPasswordHash("student124", hash))
}
