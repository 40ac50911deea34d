package localfixture

import (
	"crypto/rand"
	"encoding/hex"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/itchub/edu-dashboard/internal/errors"
	"github.com/itchub/edu-dashboard/users"
	"github.com/pkg/errors"
)

const refreshTokenLength = 32 // bytes of entropy, 256 bits

// issueAccessToken signs a short-lived HS256 token for the fixture backend.
// The claim set mirrors what the real API puts in its tokens so the client
// cannot tell the two apart.
func (f *Fixture) issueAccessToken(user users.User) (string, error) {
	claims := jwtlib.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      f.nowTime().Unix(),
		"exp":      f.nowTime().Add(f.accessTTL).Unix(),
		"jti":      uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Fixture.issueAccessToken] sign")
	}
	return signed, nil
}

// subjectFromToken validates a raw access token and returns its subject
func (f *Fixture) subjectFromToken(rawToken string) (string, error) {
	parsed, err := jwtlib.Parse(rawToken, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return f.secret, nil
	}, jwtlib.WithTimeFunc(f.nowTime))
	if err != nil || !parsed.Valid {
		return "", apperrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", apperrors.ErrInvalidToken
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return subject, nil
}

// newRefreshToken mints the opaque refresh token. It is persisted alongside
// the access token but never exchanged, matching the remote API's behavior.
func newRefreshToken() (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[newRefreshToken] rand.Read")
	}
	return hex.EncodeToString(tokenBytes), nil
}
