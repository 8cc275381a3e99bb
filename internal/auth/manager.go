package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Manager issues and verifies the access/refresh token pair. Access tokens are
// short-lived bearer credentials; refresh tokens are long-lived and must also
// match the copy persisted on the user record before a new pair is issued.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewManager builds a Manager with distinct secrets for the two token kinds.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair returns a fresh access and refresh token for the user.
func (m *Manager) IssuePair(userID int, username string) (access string, refresh string, err error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":      strconv.Itoa(userID),
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(m.accessTTL).Unix(),
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(m.accessSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"iat": now.Unix(),
		"exp": now.Add(m.refreshTTL).Unix(),
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(m.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// VerifyAccess validates an access token and returns the user id it carries.
func (m *Manager) VerifyAccess(token string) (int, error) {
	return m.verify(token, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns the user id it carries.
func (m *Manager) VerifyRefresh(token string) (int, error) {
	return m.verify(token, m.refreshSecret)
}

func (m *Manager) verify(tokenStr string, secret []byte) (int, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
