package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

const expiringSoonWindow = 5 * time.Minute

var (
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired or invalid")
)

type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Manager keeps the admin token and profile on the client. Its checks read
// the token payload without the signing key, so they only decide whether a
// request is worth sending; the server still verifies every token.
type Manager struct {
	storage Storage
	clock   clock.Clock
	parser  *jwt.Parser
}

func NewManager(storage Storage, clk clock.Clock) *Manager {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{storage: storage, clock: clk, parser: jwt.NewParser()}
}

func (m *Manager) Store(token string, profile Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	m.storage.Set(tokenKey, token)
	m.storage.Set(profileKey, string(encoded))
	return nil
}

func (m *Manager) Token() (string, bool) {
	token, ok := m.storage.Get(tokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) Profile() (Profile, bool) {
	raw, ok := m.storage.Get(profileKey)
	if !ok {
		return Profile{}, false
	}

	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return Profile{}, false
	}
	return profile, true
}

func (m *Manager) ClearAll() {
	m.storage.Remove(tokenKey)
	m.storage.Remove(profileKey)
}

// IsStructurallyValid reports whether token has three segments, a decodable
// payload and, when it carries exp, an expiry still in the future.
func (m *Manager) IsStructurallyValid(token string) bool {
	expiresAt, ok := m.expiry(token)
	if !ok {
		return false
	}
	return expiresAt.IsZero() || m.clock.Now().Before(expiresAt)
}

// IsExpiringSoon is true for tokens within five minutes of expiry and for
// tokens that are not structurally valid at all.
func (m *Manager) IsExpiringSoon(token string) bool {
	if !m.IsStructurallyValid(token) {
		return true
	}

	expiresAt, _ := m.expiry(token)
	if expiresAt.IsZero() {
		return false
	}
	return expiresAt.Sub(m.clock.Now()) <= expiringSoonWindow
}

// Current returns the stored token if it passes the structural check. An
// invalid token is cleared together with the profile.
func (m *Manager) Current() (string, error) {
	token, ok := m.Token()
	if !ok {
		m.ClearAll()
		return "", ErrNoSession
	}
	if !m.IsStructurallyValid(token) {
		m.ClearAll()
		return "", ErrSessionExpired
	}
	return token, nil
}

func (m *Manager) expiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := m.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false
	}
	if exp == nil {
		return time.Time{}, true
	}
	return exp.Time, true
}
