package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token payload. adminId/adminEmail duplicate sub for
// clients that read the payload without knowing registered claim names.
type Claims struct {
	AdminID    string `json:"adminId"`
	AdminEmail string `json:"adminEmail"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

func NewTokenService(secret string, ttl time.Duration, clk clock.Clock) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if clk == nil {
		clk = clock.New()
	}

	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(adminID, adminEmail string) (string, error) {
	now := s.clock.Now().UTC()
	claims := Claims{
		AdminID:    adminID,
		AdminEmail: adminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, nil
}

// Verify checks signature and expiry. Every failure collapses to
// ErrInvalidToken so callers cannot tell why a token was refused.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.AdminID == "" || claims.Subject != claims.AdminID {
		return Identity{}, ErrInvalidToken
	}

	return Identity{AdminID: claims.AdminID, AdminEmail: claims.AdminEmail}, nil
}
