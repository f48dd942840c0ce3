package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"parish-site/internal/observability"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrWeakPassword       = errors.New("password must be between 8 and 72 characters")
)

// AdminStore is the Credential Store as seen by the service.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (Admin, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, admin Admin) (Admin, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetStatus(ctx context.Context, email string, status Status) error
}

type Service struct {
	store  AdminStore
	hasher *PasswordHasher
	tokens *TokenService
	logger *observability.Logger
	clock  clock.Clock

	// decoyHash is compared against on unknown emails so they cost the same
	// bcrypt time as a wrong password.
	decoyHash string
}

func NewService(store AdminStore, hasher *PasswordHasher, tokens *TokenService, logger *observability.Logger, clk clock.Clock) *Service {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
		clock:     clk,
		decoyHash: decoyHash(hasher.cost),
	}
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Login checks credentials and issues a session token. Unknown email,
// inactive account and wrong password all return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	admin, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Spend the same bcrypt time as a real comparison.
			_, _ = s.hasher.Verify(ctx, password, s.decoyHash)
			s.logger.Info("login_rejected", map[string]any{"reason": "unknown_email"})
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if admin.Status != StatusActive {
		s.logger.Info("login_rejected", map[string]any{"reason": "inactive_account", "admin_id": admin.ID})
		return LoginResult{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, admin.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		s.logger.Info("login_rejected", map[string]any{"reason": "wrong_password", "admin_id": admin.ID})
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.store.UpdateLastLogin(ctx, admin.ID, s.clock.Now()); err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email)
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.Info("login_succeeded", map[string]any{"admin_id": admin.ID})

	return LoginResult{Token: token, Admin: admin.Profile()}, nil
}

func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (Admin, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Admin{}, ErrMissingCredentials
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Admin{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return Admin{}, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return Admin{}, err
	}

	admin, err := s.store.Create(ctx, Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Status:       StatusActive,
	})
	if err != nil {
		return Admin{}, err
	}

	s.logger.Info("admin_created", map[string]any{"admin_id": admin.ID})

	return admin, nil
}

// BootstrapAdmin creates the first admin when the store is empty. Both
// values empty means nothing to do.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" && password == "" {
		return false, nil
	}
	if email == "" || password == "" {
		return false, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required together")
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.CreateAdmin(ctx, email, password, name); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *Service) SetStatus(ctx context.Context, email string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	return s.store.SetStatus(ctx, NormalizeEmail(email), status)
}

func decoyHash(cost int) string {
	hash, err := bcrypt.GenerateFromPassword([]byte("decoy-password-for-unknown-accounts"), cost)
	if err != nil {
		// Only reachable with an out-of-range cost, which NewPasswordHasher rules out.
		panic(fmt.Sprintf("generate decoy hash: %v", err))
	}
	return string(hash)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
