package authfake

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"parish-site/internal/auth"
)

var _ auth.AdminStore = (*Store)(nil)

// Store is an in-memory auth.AdminStore keyed by email.
type Store struct {
	mu     sync.RWMutex
	admins map[string]auth.Admin

	// Err, when set, is returned by every method.
	Err error
}

func NewStore() *Store {
	return &Store{admins: make(map[string]auth.Admin)}
}

func (s *Store) GetByEmail(_ context.Context, email string) (auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return auth.Admin{}, s.Err
	}
	admin, ok := s.admins[email]
	if !ok {
		return auth.Admin{}, pgx.ErrNoRows
	}
	return admin, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.admins), nil
}

func (s *Store) Create(_ context.Context, admin auth.Admin) (auth.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return auth.Admin{}, s.Err
	}
	if _, exists := s.admins[admin.Email]; exists {
		return auth.Admin{}, auth.ErrEmailTaken
	}

	now := time.Now().UTC()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.Status == "" {
		admin.Status = auth.StatusActive
	}
	s.admins[admin.Email] = admin
	return admin, nil
}

func (s *Store) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	for email, admin := range s.admins {
		if admin.ID == id {
			value := at.UTC()
			admin.LastLoginAt = &value
			s.admins[email] = admin
			return nil
		}
	}
	return errors.New("admin not found")
}

func (s *Store) SetStatus(_ context.Context, email string, status auth.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	admin, ok := s.admins[email]
	if !ok {
		return auth.ErrAdminNotFound
	}
	admin.Status = status
	s.admins[email] = admin
	return nil
}

// List returns admins oldest first, like auth.Repository.List.
func (s *Store) List(_ context.Context) ([]auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	admins := make([]auth.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		admins = append(admins, admin)
	}
	sort.Slice(admins, func(i, j int) bool {
		if !admins[i].CreatedAt.Equal(admins[j].CreatedAt) {
			return admins[i].CreatedAt.Before(admins[j].CreatedAt)
		}
		return admins[i].Email < admins[j].Email
	})
	return admins, nil
}

// Get returns a copy of the stored admin for assertions.
func (s *Store) Get(email string) (auth.Admin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[email]
	return admin, ok
}
