package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"parish-site/internal/db"
)

const uniqueViolation = "23505"

var (
	ErrEmailTaken    = errors.New("email already in use")
	ErrAdminNotFound = errors.New("admin not found")
)

const adminColumns = `id, email, password_hash, COALESCE(name, ''), status, last_login_at, created_at, updated_at`

type Repository struct {
	db db.Querier
}

func NewRepository(database db.Querier) *Repository {
	return &Repository{db: database}
}

// GetByEmail returns pgx.ErrNoRows unwrapped when no admin has that email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Admin, error) {
	admin, err := scanAdmin(r.db.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE email = $1
	`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, err
		}
		return Admin{}, fmt.Errorf("query admin by email: %w", err)
	}

	return admin, nil
}

func (r *Repository) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	admins := make([]Admin, 0)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	return admins, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// Create stores a new admin. ID and timestamps are assigned here.
func (r *Repository) Create(ctx context.Context, admin Admin) (Admin, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Admin{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	admin.ID = id.String()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.Status == "" {
		admin.Status = StatusActive
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO admins (id, email, password_hash, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $6)
	`, admin.ID, admin.Email, admin.PasswordHash, admin.Name, string(admin.Status), now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Admin{}, ErrEmailTaken
		}
		return Admin{}, fmt.Errorf("insert admin: %w", err)
	}

	return admin, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE admins
		SET last_login_at = $2, updated_at = $2
		WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

func (r *Repository) SetStatus(ctx context.Context, email string, status Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE admins
		SET status = $2, updated_at = $3
		WHERE email = $1
	`, email, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update admin status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	return nil
}

func scanAdmin(row pgx.Row) (Admin, error) {
	var admin Admin
	var status string
	var lastLogin *time.Time
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Name,
		&status,
		&lastLogin,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return Admin{}, err
	}

	admin.Status = Status(status)
	if lastLogin != nil {
		value := lastLogin.UTC()
		admin.LastLoginAt = &value
	}

	return admin, nil
}
