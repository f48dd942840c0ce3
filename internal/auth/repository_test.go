package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parish-site/internal/auth"
)

var adminColumns = []string{"id", "email", "password_hash", "name", "status", "last_login_at", "created_at", "updated_at"}

func TestRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := auth.NewRepository(mock)
	ctx := context.Background()
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	lastLogin := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs("admin@paroquia.com").
			WillReturnRows(pgxmock.NewRows(adminColumns).
				AddRow("admin-1", "admin@paroquia.com", "$2a$10$hash", "Administrador", "active", &lastLogin, created, created))

		admin, err := repo.GetByEmail(ctx, "admin@paroquia.com")
		require.NoError(t, err)
		assert.Equal(t, "admin-1", admin.ID)
		assert.Equal(t, auth.StatusActive, admin.Status)
		require.NotNil(t, admin.LastLoginAt)
		assert.True(t, admin.LastLoginAt.Equal(lastLogin))
	})

	t.Run("never logged in", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs("new@paroquia.com").
			WillReturnRows(pgxmock.NewRows(adminColumns).
				AddRow("admin-2", "new@paroquia.com", "$2a$10$hash", "", "inactive", (*time.Time)(nil), created, created))

		admin, err := repo.GetByEmail(ctx, "new@paroquia.com")
		require.NoError(t, err)
		assert.Nil(t, admin.LastLoginAt)
		assert.Equal(t, auth.StatusInactive, admin.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs("nobody@paroquia.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByEmail(ctx, "nobody@paroquia.com")
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs("admin@paroquia.com").
			WillReturnError(errors.New("db down"))

		_, err := repo.GetByEmail(ctx, "admin@paroquia.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, pgx.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := auth.NewRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO admins").
			WithArgs(pgxmock.AnyArg(), "admin@paroquia.com", "hash", "", "active", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		admin, err := repo.Create(ctx, auth.Admin{Email: "admin@paroquia.com", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.NotEmpty(t, admin.ID)
		assert.Equal(t, auth.StatusActive, admin.Status)
		assert.False(t, admin.CreatedAt.IsZero())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO admins").
			WithArgs(pgxmock.AnyArg(), "admin@paroquia.com", "hash", "", "active", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.Create(ctx, auth.Admin{Email: "admin@paroquia.com", PasswordHash: "hash"})
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := auth.NewRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("UPDATE admins").
		WithArgs("admin@paroquia.com", "inactive", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.SetStatus(ctx, "admin@paroquia.com", auth.StatusInactive))

	mock.ExpectExec("UPDATE admins").
		WithArgs("ghost@paroquia.com", "inactive", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.SetStatus(ctx, "ghost@paroquia.com", auth.StatusInactive), auth.ErrAdminNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateLastLoginAndCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := auth.NewRepository(mock)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE admins").
		WithArgs("admin-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateLastLogin(ctx, "admin-1", at))

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, email, password_hash").
		WillReturnRows(pgxmock.NewRows(adminColumns).
			AddRow("admin-1", "a@paroquia.com", "$2a$10$hash", "A", "active", (*time.Time)(nil), created, created).
			AddRow("admin-2", "b@paroquia.com", "$2a$10$hash", "", "inactive", (*time.Time)(nil), created, created))

	admins, err := auth.NewRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "b@paroquia.com", admins[1].Email)
	assert.Equal(t, auth.StatusInactive, admins[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
