// Package repository provides PostgreSQL persistence for users, email
// notification settings, alert recipients and data collections.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/lib/pq"
)

// Errors returned by the repositories.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateLogin    = errors.New("login already exists")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrItemNotFound      = errors.New("data item not found")
)

const uniqueViolation = "23505"

// PostgresAuthRepository stores user accounts in PostgreSQL.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a PostgresAuthRepository on db.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists reports whether a user with login exists.
func (r *PostgresAuthRepository) UserExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`,
		login,
	).Scan(&exists)
	return exists, err
}

// EmailTaken reports whether email is already bound to an account.
func (r *PostgresAuthRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// CreateUser inserts u together with its default email settings row.
// A concurrent registration of the same login or email surfaces as
// ErrDuplicateLogin or ErrDuplicateEmail.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (login, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return duplicateOr(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_settings (user_login) VALUES ($1) ON CONFLICT DO NOTHING
	`, u.Username)
	if err != nil {
		return fmt.Errorf("insert email settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetUser loads the user with login, or returns ErrUserNotFound.
func (r *PostgresAuthRepository) GetUser(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT login, email, password_hash, created_at FROM users WHERE login = $1
	`, login).Scan(&u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &u, nil
}

func duplicateOr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "users_email_key" {
			return ErrDuplicateEmail
		}
		return ErrDuplicateLogin
	}
	return fmt.Errorf("insert user: %w", err)
}
