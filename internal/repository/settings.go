package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/alphabase/internal/models"
)

// PostgresSettingsRepository stores per-user email settings and alert
// recipients. Removed recipients are soft-deleted and purged later by the
// recipient cleaner.
type PostgresSettingsRepository struct {
	DB *sql.DB
}

// NewPostgresSettingsRepository creates a PostgresSettingsRepository on db.
func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{DB: db}
}

// GetEmailConfig returns the stored settings for login, password included.
// A user without a settings row gets the defaults.
func (r *PostgresSettingsRepository) GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error) {
	var cfg models.EmailConfig
	err := r.DB.QueryRowContext(ctx, `
		SELECT enabled, smtp_server, smtp_port, sender_email, sender_password
		FROM email_settings WHERE user_login = $1
	`, login).Scan(&cfg.Enabled, &cfg.SMTPServer, &cfg.SMTPPort, &cfg.SenderEmail, &cfg.SenderPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmailConfig{}.WithDefaults(), nil
	}
	if err != nil {
		return models.EmailConfig{}, fmt.Errorf("GetEmailConfig: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// SaveEmailConfig upserts cfg for login. An empty SenderPassword keeps the
// stored one.
func (r *PostgresSettingsRepository) SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_settings (user_login, enabled, smtp_server, smtp_port, sender_email, sender_password)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_login) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			smtp_server = EXCLUDED.smtp_server,
			smtp_port = EXCLUDED.smtp_port,
			sender_email = EXCLUDED.sender_email,
			sender_password = COALESCE(NULLIF(EXCLUDED.sender_password, ''), email_settings.sender_password)
	`, login, cfg.Enabled, cfg.SMTPServer, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword)
	if err != nil {
		return fmt.Errorf("SaveEmailConfig: %w", err)
	}
	return nil
}

// ListRecipients returns the active recipients of login in insertion order.
func (r *PostgresSettingsRepository) ListRecipients(ctx context.Context, login string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT email FROM recipients
		WHERE user_login = $1 AND deleted = false
		ORDER BY created_at, email
	`, login)
	if err != nil {
		return nil, fmt.Errorf("ListRecipients: %w", err)
	}
	defer rows.Close()

	list := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecipients: %w", err)
	}
	return list, nil
}

// AddRecipient adds email for login. Adding an active recipient again is a
// no-op; adding a removed one restores it at the end of the list.
func (r *PostgresSettingsRepository) AddRecipient(ctx context.Context, login, email string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO recipients (user_login, email) VALUES ($1, $2)
		ON CONFLICT (user_login, email) DO UPDATE SET
			created_at = CASE WHEN recipients.deleted THEN now() ELSE recipients.created_at END,
			deleted = false,
			removed_at = NULL
	`, login, email)
	if err != nil {
		return fmt.Errorf("AddRecipient: %w", err)
	}
	return nil
}

// RemoveRecipient soft-deletes email for login. It returns
// ErrRecipientNotFound when no active recipient matches.
func (r *PostgresSettingsRepository) RemoveRecipient(ctx context.Context, login, email string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE recipients SET deleted = true, removed_at = now()
		WHERE user_login = $1 AND email = $2 AND deleted = false
	`, login, email)
	if err != nil {
		return fmt.Errorf("RemoveRecipient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RemoveRecipient: %w", err)
	}
	if n == 0 {
		return ErrRecipientNotFound
	}
	return nil
}
