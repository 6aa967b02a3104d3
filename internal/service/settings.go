package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/repository"
)

// SettingsRepository defines the persistence operations for email settings
// and alert recipients, scoped by user login.
type SettingsRepository interface {
	GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error)
	SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error
	ListRecipients(ctx context.Context, login string) ([]string, error)
	AddRecipient(ctx context.Context, login, email string) error
	RemoveRecipient(ctx context.Context, login, email string) error
}

// Notifier pushes realtime events to a user's consoles.
type Notifier interface {
	SendTo(user string, e models.Event)
}

// SettingsService manages a user's email settings and recipients. Every
// change is echoed to the user's other consoles.
type SettingsService struct {
	repo   SettingsRepository
	events Notifier
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo SettingsRepository, events Notifier) *SettingsService {
	return &SettingsService{repo: repo, events: events}
}

// GetEmailConfig returns the settings of login without the password.
func (s *SettingsService) GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error) {
	cfg, err := s.repo.GetEmailConfig(ctx, login)
	if err != nil {
		return models.EmailConfig{}, err
	}
	cfg.SenderPassword = ""
	return cfg.WithDefaults(), nil
}

// SaveEmailConfig validates and stores cfg as submitted. Defaults for an
// empty server or port apply on load. An empty password keeps the stored one.
func (s *SettingsService) SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error {
	cfg.SMTPServer = strings.TrimSpace(cfg.SMTPServer)
	cfg.SenderEmail = strings.TrimSpace(cfg.SenderEmail)
	if cfg.SMTPPort < 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("%w: smtp_port must be between 1 and 65535", ErrInvalidInput)
	}
	if cfg.SenderEmail != "" && !ValidEmail(cfg.SenderEmail) {
		return ErrInvalidEmail
	}
	if cfg.Enabled && cfg.SenderEmail == "" {
		return fmt.Errorf("%w: sender_email is required when notifications are enabled", ErrInvalidInput)
	}

	if err := s.repo.SaveEmailConfig(ctx, login, cfg); err != nil {
		return err
	}
	s.notify(login, "settings", "Settings Updated", "Email settings updated")
	return nil
}

// ListRecipients returns the recipients of login.
func (s *SettingsService) ListRecipients(ctx context.Context, login string) ([]string, error) {
	list, err := s.repo.ListRecipients(ctx, login)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// AddRecipient registers email for login. Adding a present address again
// succeeds without creating a duplicate.
func (s *SettingsService) AddRecipient(ctx context.Context, login, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if err := s.repo.AddRecipient(ctx, login, email); err != nil {
		return err
	}
	s.notify(login, "recipients", "Recipient Added", email)
	return nil
}

// RemoveRecipient removes email for login, or returns ErrRecipientNotFound.
func (s *SettingsService) RemoveRecipient(ctx context.Context, login, email string) error {
	err := s.repo.RemoveRecipient(ctx, login, email)
	if errors.Is(err, repository.ErrRecipientNotFound) {
		return ErrRecipientNotFound
	}
	if err != nil {
		return err
	}
	s.notify(login, "recipients", "Recipient Removed", email)
	return nil
}

func (s *SettingsService) notify(login, action, title, message string) {
	if s.events == nil {
		return
	}
	s.events.SendTo(login, models.Event{Action: action, Title: title, Message: message, Kind: models.EventInfo})
}
