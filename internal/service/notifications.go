package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/alphabase/internal/models"
	"go.uber.org/zap"
)

// Result messages of SendAlert and SendEmail.
const (
	alertSent   = "Alert sent successfully"
	alertFailed = "Failed to send alert"
	emailSent   = "Email sent successfully"
	emailFailed = "Failed to send email"
)

// Mailer delivers email with the sender account in cfg.
type Mailer interface {
	Send(ctx context.Context, cfg models.EmailConfig, to, subject, body string) error
	SendAlert(ctx context.Context, cfg models.EmailConfig, req models.AlertRequest) error
}

// EmailConfigSource returns the stored email settings of a user, password
// included.
type EmailConfigSource interface {
	GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error)
}

// NotificationService sends alert emails on behalf of a user.
type NotificationService struct {
	settings EmailConfigSource
	mailer   Mailer
	events   Notifier
	log      *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(settings EmailConfigSource, mailer Mailer, events Notifier, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{settings: settings, mailer: mailer, events: events, log: log}
}

// SendAlert emails req through the sender account of login. Delivery
// problems are reported in the result, not as an error; errors are kept for
// bad input and storage failures.
func (s *NotificationService) SendAlert(ctx context.Context, login string, req models.AlertRequest) (models.Result, error) {
	req.ToEmail = strings.TrimSpace(req.ToEmail)
	if !ValidEmail(req.ToEmail) {
		return models.Result{}, ErrInvalidEmail
	}
	if strings.TrimSpace(req.AlertTitle) == "" {
		return models.Result{}, fmt.Errorf("%w: alert_title is required", ErrInvalidInput)
	}

	cfg, err := s.settings.GetEmailConfig(ctx, login)
	if err != nil {
		return models.Result{}, err
	}

	if err := s.mailer.SendAlert(ctx, cfg, req); err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Result{}, err
		}
		s.log.Warn("alert not sent", zap.String("user", login), zap.String("to", req.ToEmail), zap.Error(err))
		return models.Result{Success: false, Message: alertFailed}, nil
	}

	if s.events != nil {
		s.events.SendTo(login, models.Event{
			Action:  "alert",
			Title:   req.AlertTitle,
			Message: "Alert emailed to " + req.ToEmail,
			Kind:    models.EventWarning,
		})
	}
	return models.Result{Success: true, Message: alertSent}, nil
}

// SendEmail delivers a plain message through the sender account of login.
// Like SendAlert, a delivery failure is a result with Success unset.
func (s *NotificationService) SendEmail(ctx context.Context, login string, req models.EmailRequest) (models.Result, error) {
	req.ToEmail = strings.TrimSpace(req.ToEmail)
	if !ValidEmail(req.ToEmail) {
		return models.Result{}, ErrInvalidEmail
	}
	if strings.TrimSpace(req.Subject) == "" {
		return models.Result{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}

	cfg, err := s.settings.GetEmailConfig(ctx, login)
	if err != nil {
		return models.Result{}, err
	}
	if err := s.mailer.Send(ctx, cfg, req.ToEmail, req.Subject, req.Body); err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Result{}, err
		}
		s.log.Warn("email not sent", zap.String("user", login), zap.String("to", req.ToEmail), zap.Error(err))
		return models.Result{Success: false, Message: emailFailed}, nil
	}
	return models.Result{Success: true, Message: emailSent}, nil
}
