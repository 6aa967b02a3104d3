package console

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/atinyakov/alphabase/internal/client/api"
	"github.com/atinyakov/alphabase/internal/client/status"
	"github.com/atinyakov/alphabase/internal/models"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like name@domain.tld.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

const (
	testAlertTitle   = "Test Alert"
	testAlertMessage = "This is a test email from AlphaBase Settings"
)

// SettingsController drives the settings view: the email notification form
// and the recipient list.
//
// Recipient mutations fall back to local state when the server cannot be
// reached or refuses them: the list then shows what the user asked for and
// stays ahead of the server until the next successful LoadRecipients.
type SettingsController struct {
	console *Console
	api     SettingsAPI
	status  *status.Region
	log     *zap.Logger
}

// NewSettingsController wires a SettingsController. settingsStatus is the
// status region of the settings view.
func NewSettingsController(c *Console, settingsAPI SettingsAPI, settingsStatus *status.Region, log *zap.Logger) *SettingsController {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsController{console: c, api: settingsAPI, status: settingsStatus, log: log}
}

// Load implements Loader so the router can open the settings view.
func (sc *SettingsController) Load(ctx context.Context) error {
	sc.LoadSettings(ctx)
	return nil
}

// LoadSettings fills the email form from the server and reloads the
// recipients. Failures are logged only.
func (sc *SettingsController) LoadSettings(ctx context.Context) {
	cfg, err := sc.api.GetEmailConfig(ctx)
	if err != nil {
		sc.log.Error("error loading settings", zap.Error(err))
	} else {
		cfg = cfg.WithDefaults()
		sc.console.update(func(s *State) {
			s.Email = models.EmailConfig{
				Enabled:     cfg.Enabled,
				SMTPServer:  cfg.SMTPServer,
				SMTPPort:    cfg.SMTPPort,
				SenderEmail: cfg.SenderEmail,
			}
			if cfg.Enabled {
				s.EmailSettingsVisible = true
			}
		})
	}

	sc.LoadRecipients(ctx)
}

// ToggleEmailSettings shows or hides the SMTP fields.
func (sc *SettingsController) ToggleEmailSettings(enabled bool) {
	sc.console.update(func(s *State) {
		s.Email.Enabled = enabled
		s.EmailSettingsVisible = enabled
	})
}

// SaveEmailConfig stores cfg exactly as given. After a successful save the
// password is dropped from the form; after a failure the form keeps what
// was entered.
func (sc *SettingsController) SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error {
	sc.console.update(func(s *State) { s.Email = cfg })

	if err := sc.api.SaveEmailConfig(ctx, cfg); err != nil {
		sc.log.Warn("failed to save email config", zap.Error(err))
		sc.status.Show(failureText(err, "Failed to save configuration"), status.Error)
		return err
	}

	sc.console.update(func(s *State) { s.Email.SenderPassword = "" })
	sc.status.Show("Email configuration saved successfully!", status.Success)
	return nil
}

// TestEmail sends a test alert to address.
func (sc *SettingsController) TestEmail(ctx context.Context, address string) error {
	if address == "" {
		sc.status.Show("Please enter a sender email first", status.Error)
		return invalid("sender_email", "required")
	}

	sc.status.Show("Sending test email...", status.Info)

	res, err := sc.api.SendAlert(ctx, models.AlertRequest{
		ToEmail:      address,
		AlertTitle:   testAlertTitle,
		AlertMessage: testAlertMessage,
		Data:         map[string]any{},
	})
	if err != nil {
		sc.log.Warn("test email failed", zap.Error(err))
		sc.status.Show(failureText(err, "Failed to send test email"), status.Error)
		return err
	}
	if !res.Success {
		sc.status.Show("Failed to send test email", status.Error)
		return errors.New("test email not sent: " + res.Message)
	}

	sc.status.Show("Test email sent! Check your inbox.", status.Success)
	return nil
}

// LoadRecipients replaces the local list with the server's. When the server
// cannot provide one the list becomes empty, so the view never shows a
// stale or partial list.
func (sc *SettingsController) LoadRecipients(ctx context.Context) {
	list, err := sc.api.ListRecipients(ctx)
	if err != nil {
		sc.log.Error("error loading recipients", zap.Error(err))
		list = []string{}
	}
	sc.console.update(func(s *State) { s.Recipients = slices.Clone(list) })
}

// AddRecipient validates email and adds it to the list.
func (sc *SettingsController) AddRecipient(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		sc.status.Show("Please enter an email address", status.Error)
		return invalid("email", "required")
	}
	if !IsValidEmail(email) {
		sc.status.Show("Please enter a valid email address", status.Error)
		return invalid("email", "malformed")
	}
	if slices.Contains(sc.console.Snapshot().Recipients, email) {
		sc.status.Show("This email is already in the list", status.Error)
		return invalid("email", "duplicate")
	}

	err := sc.api.AddRecipient(ctx, email)
	sc.console.update(func(s *State) {
		if !slices.Contains(s.Recipients, email) {
			s.Recipients = append(s.Recipients, email)
		}
		s.RecipientInput = ""
	})

	if err != nil {
		sc.log.Warn("recipient kept locally", zap.String("email", email), zap.Error(err))
		sc.status.Show("Recipient added (saved locally)", status.Success)
		return nil
	}
	sc.status.Show("Recipient added successfully!", status.Success)
	return nil
}

// RemoveRecipient deletes email from the list. A recipient the server no
// longer knows counts as removed.
func (sc *SettingsController) RemoveRecipient(ctx context.Context, email string) error {
	err := sc.api.RemoveRecipient(ctx, email)
	sc.console.update(func(s *State) {
		s.Recipients = slices.DeleteFunc(s.Recipients, func(e string) bool { return e == email })
	})

	if err != nil && !api.IsNotFound(err) {
		sc.log.Warn("recipient removed locally", zap.String("email", email), zap.Error(err))
		sc.status.Show("Recipient removed (saved locally)", status.Success)
		return nil
	}
	sc.status.Show("Recipient removed", status.Success)
	return nil
}

func failureText(err error, fallback string) string {
	var te *api.TransportError
	if errors.As(err, &te) {
		return "Error: " + err.Error()
	}
	return fallback
}
