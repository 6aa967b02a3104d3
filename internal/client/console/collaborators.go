package console

import (
	"context"
	"time"

	"github.com/atinyakov/alphabase/internal/client/api"
	"github.com/atinyakov/alphabase/internal/client/status"
	"github.com/atinyakov/alphabase/internal/models"
)

// AuthAPI is the part of the HTTP transport used by AuthController.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (models.Token, error)
}

// SettingsAPI is the part of the HTTP transport used by SettingsController.
type SettingsAPI interface {
	GetEmailConfig(ctx context.Context) (models.EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error
	ListRecipients(ctx context.Context) ([]string, error)
	AddRecipient(ctx context.Context, email string) error
	RemoveRecipient(ctx context.Context, email string) error
	SendAlert(ctx context.Context, req models.AlertRequest) (models.Result, error)
}

// Realtime is the notification channel opened after sign-in.
type Realtime interface {
	Connect(ctx context.Context) error
	Disconnect()
	ShowAlert(title, message string, kind status.Kind, d time.Duration)
}

// Loader fetches the data of a view when it is activated.
type Loader interface {
	Load(ctx context.Context) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) error {
	return f(ctx)
}
