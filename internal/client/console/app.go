package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/client/status"
	"github.com/atinyakov/alphabase/internal/models"
	"go.uber.org/zap"
)

// Status region names.
const (
	RegionLogin    = "login"
	RegionSettings = "settings"
)

// DefaultStatusDuration is how long login and settings statuses stay up.
const DefaultStatusDuration = 5 * time.Second

// Deps are the collaborators of an App.
type Deps struct {
	// View renders state; StatusView renders status regions. Both may be nil.
	View       View
	StatusView status.NotifyFunc

	Session  *session.Store
	Auth     AuthAPI
	Settings SettingsAPI
	Realtime Realtime

	Dashboard   Loader
	Analytics   Loader
	Collections Loader

	Log *zap.Logger
}

// Options tune an App.
type Options struct {
	StatusDuration  time.Duration
	WelcomeDuration time.Duration
}

// App is the application shell: it owns the session, the console state,
// the status regions and the controllers, and runs user actions one at a
// time.
type App struct {
	mu sync.Mutex

	session  *session.Store
	console  *Console
	auth     *AuthController
	router   *ViewRouter
	settings *SettingsController

	loginStatus    *status.Region
	settingsStatus *status.Region

	log *zap.Logger
}

// NewApp wires the controllers around d.
func NewApp(d Deps, opts Options) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Session == nil {
		d.Session = session.New()
	}
	if d.Realtime == nil {
		d.Realtime = noopRealtime{}
	}
	if opts.StatusDuration <= 0 {
		opts.StatusDuration = DefaultStatusDuration
	}

	c := NewConsole(d.View)
	loginStatus := status.NewRegion(RegionLogin, opts.StatusDuration, d.StatusView)
	settingsStatus := status.NewRegion(RegionSettings, opts.StatusDuration, d.StatusView)

	settings := NewSettingsController(c, d.Settings, settingsStatus, d.Log.Named("settings"))
	router := NewViewRouter(c, Loaders{
		Dashboard:   d.Dashboard,
		Analytics:   d.Analytics,
		Collections: d.Collections,
		Settings:    settings,
	}, d.Log.Named("router"))
	auth := NewAuthController(c, d.Session, d.Auth, d.Realtime, router, loginStatus, d.Log.Named("auth"))
	if opts.WelcomeDuration > 0 {
		auth.WelcomeDuration = opts.WelcomeDuration
	}

	return &App{
		session:        d.Session,
		console:        c,
		auth:           auth,
		router:         router,
		settings:       settings,
		loginStatus:    loginStatus,
		settingsStatus: settingsStatus,
		log:            d.Log,
	}
}

// State returns a snapshot of the console state.
func (a *App) State() State {
	return a.console.Snapshot()
}

// Session returns the current session.
func (a *App) Session() session.Session {
	return a.session.Get()
}

// LoginStatus returns the message of the login status region.
func (a *App) LoginStatus() status.Message {
	return a.loginStatus.Current()
}

// SettingsStatus returns the message of the settings status region.
func (a *App) SettingsStatus() status.Message {
	return a.settingsStatus.Current()
}

// Login signs in.
func (a *App) Login(ctx context.Context, username, password string) error {
	return a.run(func() error {
		a.console.SetLoginInput(LoginForm{Username: username, Password: password})
		return a.auth.Login(ctx, username, password)
	})
}

// Register creates an account and signs in.
func (a *App) Register(ctx context.Context, username, email, password string) error {
	return a.run(func() error {
		a.console.SetRegisterInput(RegisterForm{Username: username, Email: email, Password: password})
		return a.auth.Register(ctx, username, email, password)
	})
}

// Logout signs out. It is safe to call when already signed out.
func (a *App) Logout() {
	_ = a.run(func() error {
		a.auth.Logout()
		return nil
	})
}

// ShowRegisterForm switches the login screen to the registration form.
func (a *App) ShowRegisterForm() {
	_ = a.run(func() error {
		a.auth.ShowRegisterForm()
		return nil
	})
}

// ShowLoginForm switches the login screen to the login form.
func (a *App) ShowLoginForm() {
	_ = a.run(func() error {
		a.auth.ShowLoginForm()
		return nil
	})
}

// SwitchView activates a view. Requires a session.
func (a *App) SwitchView(ctx context.Context, name ViewName) error {
	return a.runSignedIn(func() error {
		return a.router.SwitchView(ctx, name)
	})
}

// Refresh reloads the active view.
func (a *App) Refresh(ctx context.Context) error {
	return a.runSignedIn(func() error {
		return a.router.SwitchView(ctx, a.router.Current())
	})
}

// ToggleEmailSettings shows or hides the SMTP fields.
func (a *App) ToggleEmailSettings(enabled bool) error {
	return a.runInSettings(func() error {
		a.settings.ToggleEmailSettings(enabled)
		return nil
	})
}

// SaveEmailConfig stores the email configuration.
func (a *App) SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error {
	return a.runInSettings(func() error {
		return a.settings.SaveEmailConfig(ctx, cfg)
	})
}

// TestEmail sends a test alert to address.
func (a *App) TestEmail(ctx context.Context, address string) error {
	return a.runInSettings(func() error {
		return a.settings.TestEmail(ctx, address)
	})
}

// AddRecipient adds an alert recipient.
func (a *App) AddRecipient(ctx context.Context, email string) error {
	return a.runInSettings(func() error {
		a.console.SetRecipientInput(email)
		return a.settings.AddRecipient(ctx, email)
	})
}

// RemoveRecipient removes an alert recipient.
func (a *App) RemoveRecipient(ctx context.Context, email string) error {
	return a.runInSettings(func() error {
		return a.settings.RemoveRecipient(ctx, email)
	})
}

// StartAutoRefresh reloads the dashboard every interval while it is the
// active view of a signed-in console, until ctx is done.
func (a *App) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !a.session.Authenticated() || a.router.Current() != ViewDashboard {
					continue
				}
				if err := a.Refresh(ctx); err != nil {
					a.log.Debug("dashboard refresh skipped", zap.Error(err))
				}
			}
		}
	}()
}

func (a *App) run(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn()
}

func (a *App) runSignedIn(fn func() error) error {
	return a.run(func() error {
		if !a.session.Authenticated() {
			return ErrNotSignedIn
		}
		return fn()
	})
}

func (a *App) runInSettings(fn func() error) error {
	return a.runSignedIn(func() error {
		if cur := a.router.Current(); cur != ViewSettings {
			return fmt.Errorf("%w (current: %s)", ErrSettingsInactive, cur)
		}
		return fn()
	})
}

type noopRealtime struct{}

func (noopRealtime) Connect(context.Context) error { return nil }
func (noopRealtime) Disconnect() {}
func (noopRealtime) ShowAlert(string, string, status.Kind, time.Duration) {}
