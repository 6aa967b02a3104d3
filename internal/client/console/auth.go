package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/alphabase/internal/client/api"
	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/client/status"
	"go.uber.org/zap"
)

// DefaultWelcomeDuration is how long the sign-in alert stays up.
const DefaultWelcomeDuration = 3 * time.Second

// AuthController signs users in, registers accounts and signs out.
type AuthController struct {
	console  *Console
	session  *session.Store
	api      AuthAPI
	realtime Realtime
	router   *ViewRouter
	status   *status.Region
	log      *zap.Logger

	// WelcomeDuration is the display time of the welcome alert.
	WelcomeDuration time.Duration
}

// NewAuthController wires an AuthController. loginStatus is the region under
// the login form.
func NewAuthController(
	c *Console,
	sess *session.Store,
	authAPI AuthAPI,
	rt Realtime,
	router *ViewRouter,
	loginStatus *status.Region,
	log *zap.Logger,
) *AuthController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthController{
		console:         c,
		session:         sess,
		api:             authAPI,
		realtime:        rt,
		router:          router,
		status:          loginStatus,
		log:             log,
		WelcomeDuration: DefaultWelcomeDuration,
	}
}

// Login signs in with username and password. On success the console is
// shown, the realtime channel connected and the dashboard loaded. On failure
// the session stays empty and a login status explains why.
func (a *AuthController) Login(ctx context.Context, username, password string) error {
	res, err := a.api.Login(ctx, username, password)
	if err != nil {
		a.log.Warn("login failed", zap.String("user", username), zap.Error(err))
		a.status.Show("Sign in failed. "+err.Error(), status.Error)
		return err
	}
	if !res.Success {
		a.log.Info("login rejected", zap.String("user", username))
		a.status.Show("Sign in failed. Please check your credentials.", status.Error)
		return ErrLoginRejected
	}

	a.signedIn(ctx, res.AccessToken, username, "Welcome!", fmt.Sprintf("Signed in as %s", username))
	return nil
}

// Register creates an account and signs straight into it with the token the
// server returns.
func (a *AuthController) Register(ctx context.Context, username, email, password string) error {
	tok, err := a.api.Register(ctx, username, email, password)
	if err != nil {
		a.log.Warn("registration failed", zap.String("user", username), zap.Error(err))
		a.status.Show("Registration failed. "+registrationDetail(err), status.Error)
		return err
	}
	if tok.AccessToken == "" {
		a.log.Warn("registration returned no token", zap.String("user", username))
		a.status.Show("Registration failed. Registration failed", status.Error)
		return ErrNoToken
	}

	a.signedIn(ctx, tok.AccessToken, username, "Account Created!", fmt.Sprintf("Welcome to AlphaBase, %s!", username))
	return nil
}

// Logout disconnects the realtime channel, drops the session and returns to
// a reset login form.
func (a *AuthController) Logout() {
	a.realtime.Disconnect()
	a.session.Clear()
	a.status.Hide()
	a.console.update(func(s *State) {
		s.Screen = ScreenLogin
		s.AuthForm = FormLogin
		s.CurrentUser = ""
		s.Login = LoginForm{}
		s.Register = RegisterForm{}
	})
	a.log.Info("logged out")
}

// ShowRegisterForm swaps the login form for the registration form.
func (a *AuthController) ShowRegisterForm() {
	a.status.Hide()
	a.console.update(func(s *State) { s.AuthForm = FormRegister })
}

// ShowLoginForm swaps the registration form for the login form.
func (a *AuthController) ShowLoginForm() {
	a.status.Hide()
	a.console.update(func(s *State) { s.AuthForm = FormLogin })
}

func (a *AuthController) signedIn(ctx context.Context, token, username, title, message string) {
	a.session.Set(token, username)
	a.console.update(func(s *State) {
		s.Screen = ScreenConsole
		s.CurrentUser = username
		s.Login.Password = ""
		s.Register.Password = ""
	})
	a.log.Info("signed in", zap.String("user", username))

	if err := a.realtime.Connect(ctx); err != nil {
		a.log.Warn("realtime connect failed", zap.Error(err))
	}
	if err := a.router.SwitchView(ctx, ViewDashboard); err != nil {
		a.log.Error("failed to open dashboard", zap.Error(err))
	}
	a.realtime.ShowAlert(title, message, status.Success, a.WelcomeDuration)
}

func registrationDetail(err error) string {
	if msg := api.Detail(err, ""); msg != "" {
		return msg
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return err.Error()
	}
	return "Registration failed"
}
