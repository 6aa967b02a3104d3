// Package console is the view/session controller of the AlphaBase console.
//
// It owns the console state (which screen and view are active, the settings
// form and the recipient list) and mutates it in response to user actions:
// AuthController signs users in and out, ViewRouter switches between views
// and SettingsController synchronises email settings and recipients with
// the server. Rendering is delegated to a View, so the controllers run
// without any UI attached.
package console

import (
	"fmt"
	"slices"
	"sync"

	"github.com/atinyakov/alphabase/internal/models"
)

// ViewName identifies one of the mutually exclusive console panels.
type ViewName string

const (
	ViewDashboard   ViewName = "dashboard"
	ViewAnalytics   ViewName = "analytics"
	ViewData        ViewName = "data"
	ViewCollections ViewName = "collections"
	ViewSettings    ViewName = "settings"
)

// Views lists every view in navigation order.
var Views = []ViewName{ViewDashboard, ViewAnalytics, ViewData, ViewCollections, ViewSettings}

// ParseViewName validates s as a view name.
func ParseViewName(s string) (ViewName, error) {
	v := ViewName(s)
	if !slices.Contains(Views, v) {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return v, nil
}

// Screen is the top-level surface shown to the user.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenConsole
)

// AuthForm is the form shown on the login screen.
type AuthForm int

const (
	FormLogin AuthForm = iota
	FormRegister
)

// Content padding of the console area. The settings view manages its own
// spacing and gets none.
const (
	DefaultContentPadding  = 24
	SettingsContentPadding = 0
)

// LoginForm holds the login inputs.
type LoginForm struct {
	Username string
	Password string
}

// RegisterForm holds the registration inputs.
type RegisterForm struct {
	Username string
	Email    string
	Password string
}

// State is everything a View needs to draw the console.
type State struct {
	Screen      Screen
	AuthForm    AuthForm
	CurrentUser string

	Login    LoginForm
	Register RegisterForm

	// ActiveView and ActiveNav always name the same view after a switch.
	ActiveView     ViewName
	ActiveNav      ViewName
	ContentPadding int

	Email                models.EmailConfig
	EmailSettingsVisible bool
	RecipientInput       string
	Recipients           []string
}

// InitialState is the state of a freshly started console.
func InitialState() State {
	return State{
		Screen:         ScreenLogin,
		AuthForm:       FormLogin,
		ActiveView:     ViewDashboard,
		ActiveNav:      ViewDashboard,
		ContentPadding: DefaultContentPadding,
		Email:          models.EmailConfig{}.WithDefaults(),
		Recipients:     []string{},
	}
}

func (s State) clone() State {
	s.Recipients = slices.Clone(s.Recipients)
	return s
}

// View renders console state. Render receives a snapshot it may keep.
type View interface {
	Render(State)
}

// Console holds the state shared by the controllers and pushes every change
// to the view.
type Console struct {
	mu    sync.Mutex
	state State
	view  View
}

// NewConsole returns a console in its initial state. view may be nil.
func NewConsole(view View) *Console {
	return &Console{state: InitialState(), view: view}
}

// Snapshot returns a copy of the current state.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// update applies fn to the state and renders the result.
func (c *Console) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.state.clone()
	c.mu.Unlock()

	if c.view != nil {
		c.view.Render(snap)
	}
}

// SetLoginInput records what the user typed into the login form.
func (c *Console) SetLoginInput(f LoginForm) {
	c.update(func(s *State) { s.Login = f })
}

// SetRegisterInput records what the user typed into the registration form.
func (c *Console) SetRegisterInput(f RegisterForm) {
	c.update(func(s *State) { s.Register = f })
}

// SetRecipientInput records the recipient address being typed.
func (c *Console) SetRecipientInput(email string) {
	c.update(func(s *State) { s.RecipientInput = email })
}
