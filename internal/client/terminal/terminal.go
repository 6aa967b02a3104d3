// Package terminal is the line-oriented front end of the console: it renders
// console state, status regions and alerts as text and reads commands.
package terminal

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/alphabase/internal/client/console"
	"github.com/atinyakov/alphabase/internal/client/status"
)

// Terminal writes console output. It implements console.View and provides
// the status and alert callbacks. All writes go through one lock so output
// from background goroutines does not interleave mid-line.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	last *console.State
}

// New returns a Terminal writing to out.
func New(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Write implements io.Writer so other components can share the lock.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Write(p)
}

// Printf writes a formatted line.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// Render prints what changed since the previous state.
func (t *Terminal) Render(s console.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.last
	t.last = &s

	if prev == nil || prev.Screen != s.Screen {
		t.renderScreen(s)
		if s.Screen == console.ScreenLogin {
			return
		}
	}
	if s.Screen == console.ScreenLogin {
		if prev != nil && prev.AuthForm != s.AuthForm {
			t.renderAuthForm(s.AuthForm)
		}
		return
	}

	if prev == nil || prev.Screen != s.Screen || prev.ActiveView != s.ActiveView {
		t.renderNav(s)
	}
	if s.ActiveView != console.ViewSettings {
		return
	}
	if prev == nil || prev.ActiveView != s.ActiveView || prev.EmailSettingsVisible != s.EmailSettingsVisible || prev.Email != s.Email {
		t.renderEmail(s)
	}
	if prev == nil || prev.ActiveView != s.ActiveView || !slices.Equal(prev.Recipients, s.Recipients) {
		t.renderRecipients(s.Recipients)
	}
}

// Status renders a status region change. Hidden messages print nothing.
func (t *Terminal) Status(region string, msg status.Message) {
	if !msg.Visible {
		return
	}
	t.Printf("[%s] %s %s\n", region, marker(msg.Kind), msg.Text)
}

// Alert renders a transient alert.
func (t *Terminal) Alert(title, message string, kind status.Kind, _ time.Duration) {
	if message == "" {
		t.Printf("%s %s\n", marker(kind), title)
		return
	}
	t.Printf("%s %s: %s\n", marker(kind), title, message)
}

func (t *Terminal) renderScreen(s console.State) {
	if s.Screen == console.ScreenLogin {
		fmt.Fprintln(t.out, "== AlphaBase: signed out ==")
		t.renderAuthForm(s.AuthForm)
		return
	}
	fmt.Fprintf(t.out, "== AlphaBase console: %s ==\n", s.CurrentUser)
}

func (t *Terminal) renderAuthForm(f console.AuthForm) {
	if f == console.FormRegister {
		fmt.Fprintln(t.out, "Create an account: register <username> <email>  (or 'signin' to go back)")
		return
	}
	fmt.Fprintln(t.out, "Sign in: login <username>  (or 'signup' to create an account)")
}

func (t *Terminal) renderNav(s console.State) {
	items := make([]string, 0, len(console.Views))
	for _, v := range console.Views {
		if v == s.ActiveNav {
			items = append(items, "["+string(v)+"]")
		} else {
			items = append(items, string(v))
		}
	}
	fmt.Fprintln(t.out, strings.Join(items, " | "))
}

func (t *Terminal) renderEmail(s console.State) {
	state := "disabled"
	if s.Email.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(t.out, "Email notifications: %s\n", state)
	if !s.EmailSettingsVisible {
		return
	}
	fmt.Fprintf(t.out, "  SMTP server:  %s:%d\n", s.Email.SMTPServer, s.Email.SMTPPort)
	fmt.Fprintf(t.out, "  Sender email: %s\n", s.Email.SenderEmail)
}

func (t *Terminal) renderRecipients(list []string) {
	if len(list) == 0 {
		fmt.Fprintln(t.out, "Recipients: none")
		return
	}
	fmt.Fprintln(t.out, "Recipients:")
	for _, r := range list {
		fmt.Fprintf(t.out, "  - %s\n", r)
	}
}

func marker(k status.Kind) string {
	switch k {
	case status.Success:
		return "✓"
	case status.Error:
		return "✗"
	case status.Warning:
		return "!"
	default:
		return "i"
	}
}
