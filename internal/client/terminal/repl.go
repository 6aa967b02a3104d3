package terminal

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/alphabase/internal/client/console"
	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/models"
)

const helpText = `Commands:
  login <username>                 sign in (password is prompted)
  register <username> <email>      create an account and sign in
  signup | signin                  switch between the register and login forms
  logout                           sign out
  whoami                           show the signed-in user
  view <name>                      dashboard | analytics | data | collections | settings
  refresh                          reload the active view
  email enable | disable           show or hide the SMTP fields
  email save                       edit and save the email settings
  email test [address]             send a test alert (defaults to the sender email)
  recipient add <email>            add an alert recipient
  recipient rm <email>             remove an alert recipient
  help                             show this help
  exit                             quit`

// Console is the application shell driven by the REPL.
type Console interface {
	State() console.State
	Session() session.Session
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout()
	ShowRegisterForm()
	ShowLoginForm()
	SwitchView(ctx context.Context, name console.ViewName) error
	Refresh(ctx context.Context) error
	ToggleEmailSettings(enabled bool) error
	SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error
	TestEmail(ctx context.Context, address string) error
	AddRecipient(ctx context.Context, email string) error
	RemoveRecipient(ctx context.Context, email string) error
}

// REPL reads commands and runs them against a Console.
type REPL struct {
	app    Console
	prompt *Prompter
	term   *Terminal
}

// NewREPL returns a REPL. Answers to follow-up prompts are read from the
// same Prompter as the commands.
func NewREPL(app Console, prompt *Prompter, term *Terminal) *REPL {
	return &REPL{app: app, prompt: prompt, term: term}
}

// Run executes commands until exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		line, err := r.prompt.Line("alphabase> ")
		if errors.Is(err, ErrInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := r.Exec(ctx, line); quit {
			r.term.Printf("Bye\n")
			return nil
		}
	}
	return ctx.Err()
}

// Exec runs one command line. It reports whether the user asked to quit.
func (r *REPL) Exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	var err error
	switch cmd := args[0]; cmd {
	case "help":
		r.term.Printf("%s\n", helpText)
	case "exit", "quit":
		return true
	case "login":
		err = r.login(ctx, args[1:])
	case "register":
		err = r.register(ctx, args[1:])
	case "signup":
		r.app.ShowRegisterForm()
	case "signin":
		r.app.ShowLoginForm()
	case "logout":
		r.app.Logout()
	case "whoami":
		if s := r.app.Session(); s.Authenticated() {
			r.term.Printf("%s\n", s.Username)
		} else {
			r.term.Printf("not signed in\n")
		}
	case "view":
		if len(args) < 2 {
			r.term.Printf("Usage: view <name>\n")
			return false
		}
		err = r.app.SwitchView(ctx, console.ViewName(args[1]))
	case "refresh":
		err = r.app.Refresh(ctx)
	case "email":
		err = r.email(ctx, args[1:])
	case "recipient":
		err = r.recipient(ctx, args[1:])
	default:
		r.term.Printf("Unknown command. Type 'help' for a list of commands.\n")
	}

	r.report(err)
	return false
}

func (r *REPL) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		r.term.Printf("Usage: login <username>\n")
		return nil
	}
	password, err := r.prompt.Line("Password: ")
	if err != nil {
		return err
	}
	return r.app.Login(ctx, args[0], password)
}

func (r *REPL) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		r.term.Printf("Usage: register <username> <email>\n")
		return nil
	}
	password, err := r.prompt.Line("Password: ")
	if err != nil {
		return err
	}
	return r.app.Register(ctx, args[0], args[1], password)
}

func (r *REPL) email(ctx context.Context, args []string) error {
	if len(args) == 0 {
		r.term.Printf("Usage: email enable|disable|save|test [address]\n")
		return nil
	}
	switch args[0] {
	case "enable":
		return r.app.ToggleEmailSettings(true)
	case "disable":
		return r.app.ToggleEmailSettings(false)
	case "save":
		if !r.app.Session().Authenticated() {
			return console.ErrNotSignedIn
		}
		if r.app.State().ActiveView != console.ViewSettings {
			return console.ErrSettingsInactive
		}
		cfg, err := r.prompt.EmailConfig(r.app.State().Email)
		if err != nil {
			r.term.Printf("Settings not saved: %v\n", err)
			return nil
		}
		return r.app.SaveEmailConfig(ctx, cfg)
	case "test":
		address := r.app.State().Email.SenderEmail
		if len(args) > 1 {
			address = args[1]
		}
		return r.app.TestEmail(ctx, address)
	default:
		r.term.Printf("Usage: email enable|disable|save|test [address]\n")
		return nil
	}
}

func (r *REPL) recipient(ctx context.Context, args []string) error {
	if len(args) < 2 {
		r.term.Printf("Usage: recipient add|rm <email>\n")
		return nil
	}
	switch args[0] {
	case "add":
		return r.app.AddRecipient(ctx, args[1])
	case "rm", "remove":
		return r.app.RemoveRecipient(ctx, args[1])
	default:
		r.term.Printf("Usage: recipient add|rm <email>\n")
		return nil
	}
}

// report prints the errors that happen before a controller runs. Everything
// else has already been shown in a status region.
func (r *REPL) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, console.ErrNotSignedIn):
		r.term.Printf("Please sign in first.\n")
	case errors.Is(err, console.ErrUnknownView):
		r.term.Printf("%v\n", err)
	case errors.Is(err, console.ErrSettingsInactive):
		r.term.Printf("Open the settings view first: view settings\n")
	}
}
