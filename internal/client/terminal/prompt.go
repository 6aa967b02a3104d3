package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/alphabase/internal/models"
)

// ErrInputClosed is returned when the input ends mid-prompt.
var ErrInputClosed = errors.New("input closed")

// Prompter reads answers line by line.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Line prompts and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Default prompts with a default shown in brackets, returned on an empty
// answer.
func (p *Prompter) Default(label, def string) (string, error) {
	v, err := p.Line(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// EmailConfig asks for every field of the email form, starting from cur.
// The password is never prefilled; leaving it empty keeps the stored one.
func (p *Prompter) EmailConfig(cur models.EmailConfig) (models.EmailConfig, error) {
	cfg := cur.WithDefaults()
	cfg.SenderPassword = ""

	enabled, err := p.Default("Enable email notifications (y/n)", yesNo(cfg.Enabled))
	if err != nil {
		return cfg, err
	}
	cfg.Enabled = strings.HasPrefix(strings.ToLower(enabled), "y")

	if cfg.SMTPServer, err = p.Default("SMTP server", cfg.SMTPServer); err != nil {
		return cfg, err
	}

	port, err := p.Default("SMTP port", strconv.Itoa(cfg.SMTPPort))
	if err != nil {
		return cfg, err
	}
	if cfg.SMTPPort, err = strconv.Atoi(port); err != nil {
		return cfg, fmt.Errorf("invalid port %q", port)
	}

	if cfg.SenderEmail, err = p.Default("Sender email", cfg.SenderEmail); err != nil {
		return cfg, err
	}
	if cfg.SenderPassword, err = p.Line("Sender password (app password, empty keeps current): "); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
