package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  alice  \n"), &out)

	got, err := p.Line("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", out.String())

	_, err = p.Line("again: ")
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestPrompter_Default(t *testing.T) {
	p := NewPrompter(strings.NewReader("\nmail.example.com\n"), &bytes.Buffer{})

	got, err := p.Default("SMTP server", "smtp.gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", got)

	got, err = p.Default("SMTP server", "smtp.gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", got)
}

func TestPrompter_EmailConfig(t *testing.T) {
	input := strings.Join([]string{
		"y",               // enabled
		"",                // keep server
		"465",             // port
		"ops@example.com", // sender
		"app-password",    // password
	}, "\n") + "\n"

	p := NewPrompter(strings.NewReader(input), &bytes.Buffer{})
	cfg, err := p.EmailConfig(models.EmailConfig{SenderPassword: "old"})
	require.NoError(t, err)

	assert.Equal(t, models.EmailConfig{
		Enabled:        true,
		SMTPServer:     models.DefaultSMTPServer,
		SMTPPort:       465,
		SenderEmail:    "ops@example.com",
		SenderPassword: "app-password",
	}, cfg)
}

func TestPrompter_EmailConfigKeepsPasswordEmpty(t *testing.T) {
	p := NewPrompter(strings.NewReader("n\n\n\n\n\n"), &bytes.Buffer{})
	cfg, err := p.EmailConfig(models.EmailConfig{Enabled: true, SenderEmail: "a@b.co", SenderPassword: "old"})
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "a@b.co", cfg.SenderEmail)
	assert.Empty(t, cfg.SenderPassword)
}

func TestPrompter_EmailConfigBadPort(t *testing.T) {
	p := NewPrompter(strings.NewReader("y\n\nabc\n"), &bytes.Buffer{})
	_, err := p.EmailConfig(models.EmailConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid port "abc"`)
}
