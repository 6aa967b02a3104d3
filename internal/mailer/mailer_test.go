package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func recorder(out *[]sent, err error) SendFunc {
	return func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*out = append(*out, sent{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return err
	}
}

func TestFormatAlert(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	subject, body := FormatAlert(models.AlertRequest{
		AlertTitle:   "CPU high",
		AlertMessage: "load is 9.1",
		Data:         map[string]any{"host": "db1", "cpu": 91},
	}, at)

	assert.Equal(t, "AlphaBase Alert: CPU high", subject)
	assert.Contains(t, body, "Alert: CPU high\nTime: 2024-03-09 14:05:00\n")
	assert.Contains(t, body, "Message:\nload is 9.1\n")
	assert.Contains(t, body, "Data:\n  cpu: 91\n  host: db1\n")
	assert.True(t, strings.HasSuffix(body, "Sent by AlphaBase v4.0"))

	_, body = FormatAlert(models.AlertRequest{AlertTitle: "t", AlertMessage: "m"}, at)
	assert.NotContains(t, body, "Data:")
}

func TestSendAlert(t *testing.T) {
	var out []sent
	m := NewWithSender(recorder(&out, nil), nil)
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	cfg := models.EmailConfig{Enabled: true, SenderEmail: "ops@example.com", SenderPassword: "pw"}
	err := m.SendAlert(context.Background(), cfg, models.AlertRequest{ToEmail: "a@example.com", AlertTitle: "Test", AlertMessage: "hi"})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "smtp.gmail.com:587", out[0].addr)
	assert.NotNil(t, out[0].auth)
	assert.Equal(t, "ops@example.com", out[0].from)
	assert.Equal(t, []string{"a@example.com"}, out[0].to)
	assert.Contains(t, out[0].msg, "Subject: AlphaBase Alert: Test\r\n")
	assert.Contains(t, out[0].msg, "To: a@example.com\r\n")
	assert.Contains(t, out[0].msg, "\r\n\r\nAlphaBase Alert Notification\r\n")
}

func TestSend_Refuses(t *testing.T) {
	var out []sent
	m := NewWithSender(recorder(&out, nil), nil)
	ctx := context.Background()

	err := m.Send(ctx, models.EmailConfig{SenderEmail: "ops@example.com"}, "a@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrDisabled)

	err = m.Send(ctx, models.EmailConfig{Enabled: true}, "a@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrNotConfigured)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = m.Send(cancelled, models.EmailConfig{Enabled: true, SenderEmail: "ops@example.com"}, "a@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, out)
}

func TestSend_DeliveryError(t *testing.T) {
	var out []sent
	m := NewWithSender(recorder(&out, errors.New("535 auth failed")), nil)

	err := m.Send(context.Background(), models.EmailConfig{Enabled: true, SenderEmail: "ops@example.com"}, "a@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")
	require.Len(t, out, 1)
	assert.Nil(t, out[0].auth, "no password means no auth")
}
