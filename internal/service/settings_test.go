package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/repository"
)

type mockSettingsRepo struct {
	GetEmailConfigFunc  func(ctx context.Context, login string) (models.EmailConfig, error)
	SaveEmailConfigFunc func(ctx context.Context, login string, cfg models.EmailConfig) error
	ListRecipientsFunc  func(ctx context.Context, login string) ([]string, error)
	AddRecipientFunc    func(ctx context.Context, login, email string) error
	RemoveRecipientFunc func(ctx context.Context, login, email string) error
}

func (m *mockSettingsRepo) GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error) {
	return m.GetEmailConfigFunc(ctx, login)
}
func (m *mockSettingsRepo) SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error {
	return m.SaveEmailConfigFunc(ctx, login, cfg)
}
func (m *mockSettingsRepo) ListRecipients(ctx context.Context, login string) ([]string, error) {
	return m.ListRecipientsFunc(ctx, login)
}
func (m *mockSettingsRepo) AddRecipient(ctx context.Context, login, email string) error {
	return m.AddRecipientFunc(ctx, login, email)
}
func (m *mockSettingsRepo) RemoveRecipient(ctx context.Context, login, email string) error {
	return m.RemoveRecipientFunc(ctx, login, email)
}

type recordingNotifier struct {
	mu     sync.Mutex
	users  []string
	events []models.Event
}

func (n *recordingNotifier) SendTo(user string, e models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, user)
	n.events = append(n.events, e)
}

func TestGetEmailConfig_HidesPassword(t *testing.T) {
	repo := &mockSettingsRepo{
		GetEmailConfigFunc: func(ctx context.Context, login string) (models.EmailConfig, error) {
			return models.EmailConfig{Enabled: true, SenderEmail: "ops@example.com", SenderPassword: "pw"}, nil
		},
	}
	svc := NewSettingsService(repo, nil)

	cfg, err := svc.GetEmailConfig(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetEmailConfig: %v", err)
	}
	want := models.EmailConfig{Enabled: true, SMTPServer: models.DefaultSMTPServer, SMTPPort: models.DefaultSMTPPort, SenderEmail: "ops@example.com"}
	if cfg != want {
		t.Errorf("GetEmailConfig = %+v; want %+v", cfg, want)
	}
}

func TestSaveEmailConfig(t *testing.T) {
	var saved models.EmailConfig
	repo := &mockSettingsRepo{
		SaveEmailConfigFunc: func(ctx context.Context, login string, cfg models.EmailConfig) error {
			if login != "alice" {
				t.Errorf("login = %q", login)
			}
			saved = cfg
			return nil
		},
	}
	events := &recordingNotifier{}
	svc := NewSettingsService(repo, events)

	err := svc.SaveEmailConfig(context.Background(), "alice", models.EmailConfig{Enabled: true, SenderEmail: " ops@example.com ", SenderPassword: "pw"})
	if err != nil {
		t.Fatalf("SaveEmailConfig: %v", err)
	}
	want := models.EmailConfig{Enabled: true, SenderEmail: "ops@example.com", SenderPassword: "pw"}
	if saved != want {
		t.Errorf("saved = %+v; want %+v (server and port stay empty)", saved, want)
	}
	if len(events.events) != 1 || events.users[0] != "alice" || events.events[0].Action != "settings" {
		t.Errorf("events = %+v to %v", events.events, events.users)
	}
}

func TestSaveEmailConfig_Invalid(t *testing.T) {
	repo := &mockSettingsRepo{
		SaveEmailConfigFunc: func(ctx context.Context, login string, cfg models.EmailConfig) error {
			t.Fatal("repository must not be called")
			return nil
		},
	}
	svc := NewSettingsService(repo, nil)

	tests := []struct {
		name string
		cfg  models.EmailConfig
		want error
	}{
		{"port range", models.EmailConfig{SMTPPort: 70000}, ErrInvalidInput},
		{"bad sender", models.EmailConfig{SenderEmail: "nope"}, ErrInvalidEmail},
		{"enabled without sender", models.EmailConfig{Enabled: true}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.SaveEmailConfig(context.Background(), "alice", tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("SaveEmailConfig error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestRecipients(t *testing.T) {
	list := []string{}
	repo := &mockSettingsRepo{
		ListRecipientsFunc: func(ctx context.Context, login string) ([]string, error) {
			return list, nil
		},
		AddRecipientFunc: func(ctx context.Context, login, email string) error {
			for _, e := range list {
				if e == email {
					return nil
				}
			}
			list = append(list, email)
			return nil
		},
		RemoveRecipientFunc: func(ctx context.Context, login, email string) error {
			for i, e := range list {
				if e == email {
					list = append(list[:i], list[i+1:]...)
					return nil
				}
			}
			return repository.ErrRecipientNotFound
		},
	}
	events := &recordingNotifier{}
	svc := NewSettingsService(repo, events)
	ctx := context.Background()

	if err := svc.AddRecipient(ctx, "alice", "a@example.com"); err != nil {
		t.Fatalf("AddRecipient: %v", err)
	}
	if err := svc.AddRecipient(ctx, "alice", "a@example.com"); err != nil {
		t.Fatalf("AddRecipient again: %v", err)
	}
	if err := svc.AddRecipient(ctx, "alice", "bad"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("AddRecipient(bad) error = %v; want ErrInvalidEmail", err)
	}

	got, err := svc.ListRecipients(ctx, "alice")
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a@example.com"}) {
		t.Errorf("ListRecipients = %v", got)
	}

	if err := svc.RemoveRecipient(ctx, "alice", "a@example.com"); err != nil {
		t.Fatalf("RemoveRecipient: %v", err)
	}
	if err := svc.RemoveRecipient(ctx, "alice", "a@example.com"); !errors.Is(err, ErrRecipientNotFound) {
		t.Errorf("RemoveRecipient again error = %v; want ErrRecipientNotFound", err)
	}

	if len(events.events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events.events))
	}
}

func TestListRecipients_NilBecomesEmpty(t *testing.T) {
	repo := &mockSettingsRepo{
		ListRecipientsFunc: func(ctx context.Context, login string) ([]string, error) { return nil, nil },
	}
	got, err := NewSettingsService(repo, nil).ListRecipients(context.Background(), "alice")
	if err != nil || got == nil {
		t.Errorf("ListRecipients = %#v, %v", got, err)
	}
}
