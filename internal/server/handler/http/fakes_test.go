package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	token       models.Token
	registerErr error
	loginErr    error
	user        *models.User
	meErr       error
	lastReg     models.Registration
}

func (f *fakeAuthService) Register(ctx context.Context, req models.Registration) (models.Token, error) {
	f.lastReg = req
	return f.token, f.registerErr
}

func (f *fakeAuthService) Login(ctx context.Context, req models.Credentials) (models.Token, error) {
	return f.token, f.loginErr
}

func (f *fakeAuthService) Me(ctx context.Context, login string) (*models.User, error) {
	return f.user, f.meErr
}

// fakeSettingsService keeps per-user state in memory.
type fakeSettingsService struct {
	cfg        map[string]models.EmailConfig
	recipients map[string][]string
	err        error
}

func newFakeSettings() *fakeSettingsService {
	return &fakeSettingsService{cfg: map[string]models.EmailConfig{}, recipients: map[string][]string{}}
}

func (f *fakeSettingsService) GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error) {
	return f.cfg[login].WithDefaults(), f.err
}

func (f *fakeSettingsService) SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error {
	if f.err != nil {
		return f.err
	}
	if cfg.SenderEmail != "" && !service.ValidEmail(cfg.SenderEmail) {
		return service.ErrInvalidEmail
	}
	f.cfg[login] = cfg
	return nil
}

func (f *fakeSettingsService) ListRecipients(ctx context.Context, login string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	list := f.recipients[login]
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (f *fakeSettingsService) AddRecipient(ctx context.Context, login, email string) error {
	if f.err != nil {
		return f.err
	}
	if !service.ValidEmail(email) {
		return service.ErrInvalidEmail
	}
	for _, e := range f.recipients[login] {
		if e == email {
			return nil
		}
	}
	f.recipients[login] = append(f.recipients[login], email)
	return nil
}

func (f *fakeSettingsService) RemoveRecipient(ctx context.Context, login, email string) error {
	if f.err != nil {
		return f.err
	}
	list := f.recipients[login]
	for i, e := range list {
		if e == email {
			f.recipients[login] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return service.ErrRecipientNotFound
}

type fakeNotificationService struct {
	res   models.Result
	err   error
	login string
	req   models.AlertRequest
	email models.EmailRequest
}

func (f *fakeNotificationService) SendEmail(ctx context.Context, login string, req models.EmailRequest) (models.Result, error) {
	f.login, f.email = login, req
	return f.res, f.err
}

func (f *fakeNotificationService) SendAlert(ctx context.Context, login string, req models.AlertRequest) (models.Result, error) {
	f.login, f.req = login, req
	return f.res, f.err
}

type fakeRealtime struct {
	clients int
	user    string
}

func (f *fakeRealtime) ClientCount() int { return f.clients }

func (f *fakeRealtime) ServeWS(w http.ResponseWriter, r *http.Request, user string) {
	f.user = user
	w.WriteHeader(http.StatusSwitchingProtocols)
}

// fakeDataService keeps items in memory. Only "alice" may write and the
// "admin" collection is closed.
type fakeDataService struct {
	names []string
	items map[string]models.StoredItem
	err   error
}

func newFakeData() *fakeDataService {
	return &fakeDataService{items: map[string]models.StoredItem{}}
}

func (f *fakeDataService) Collections(ctx context.Context, user string) ([]string, error) {
	return f.names, f.err
}

func (f *fakeDataService) Set(ctx context.Context, user string, item models.DataItem) error {
	switch {
	case f.err != nil:
		return f.err
	case item.Key == "":
		return fmt.Errorf("%w: collection and key are required", service.ErrInvalidInput)
	case item.Collection == "admin":
		return &service.AccessError{Detail: "Write access denied to collection: admin"}
	}
	f.items[item.Collection+":"+item.Key] = models.StoredItem{Collection: item.Collection, Key: item.Key, Value: item.Value, Owner: user}
	return nil
}

func (f *fakeDataService) Get(ctx context.Context, user, collection, key string) (models.StoredItem, error) {
	if f.err != nil {
		return models.StoredItem{}, f.err
	}
	it, ok := f.items[collection+":"+key]
	if !ok {
		return models.StoredItem{}, service.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeDataService) List(ctx context.Context, user, collection string) (map[string]json.RawMessage, error) {
	if collection == "admin" {
		return nil, &service.AccessError{Detail: "Read access denied to collection: admin"}
	}
	out := map[string]json.RawMessage{}
	for _, it := range f.items {
		if it.Collection == collection {
			out[it.Key] = it.Value
		}
	}
	return out, f.err
}

func (f *fakeDataService) Delete(ctx context.Context, user, collection, key string) error {
	if _, ok := f.items[collection+":"+key]; !ok {
		return service.ErrItemNotFound
	}
	delete(f.items, collection+":"+key)
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
