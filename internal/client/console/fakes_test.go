package console

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/atinyakov/alphabase/internal/client/api"
	"github.com/atinyakov/alphabase/internal/client/status"
	"github.com/atinyakov/alphabase/internal/models"
)

var errNetwork = &api.TransportError{Op: "test", Err: errors.New("network down")}

// fakeAuthAPI returns preconfigured login/register results.
type fakeAuthAPI struct {
	loginResult api.LoginResult
	loginErr    error
	token       models.Token
	registerErr error

	loginCalls    int
	registerCalls int
}

func (f *fakeAuthAPI) Login(ctx context.Context, username, password string) (api.LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuthAPI) Register(ctx context.Context, username, email, password string) (models.Token, error) {
	f.registerCalls++
	return f.token, f.registerErr
}

// fakeSettingsAPI is an in-memory settings backend whose calls can be made
// to fail.
type fakeSettingsAPI struct {
	cfg        models.EmailConfig
	getErr     error
	saveErr    error
	saved      []models.EmailConfig
	recipients []string
	listErr    error
	addErr     error
	removeErr  error
	alert      models.Result
	alertErr   error
	alerts     []models.AlertRequest
	added      []string
	removed    []string
}

func (f *fakeSettingsAPI) GetEmailConfig(ctx context.Context) (models.EmailConfig, error) {
	return f.cfg, f.getErr
}

func (f *fakeSettingsAPI) SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error {
	f.saved = append(f.saved, cfg)
	return f.saveErr
}

func (f *fakeSettingsAPI) ListRecipients(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string{}, f.recipients...), nil
}

func (f *fakeSettingsAPI) AddRecipient(ctx context.Context, email string) error {
	f.added = append(f.added, email)
	return f.addErr
}

func (f *fakeSettingsAPI) RemoveRecipient(ctx context.Context, email string) error {
	f.removed = append(f.removed, email)
	return f.removeErr
}

func (f *fakeSettingsAPI) SendAlert(ctx context.Context, req models.AlertRequest) (models.Result, error) {
	f.alerts = append(f.alerts, req)
	return f.alert, f.alertErr
}

type alertCall struct {
	title, message string
	kind           status.Kind
	d              time.Duration
}

// fakeRealtime records connect/disconnect and alerts.
type fakeRealtime struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	connectErr  error
	alerts      []alertCall
}

func (f *fakeRealtime) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeRealtime) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeRealtime) ShowAlert(title, message string, kind status.Kind, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alertCall{title, message, kind, d})
}

// countingLoader counts Load calls.
type countingLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *countingLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.err
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// recordingView keeps every rendered state.
type recordingView struct {
	mu     sync.Mutex
	states []State
}

func (v *recordingView) Render(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, s)
}

func (v *recordingView) last() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[len(v.states)-1]
}

type harness struct {
	app         *App
	auth        *fakeAuthAPI
	settings    *fakeSettingsAPI
	realtime    *fakeRealtime
	dashboard   *countingLoader
	analytics   *countingLoader
	collections *countingLoader
	view        *recordingView
}

func newHarness() *harness {
	h := &harness{
		auth:        &fakeAuthAPI{loginResult: api.LoginResult{Success: true, AccessToken: "tok"}, token: models.Token{AccessToken: "reg-tok"}},
		settings:    &fakeSettingsAPI{alert: models.Result{Success: true}},
		realtime:    &fakeRealtime{},
		dashboard:   &countingLoader{},
		analytics:   &countingLoader{},
		collections: &countingLoader{},
		view:        &recordingView{},
	}
	h.app = NewApp(Deps{
		View:        h.view,
		Auth:        h.auth,
		Settings:    h.settings,
		Realtime:    h.realtime,
		Dashboard:   h.dashboard,
		Analytics:   h.analytics,
		Collections: h.collections,
	}, Options{})
	return h
}

// signedInSettings signs in and opens the settings view.
func (h *harness) signedInSettings() {
	ctx := context.Background()
	if err := h.app.Login(ctx, "alice", "pw"); err != nil {
		panic(err)
	}
	if err := h.app.SwitchView(ctx, ViewSettings); err != nil {
		panic(err)
	}
}

func notFound() error {
	return &api.ResponseError{Op: "remove recipient", StatusCode: http.StatusNotFound, Detail: "Recipient not found"}
}
