package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/service"
)

func TestSystemHandler_Status(t *testing.T) {
	h := &SystemHandler{Realtime: &fakeRealtime{clients: 3}, Now: func() time.Time { return fixedNow }}

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest("GET", "/system/status", nil))

	var st models.SystemStatus
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := models.SystemStatus{WebsocketClients: 3, Timestamp: fixedNow, Version: "4.0.0"}
	if !st.Timestamp.Equal(want.Timestamp) || st.WebsocketClients != 3 || st.Version != want.Version {
		t.Errorf("status = %+v; want %+v", st, want)
	}
}

func TestNotificationHandler_SendAlert(t *testing.T) {
	svc := &fakeNotificationService{res: models.Result{Success: false, Message: "Failed to send alert"}}
	h := &NotificationHandler{NotificationService: svc}

	body := `{"to_email":"a@example.com","alert_title":"Test Email","alert_message":"hi","data":{}}`
	rec := httptest.NewRecorder()
	h.SendAlert(rec, asUser(httptest.NewRequest("POST", "/notifications/send-alert", bytes.NewBufferString(body)), "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res models.Result
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Success || res.Message != "Failed to send alert" {
		t.Errorf("result = %+v", res)
	}
	if svc.login != "alice" || svc.req.AlertTitle != "Test Email" {
		t.Errorf("service got %q %+v", svc.login, svc.req)
	}

	svc.err = service.ErrInvalidEmail
	rec = httptest.NewRecorder()
	h.SendAlert(rec, asUser(httptest.NewRequest("POST", "/notifications/send-alert", bytes.NewBufferString(body)), "alice"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestNotificationHandler_SendEmail(t *testing.T) {
	svc := &fakeNotificationService{res: models.Result{Success: true, Message: "Email sent successfully"}}
	h := &NotificationHandler{NotificationService: svc}

	body := `{"to_email":"a@example.com","subject":"Hello","body":"hi"}`
	rec := httptest.NewRecorder()
	h.SendEmail(rec, asUser(httptest.NewRequest("POST", "/notifications/send-email", bytes.NewBufferString(body)), "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.login != "alice" || svc.email != (models.EmailRequest{ToEmail: "a@example.com", Subject: "Hello", Body: "hi"}) {
		t.Errorf("service got %q %+v", svc.login, svc.email)
	}

	svc.err = service.ErrInvalidInput
	rec = httptest.NewRecorder()
	h.SendEmail(rec, asUser(httptest.NewRequest("POST", "/notifications/send-email", bytes.NewBufferString(body)), "alice"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}
