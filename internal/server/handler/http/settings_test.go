package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/go-chi/chi/v5"
)

func asUser(req *http.Request, user string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func TestSettingsHandler_Email(t *testing.T) {
	svc := newFakeSettings()
	h := &SettingsHandler{SettingsService: svc}

	rec := httptest.NewRecorder()
	body := `{"enabled":true,"smtp_server":"mail.example.com","smtp_port":465,"sender_email":"ops@example.com","sender_password":"pw"}`
	h.SaveEmail(rec, asUser(httptest.NewRequest("POST", "/settings/email", bytes.NewBufferString(body)), "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}
	var res models.Result
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res != (models.Result{Success: true, Message: "Email settings updated"}) {
		t.Errorf("save result = %+v", res)
	}

	rec = httptest.NewRecorder()
	h.GetEmail(rec, asUser(httptest.NewRequest("GET", "/settings/email", nil), "alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["sender_password"]; ok {
		t.Error("password must never be returned")
	}
	if raw["smtp_server"] != "mail.example.com" || raw["smtp_port"] != float64(465) || raw["enabled"] != true {
		t.Errorf("settings = %v", raw)
	}
}

func TestSettingsHandler_EmailErrors(t *testing.T) {
	svc := newFakeSettings()
	h := &SettingsHandler{SettingsService: svc}

	rec := httptest.NewRecorder()
	h.SaveEmail(rec, asUser(httptest.NewRequest("POST", "/settings/email", bytes.NewBufferString(`{"sender_email":"bad"}`)), "alice"))
	if rec.Code != http.StatusBadRequest || decodeDetail(t, rec.Body) != "Invalid email address" {
		t.Errorf("invalid sender: status %d", rec.Code)
	}

	svc.err = errors.New("db down")
	rec = httptest.NewRecorder()
	h.GetEmail(rec, asUser(httptest.NewRequest("GET", "/settings/email", nil), "alice"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("get with storage error: status %d", rec.Code)
	}
}

func TestSettingsHandler_Recipients(t *testing.T) {
	svc := newFakeSettings()
	h := &SettingsHandler{SettingsService: svc}

	r := chi.NewRouter()
	r.Get("/settings/recipients", h.ListRecipients)
	r.Post("/settings/recipients", h.AddRecipient)
	r.Delete("/settings/recipients/{email}", h.RemoveRecipient)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, asUser(req, "alice"))
		return rec
	}

	rec := do("GET", "/settings/recipients", "")
	if rec.Code != http.StatusOK || bytes.TrimSpace(rec.Body.Bytes())[0] != '[' {
		t.Fatalf("empty list: %d %s", rec.Code, rec.Body)
	}

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		rec = do("POST", "/settings/recipients", `{"email":"`+email+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("add %s: status %d", email, rec.Code)
		}
	}
	rec = do("POST", "/settings/recipients", `{"email":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("add invalid: status %d", rec.Code)
	}

	rec = do("DELETE", "/settings/recipients/a@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status %d", rec.Code)
	}
	var res models.Result
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Message != "Recipient removed" {
		t.Errorf("remove result = %+v", res)
	}

	rec = do("DELETE", "/settings/recipients/a@example.com", "")
	if rec.Code != http.StatusNotFound || decodeDetail(t, rec.Body) != "Recipient not found" {
		t.Errorf("remove missing: status %d", rec.Code)
	}

	rec = do("GET", "/settings/recipients", "")
	var list []string
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(list, []string{"b@example.com"}) {
		t.Errorf("recipients = %v", list)
	}
}

func TestSettingsHandler_RecipientsStorageError(t *testing.T) {
	svc := newFakeSettings()
	svc.err = errors.New("db down")
	h := &SettingsHandler{SettingsService: svc}

	rec := httptest.NewRecorder()
	h.ListRecipients(rec, asUser(httptest.NewRequest("GET", "/settings/recipients", nil), "alice"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/settings/recipients/x", nil)
	h.RemoveRecipient(rec, req.WithContext(middleware.WithUser(context.Background(), "alice")))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", rec.Code)
	}
}
