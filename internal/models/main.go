// Package models defines the data structures shared by the AlphaBase server
// and the console client: users, email notification settings, alerts and
// realtime events.
package models

import (
	"encoding/json"
	"time"
)

// User represents an application user with credentials.
type User struct {
	// Username is the login name chosen by the user.
	Username string
	// Email is the address given at registration.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// CreatedAt is the registration time.
	CreatedAt time.Time
}

// Default SMTP values used when the stored email configuration omits them.
const (
	DefaultSMTPServer = "smtp.gmail.com"
	DefaultSMTPPort   = 587
)

// EmailConfig holds the email notification settings.
// SenderPassword is write-only: the server never returns it.
type EmailConfig struct {
	// Enabled turns alert emails on or off.
	Enabled bool `json:"enabled"`
	// SMTPServer is the SMTP host name.
	SMTPServer string `json:"smtp_server"`
	// SMTPPort is the SMTP port (587 for STARTTLS).
	SMTPPort int `json:"smtp_port"`
	// SenderEmail is the account alerts are sent from.
	SenderEmail string `json:"sender_email"`
	// SenderPassword authenticates SenderEmail against the SMTP server.
	SenderPassword string `json:"sender_password,omitempty"`
}

// WithDefaults returns a copy of c where an empty server or zero port is
// replaced by DefaultSMTPServer and DefaultSMTPPort.
func (c EmailConfig) WithDefaults() EmailConfig {
	if c.SMTPServer == "" {
		c.SMTPServer = DefaultSMTPServer
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = DefaultSMTPPort
	}
	return c
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the registration request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is returned by both the login and registration endpoints.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RecipientRequest is the body of POST /settings/recipients.
type RecipientRequest struct {
	Email string `json:"email"`
}

// AlertRequest is the body of POST /notifications/send-alert.
type AlertRequest struct {
	ToEmail      string         `json:"to_email"`
	AlertTitle   string         `json:"alert_title"`
	AlertMessage string         `json:"alert_message"`
	Data         map[string]any `json:"data"`
}

// EmailRequest is the body of POST /notifications/send-email.
type EmailRequest struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Result is the generic {success, message} response body.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorBody is the body written for every non-OK API response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// SystemStatus is returned by GET /system/status.
type SystemStatus struct {
	WebsocketClients int       `json:"websocket_clients"`
	Timestamp        time.Time `json:"timestamp"`
	Version          string    `json:"version"`
}

// Collections is returned by GET /data/collections.
type Collections struct {
	Success     bool     `json:"success"`
	Collections []string `json:"collections"`
}

// DataItem is the body of POST /data/set.
type DataItem struct {
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
}

// StoredItem is a data item as kept by the server.
type StoredItem struct {
	Collection string
	Key        string
	Value      json.RawMessage
	// Owner is the login that last wrote the item. Empty once that user is
	// deleted.
	Owner     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DataSetResult is returned by POST /data/set.
type DataSetResult struct {
	Success    bool   `json:"success"`
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Message    string `json:"message"`
}

// DataGetResult is returned by GET /data/get/{collection}/{key}.
type DataGetResult struct {
	Success    bool            `json:"success"`
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	Owner      string          `json:"owner"`
}

// DataListResult is returned by GET /data/list/{collection}.
type DataListResult struct {
	Success    bool                       `json:"success"`
	Collection string                     `json:"collection"`
	Count      int                        `json:"count"`
	Items      map[string]json.RawMessage `json:"items"`
}

// EventKind identifies the severity of a realtime event.
type EventKind string

const (
	// EventSuccess reports a completed action.
	EventSuccess EventKind = "success"
	// EventInfo is purely informational.
	EventInfo EventKind = "info"
	// EventWarning reports something worth attention.
	EventWarning EventKind = "warning"
	// EventError reports a failure.
	EventError EventKind = "error"
)

// Event is the message pushed to realtime subscribers.
type Event struct {
	// Action names what happened ("alert", "settings", "recipients").
	Action string `json:"action"`
	// Title is a short headline.
	Title string `json:"title"`
	// Message is the event body.
	Message string `json:"message"`
	// Kind is the severity used to style the alert.
	Kind EventKind `json:"kind"`
	// Time is when the event was produced.
	Time time.Time `json:"time"`
}
