package console

import "errors"

// ErrUnknownView is returned for a view name outside Views.
var ErrUnknownView = errors.New("unknown view")

// ErrNotSignedIn is returned by App for console actions without a session.
var ErrNotSignedIn = errors.New("not signed in")

// ErrSettingsInactive is returned by App for settings actions while another
// view is active.
var ErrSettingsInactive = errors.New("settings view is not active")

// ErrLoginRejected is returned by Login when the server refused the credentials.
var ErrLoginRejected = errors.New("login rejected")

// ErrNoToken is returned by Register when the server accepted the account
// but sent no access token.
var ErrNoToken = errors.New("no access token in response")

// ValidationError reports user input rejected before any request was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
