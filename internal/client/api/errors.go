package api

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced a usable response:
// the connection failed or the body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseError reports a non-OK HTTP status. Detail is taken from the
// response's "detail" field when present.
type ResponseError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ResponseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// Detail returns the server-provided detail of err, or fallback when err is
// not a ResponseError or carries none.
func Detail(err error, fallback string) string {
	var re *ResponseError
	if errors.As(err, &re) && re.Detail != "" {
		return re.Detail
	}
	return fallback
}
