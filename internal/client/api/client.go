// Package api is the console's HTTP transport to the AlphaBase server.
// Authenticated calls take their bearer token from the session store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/models"
)

const (
	apiLogin       = "/auth/login"
	apiRegister    = "/auth/register"
	apiEmail       = "/settings/email"
	apiRecipients  = "/settings/recipients"
	apiSendAlert   = "/notifications/send-alert"
	apiStatus      = "/system/status"
	apiCollections = "/data/collections"
	apiDataList    = "/data/list/"
)

// LoginResult is the outcome of a login attempt that reached the server.
type LoginResult struct {
	Success     bool
	AccessToken string
	Detail      string
}

// Client calls the AlphaBase HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
}

// New returns a client for baseURL. sess supplies the bearer token.
func New(baseURL string, httpClient *http.Client, sess *session.Store) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: sess,
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials to /auth/login. Rejected credentials are reported
// as an unsuccessful result, not an error; errors are reserved for transport
// failures and unexpected statuses.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	const op = "login"
	resp, err := c.do(ctx, op, http.MethodPost, apiLogin, models.Credentials{Username: username, Password: password}, false)
	if err != nil {
		return LoginResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var tok models.Token
		if err := decode(op, resp.Body, &tok); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Success: tok.AccessToken != "", AccessToken: tok.AccessToken}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return LoginResult{Success: false, Detail: readDetail(resp.Body)}, nil
	default:
		return LoginResult{}, responseError(op, resp)
	}
}

// Register creates an account. The server answers with an access token, so
// no separate login is needed.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.Token, error) {
	const op = "register"
	var tok models.Token
	body := models.Registration{Username: username, Email: email, Password: password}
	if err := c.call(ctx, op, http.MethodPost, apiRegister, body, false, &tok); err != nil {
		return models.Token{}, err
	}
	return tok, nil
}

// GetEmailConfig fetches the email notification settings.
func (c *Client) GetEmailConfig(ctx context.Context) (models.EmailConfig, error) {
	var cfg models.EmailConfig
	if err := c.call(ctx, "get email config", http.MethodGet, apiEmail, nil, true, &cfg); err != nil {
		return models.EmailConfig{}, err
	}
	return cfg, nil
}

// SaveEmailConfig stores cfg, password included.
func (c *Client) SaveEmailConfig(ctx context.Context, cfg models.EmailConfig) error {
	return c.call(ctx, "save email config", http.MethodPost, apiEmail, cfg, true, nil)
}

// ListRecipients returns the alert recipients in server order.
func (c *Client) ListRecipients(ctx context.Context) ([]string, error) {
	var list []string
	if err := c.call(ctx, "list recipients", http.MethodGet, apiRecipients, nil, true, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// AddRecipient registers email as an alert recipient.
func (c *Client) AddRecipient(ctx context.Context, email string) error {
	return c.call(ctx, "add recipient", http.MethodPost, apiRecipients, models.RecipientRequest{Email: email}, true, nil)
}

// RemoveRecipient deletes email from the recipients. A missing recipient is
// reported as a 404 ResponseError; see IsNotFound.
func (c *Client) RemoveRecipient(ctx context.Context, email string) error {
	return c.call(ctx, "remove recipient", http.MethodDelete, apiRecipients+"/"+url.PathEscape(email), nil, true, nil)
}

// SendAlert asks the server to email an alert.
func (c *Client) SendAlert(ctx context.Context, req models.AlertRequest) (models.Result, error) {
	var res models.Result
	if req.Data == nil {
		req.Data = map[string]any{}
	}
	if err := c.call(ctx, "send alert", http.MethodPost, apiSendAlert, req, true, &res); err != nil {
		return models.Result{}, err
	}
	return res, nil
}

// SystemStatus fetches server status for the dashboard.
func (c *Client) SystemStatus(ctx context.Context) (models.SystemStatus, error) {
	var st models.SystemStatus
	if err := c.call(ctx, "system status", http.MethodGet, apiStatus, nil, true, &st); err != nil {
		return models.SystemStatus{}, err
	}
	return st, nil
}

// Collections lists the data collections readable by the current user.
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	var res models.Collections
	if err := c.call(ctx, "list collections", http.MethodGet, apiCollections, nil, true, &res); err != nil {
		return nil, err
	}
	return res.Collections, nil
}

// ListData fetches the items of collection the current user may read.
func (c *Client) ListData(ctx context.Context, collection string) (models.DataListResult, error) {
	var res models.DataListResult
	if err := c.call(ctx, "list data", http.MethodGet, apiDataList+url.PathEscape(collection), nil, true, &res); err != nil {
		return models.DataListResult{}, err
	}
	return res, nil
}

// call performs a request and decodes a 2xx body into out (when non-nil).
func (c *Client) call(ctx context.Context, op, method, path string, body any, auth bool, out any) error {
	resp, err := c.do(ctx, op, method, path, body, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decode(op, resp.Body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func decode(op string, r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

func responseError(op string, resp *http.Response) error {
	return &ResponseError{Op: op, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
}

func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body models.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		return body.Detail
	}
	return ""
}
