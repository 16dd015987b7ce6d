// Package client is a Go client for the Inkwell API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/session"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "inkwell-client/1.0"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a fixed access token.
type StaticToken string

func (t StaticToken) AccessToken() string { return string(t) }

// Client wraps a resty client configured for one API base URL.
type Client struct {
	baseURL string
	http    *resty.Client
	tokens  TokenSource
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithTokenSource sets where bearer tokens come from. Without one requests
// are sent unauthenticated.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL}
	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Token == "" && c.tokens != nil {
			if token := c.tokens.AccessToken(); token != "" {
				req.SetAuthToken(token)
			}
		}
		logger.Log.Debug("HTTP request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Log.Debug("HTTP response", zap.Int("status", resp.StatusCode()), zap.Duration("elapsed", resp.Time()))
		return nil
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// do sends req and decodes the envelope's data into out when out is non-nil.
func (c *Client) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return &Error{StatusCode: resp.StatusCode(), Code: "UNKNOWN", Message: resp.Status()}
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.IsError() || !env.Success {
		apiErr := &Error{StatusCode: resp.StatusCode(), Code: "UNKNOWN", Message: resp.Status()}
		if env.Error != nil {
			apiErr.Code, apiErr.Message, apiErr.Field = env.Error.Code, env.Error.Message, env.Error.Field
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

type authResult struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

func (a authResult) session() *session.Session {
	return &session.Session{
		UserID:       a.User.ID,
		Email:        a.User.Email,
		AccessToken:  a.Tokens.AccessToken,
		RefreshToken: a.Tokens.RefreshToken,
		ExpiresAt:    a.Tokens.ExpiresAt,
	}
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	var out authResult
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"email": email, "password": password})
	if err := c.do(req, http.MethodPost, "/api/auth/signin", &out); err != nil {
		return nil, err
	}
	return out.session(), nil
}

// Refresh implements session.Authenticator.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	var out authResult
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"refresh_token": refreshToken})
	if err := c.do(req, http.MethodPost, "/api/auth/refresh", &out); err != nil {
		return nil, err
	}
	return out.session(), nil
}

// IsAdmin implements session.Authenticator using the given token rather
// than the client's token source.
func (c *Client) IsAdmin(ctx context.Context, accessToken string) (bool, error) {
	var out struct {
		IsAdmin bool `json:"is_admin"`
	}
	req := c.http.R().SetContext(ctx).SetAuthToken(accessToken)
	if err := c.do(req, http.MethodGet, "/api/auth/me", &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

// ListNotifications returns up to limit rows newest first. limit <= 0 uses
// the server default.
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	req := c.http.R().SetContext(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	var rows []models.Notification
	if err := c.do(req, http.MethodGet, "/api/notifications", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Poll implements inbox.Poller.
func (c *Client) Poll(ctx context.Context) ([]models.Notification, error) {
	return c.ListNotifications(ctx, 0)
}

func (c *Client) GetNotification(ctx context.Context, id uint) (*models.Notification, error) {
	var row models.Notification
	if err := c.do(c.http.R().SetContext(ctx), http.MethodGet, fmt.Sprintf("/api/notifications/%d", id), &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(c.http.R().SetContext(ctx), http.MethodGet, "/api/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkAsRead(ctx context.Context, id uint) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", id), nil)
}

func (c *Client) MarkAllAsRead(ctx context.Context) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodPut, "/api/notifications/read-all", nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id uint) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodDelete, fmt.Sprintf("/api/notifications/%d", id), nil)
}
