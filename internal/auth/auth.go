// Package auth is an HTTP client for a GoTrue-compatible auth service.
// Auth is optional: with no base URL configured the client reports
// itself disabled and the server runs unauthenticated, local-only.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized reports rejected credentials or an invalid token.
var ErrUnauthorized = errors.New("unauthorized")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an auth service is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.BaseURL) != ""
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// SignUp registers a new user. redirectTo, when set, is where the
// confirmation link sends the user afterwards.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (User, error) {
	path := "/signup"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	var user User
	err := c.do(ctx, http.MethodPost, path, "", map[string]string{
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// SignInWithOTP sends a one-time login code to the address.
func (c *Client) SignInWithOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/otp", "", map[string]any{
		"email":       email,
		"create_user": true,
	}, nil)
}

// UserFromToken verifies an access token upstream and returns the user
// it belongs to. An invalid or expired token is ErrUnauthorized.
func (c *Client) UserFromToken(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// SignOut revokes the session behind the token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

// gotrueError is the upstream error body, which has carried its
// message under different keys across versions.
type gotrueError struct {
	Message     string `json:"msg"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Message, e.Description, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	if !c.Enabled() {
		return fmt.Errorf("auth is not configured")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal auth payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute auth request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, upstreamMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, upstreamMessage(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode auth response: %w", err)
		}
	}
	return nil
}

func upstreamMessage(data []byte) string {
	var ge gotrueError
	if err := json.Unmarshal(data, &ge); err == nil {
		if msg := ge.text(); msg != "" {
			return msg
		}
	}
	return "auth service error"
}
