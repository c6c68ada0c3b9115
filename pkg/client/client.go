// Package client provides the LinkHub Go SDK for the HTTP API: account
// registration and login, link management, click tracking, and public
// profile reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// ErrUnauthenticated is returned for 401 responses.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict is returned for 409 responses (duplicate username/email, or
// a click on an inactive link).
var ErrConflict = errors.New("conflict")

// User holds the public account fields returned by auth and profile calls.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Link is a full link record as returned to its owner.
type Link struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"user_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Icon       *string   `json:"icon"`
	ClickCount int       `json:"click_count"`
	IsActive   bool      `json:"is_active"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicLink is a link as shown on a public profile.
type PublicLink struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Icon       *string `json:"icon"`
	ClickCount int     `json:"click_count"`
}

// PublicProfile is a user's public page payload.
type PublicProfile struct {
	Username    string        `json:"username"`
	DisplayName *string       `json:"display_name"`
	Bio         *string       `json:"bio"`
	AvatarURL   *string       `json:"avatar_url"`
	Links       []*PublicLink `json:"links"`
}

// AuthResult is the response of Register and Login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// RegisterRequest is the payload for Register.
type RegisterRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// CreateLinkRequest is the payload for CreateLink. A nil OrderIndex appends
// after the caller's current last link.
type CreateLinkRequest struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Icon       *string `json:"icon,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
}

// Client is the LinkHub SDK entry point.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	sessionToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionToken attaches a pre-obtained session token to every request.
func WithSessionToken(token string) Option {
	return func(c *Client) { c.sessionToken = token }
}

// New creates a new Client for the API at baseURL (no trailing slash).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetSessionToken replaces the session token used for authenticated calls.
func (c *Client) SetSessionToken(token string) {
	c.sessionToken = token
}

// Register creates a new account and stores its session token on the client.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", req, &result); err != nil {
		return nil, err
	}
	c.sessionToken = result.Token
	return &result, nil
}

// Login authenticates and stores the session token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	payload := map[string]string{"email": email, "password": password}
	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", payload, &result); err != nil {
		return nil, err
	}
	c.sessionToken = result.Token
	return &result, nil
}

// UpdateProfile applies a sparse profile patch. Use nil map values carefully:
// fields must be present in the map to be changed, and an explicit nil
// clears a nullable column.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodPatch, "/api/v1/users/me/profile", fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateLink adds a link for the authenticated user.
func (c *Client) CreateLink(ctx context.Context, req CreateLinkRequest) (*Link, error) {
	var l Link
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/links", req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLink applies a sparse patch to one of the caller's links. Fields
// absent from the map are untouched; "icon" present as nil clears it.
func (c *Client) UpdateLink(ctx context.Context, id int64, fields map[string]any) (*Link, error) {
	var l Link
	path := fmt.Sprintf("/api/v1/links/%d", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, fields, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLink hard-deletes one of the caller's links.
func (c *Client) DeleteLink(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v1/links/%d", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListMyLinks returns all of the caller's links, active and inactive, in
// display order.
func (c *Client) ListMyLinks(ctx context.Context) ([]*Link, error) {
	var result struct {
		Links []*Link `json:"links"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/me/links", nil, &result); err != nil {
		return nil, err
	}
	return result.Links, nil
}

// GetPublicProfile fetches a user's public page. No session required.
func (c *Client) GetPublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	var p PublicProfile
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/u/"+username, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TrackClick records a click and returns the new count. No session required.
func (c *Client) TrackClick(ctx context.Context, id int64) (int, error) {
	var result struct {
		ClickCount int `json:"click_count"`
	}
	path := fmt.Sprintf("/api/v1/links/%d/click", id)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return 0, err
	}
	return result.ClickCount, nil
}

// doJSON performs one API round trip: marshals payload (when non-nil),
// attaches the session token, and decodes the response into out (when
// non-nil). 4xx statuses map to the package sentinel errors with the
// server's message attached.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := serverMessage(raw)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthenticated, msg)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, msg)
		default:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage extracts the "error" field from an API error body, falling
// back to the raw body.
func serverMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(raw)
}
