// Package api is the HTTP client for the transcription portal: login
// exchange, streamed transcription jobs, export download, and the
// admin endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tn-portal/tnscribe/internal/session"
)

type Client struct {
	baseURL string
	client  *http.Client
	session *session.Store
}

type Option func(c *Client)

// WithHTTPClient replaces the underlying transport, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(baseURL string, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthHeader builds the authorization headers for the current session:
// empty when logged out, a single bearer header otherwise. Pure function
// of the session store.
func (c *Client) AuthHeader() http.Header {
	h := http.Header{}
	if tok := c.session.Token(); tok != "" {
		h.Set("Authorization", "Bearer "+tok)
	}
	return h
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.AuthHeader() {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	log.Debug().Str("method", method).Str("path", path).Msg("portal request")
	return req, nil
}

// Authenticate performs the /login exchange. It satisfies
// session.Authenticator; the store decides what to do with the result.
func (c *Client) Authenticate(ctx context.Context, login, password string) (session.Profile, string, error) {
	payload, err := json.Marshal(map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil {
		return session.Profile{}, "", fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return session.Profile{}, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return session.Profile{}, "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.Profile{}, "", &CredentialsError{Message: errorMessage(resp.Body)}
	}

	var result struct {
		Token string          `json:"token"`
		User  session.Profile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return session.Profile{}, "", fmt.Errorf("decode login response: %w", err)
	}
	return result.User, result.Token, nil
}

// Me fetches the profile behind the stored token, validating it against
// the server.
func (c *Client) Me(ctx context.Context) (session.Profile, error) {
	if !c.session.Authenticated() {
		return session.Profile{}, ErrUnauthenticated
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return session.Profile{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return session.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.Profile{}, &RequestError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var p session.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return session.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// errorMessage extracts the {"error": ...} body the portal attaches to
// failures. Returns "" when the body is not that shape.
func errorMessage(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}
