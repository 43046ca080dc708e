package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/tn-portal/tnscribe/internal/session"
)

// FilterCriteria narrows the admin transcription history. Empty fields
// are omitted from the query entirely, never sent blank.
type FilterCriteria struct {
	User      string
	StartDate string
	EndDate   string
}

func (f FilterCriteria) query() string {
	v := url.Values{}
	if f.User != "" {
		v.Set("user", f.User)
	}
	if f.StartDate != "" {
		v.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("end_date", f.EndDate)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// TranscriptionRecord is a server-owned history row, display only.
type TranscriptionRecord struct {
	ID              int64    `json:"id"`
	UserLogin       string   `json:"user_login"`
	FileName        string   `json:"file_name"`
	FilePath        string   `json:"file_path"`
	DurationSeconds *float64 `json:"duration_seconds"`
	TranscribedAt   string   `json:"transcribed_at"`
	HasText         bool     `json:"has_text"`
}

// TranscriptionDetail is one history row with its stored text.
type TranscriptionDetail struct {
	ID            int64  `json:"id"`
	UserLogin     string `json:"user_login"`
	FileName      string `json:"file_name"`
	TranscribedAt string `json:"transcribed_at"`
	FullText      string `json:"full_text"`
}

// NewUser is the creation payload for POST /admin/users.
type NewUser struct {
	Login     string `json:"login"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Users fetches the portal user list (admin endpoint).
func (c *Client) Users(ctx context.Context) ([]session.Profile, error) {
	var users []session.Profile
	if err := c.getJSON(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Transcriptions fetches the server-side history matching the criteria.
func (c *Client) Transcriptions(ctx context.Context, f FilterCriteria) ([]TranscriptionRecord, error) {
	var records []TranscriptionRecord
	if err := c.getJSON(ctx, "/admin/transcriptions"+f.query(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// TranscriptionDetail fetches one history row including its full text.
func (c *Client) TranscriptionDetail(ctx context.Context, id int64) (*TranscriptionDetail, error) {
	var detail TranscriptionDetail
	if err := c.getJSON(ctx, "/admin/transcriptions/"+strconv.FormatInt(id, 10), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateUser drives POST /admin/users.
func (c *Client) CreateUser(ctx context.Context, u NewUser) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/admin/users", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Loader fetches the role-gated admin lists. The gate is a client-side
// convenience only; the server re-checks authorization on every request.
type Loader struct {
	client  *Client
	session *session.Store

	Criteria FilterCriteria

	mu      sync.Mutex
	users   []session.Profile
	records []TranscriptionRecord
}

func NewLoader(c *Client, sess *session.Store) *Loader {
	return &Loader{client: c, session: sess}
}

// Refresh reloads both lists under the full current criteria. It returns
// immediately, issuing no requests, when the session is not an admin.
// The two fetches are independent and run concurrently; a failed fetch
// keeps the previously loaded data instead of overwriting it with
// nothing.
func (l *Loader) Refresh(ctx context.Context) error {
	if !l.session.IsAdmin() {
		return nil
	}

	criteria := l.Criteria
	var wg sync.WaitGroup
	var usersErr, recordsErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, err := l.client.Users(ctx)
		if err != nil {
			usersErr = fmt.Errorf("load users: %w", err)
			return
		}
		l.mu.Lock()
		l.users = users
		l.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		records, err := l.client.Transcriptions(ctx, criteria)
		if err != nil {
			recordsErr = fmt.Errorf("load transcriptions: %w", err)
			return
		}
		l.mu.Lock()
		l.records = records
		l.mu.Unlock()
	}()
	wg.Wait()

	return errors.Join(usersErr, recordsErr)
}

// Users returns the last successfully loaded user list.
func (l *Loader) Users() []session.Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users
}

// Records returns the last successfully loaded history.
func (l *Loader) Records() []TranscriptionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records
}
