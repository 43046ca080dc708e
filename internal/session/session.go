// Package session is the single source of truth for "who is logged in".
// The bearer token and the profile it authenticates are kept as a pair:
// either both are present or both are absent, in memory and on disk.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Profile mirrors the user object returned by the portal.
type Profile struct {
	Login     string `json:"login"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DisplayName returns "First Last" when available, else the login.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Login
	}
	return name
}

// Authenticator performs the credential exchange against the portal.
// Implemented by the API client; injected here so the store owns the
// state transition without owning the wire call.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (Profile, string, error)
}

const (
	tokenFile   = "token"
	profileFile = "user.json"
)

// Store holds the current session and persists it under two fixed files
// in the state directory. Writers hold the mutex for the full
// mutate-and-persist sequence, so readers never observe a half-set pair.
type Store struct {
	mu      sync.Mutex
	dir     string
	token   string
	profile *Profile
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Restore loads the persisted session. A missing or unparsable token or
// profile is not an error: "not logged in" is a normal steady state, so
// any partial or corrupt pair is cleared and the store comes up empty.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil || len(strings.TrimSpace(string(tok))) == 0 {
		s.clearLocked()
		return
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if err != nil {
		s.clearLocked()
		return
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.clearLocked()
		return
	}

	s.token = strings.TrimSpace(string(tok))
	s.profile = &p
}

// Login exchanges credentials via auth. On success both token and profile
// are set and persisted atomically with respect to other readers; on
// rejection the store is left untouched.
func (s *Store) Login(ctx context.Context, auth Authenticator, login, password string) (Profile, error) {
	profile, token, err := auth.Authenticate(ctx, login, password)
	if err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.profile = &profile
	if err := s.persistLocked(); err != nil {
		return profile, fmt.Errorf("persist session: %w", err)
	}
	return profile, nil
}

// Logout clears the in-memory and persisted session. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Profile returns a copy of the current profile, or nil when logged out.
func (s *Store) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Authenticated reports whether a full session is present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.profile != nil
}

// IsAdmin reports whether the current profile carries the admin flag.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil && s.profile.IsAdmin
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(s.token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	raw, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, profileFile), raw, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func (s *Store) clearLocked() {
	s.token = ""
	s.profile = nil
	os.Remove(filepath.Join(s.dir, tokenFile))
	os.Remove(filepath.Join(s.dir, profileFile))
}
