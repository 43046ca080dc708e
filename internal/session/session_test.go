package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	profile Profile
	token   string
	err     error
}

func (a stubAuth) Authenticate(ctx context.Context, login, password string) (Profile, string, error) {
	if a.err != nil {
		return Profile{}, "", a.err
	}
	return a.profile, a.token, nil
}

var adminProfile = Profile{
	Login:     "admin@portal.tn",
	FirstName: "Admin",
	LastName:  "Portail",
	Email:     "admin@portal.tn",
	IsAdmin:   true,
}

func TestLoginPersistsAndRestores(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Login(context.Background(), stubAuth{profile: adminProfile, token: "tok-1"}, "admin@portal.tn", "secret")
	require.NoError(t, err)
	require.True(t, store.Authenticated())
	require.True(t, store.IsAdmin())
	require.Equal(t, "tok-1", store.Token())

	// A fresh store over the same dir sees the same session.
	restored := NewStore(dir)
	restored.Restore()
	require.True(t, restored.Authenticated())
	require.Equal(t, "tok-1", restored.Token())
	require.Equal(t, "admin@portal.tn", restored.Profile().Login)
}

func TestLoginRejectionLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Login(context.Background(), stubAuth{profile: adminProfile, token: "tok-1"}, "a", "b")
	require.NoError(t, err)

	_, err = store.Login(context.Background(), stubAuth{err: errors.New("login rejected")}, "a", "wrong")
	require.Error(t, err)

	require.True(t, store.Authenticated())
	require.Equal(t, "tok-1", store.Token())
}

func TestRestorePartialOrCorruptStateIsAbsent(t *testing.T) {
	validProfile := `{"login":"user@portal.tn","is_admin":false}`

	for _, tc := range []struct {
		name    string
		token   string
		profile string
	}{
		{name: "token only", token: "tok-1"},
		{name: "profile only", profile: validProfile},
		{name: "corrupt profile", token: "tok-1", profile: "{not json"},
		{name: "empty token", token: "   \n", profile: validProfile},
		{name: "nothing"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.token != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte(tc.token), 0o600))
			}
			if tc.profile != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte(tc.profile), 0o600))
			}

			store := NewStore(dir)
			store.Restore()

			require.False(t, store.Authenticated())
			require.Empty(t, store.Token())
			require.Nil(t, store.Profile())
			require.False(t, store.IsAdmin())
		})
	}
}

func TestLogoutClearsEverythingAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Login(context.Background(), stubAuth{profile: adminProfile, token: "tok-1"}, "a", "b")
	require.NoError(t, err)

	store.Logout()
	store.Logout()

	require.False(t, store.Authenticated())
	_, err = os.Stat(filepath.Join(dir, "token"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "user.json"))
	require.True(t, os.IsNotExist(err))

	restored := NewStore(dir)
	restored.Restore()
	require.False(t, restored.Authenticated())
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Admin Portail", adminProfile.DisplayName())
	require.Equal(t, "user@portal.tn", Profile{Login: "user@portal.tn"}.DisplayName())
}
