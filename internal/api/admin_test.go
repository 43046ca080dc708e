package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tn-portal/tnscribe/internal/session"
)

func TestFilterCriteriaQuery(t *testing.T) {
	for _, tc := range []struct {
		name     string
		criteria FilterCriteria
		want     url.Values
	}{
		{
			name:     "empty criteria sends no parameters",
			criteria: FilterCriteria{},
			want:     url.Values{},
		},
		{
			name:     "user only",
			criteria: FilterCriteria{User: "alice"},
			want:     url.Values{"user": {"alice"}},
		},
		{
			name:     "all fields",
			criteria: FilterCriteria{User: "alice", StartDate: "2026-01-01", EndDate: "2026-02-01"},
			want: url.Values{
				"user":       {"alice"},
				"start_date": {"2026-01-01"},
				"end_date":   {"2026-02-01"},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.criteria.query()
			if len(tc.want) == 0 {
				require.Empty(t, q)
				return
			}
			parsed, err := url.ParseQuery(q[1:]) // strip leading "?"
			require.NoError(t, err)
			require.Equal(t, tc.want, parsed)
		})
	}
}

func TestTranscriptionsFilterRoundTrip(t *testing.T) {
	var gotQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]TranscriptionRecord{})
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, adminProfile, "tok-1")

	_, err := client.Transcriptions(context.Background(), FilterCriteria{User: "alice"})
	require.NoError(t, err)
	require.Equal(t, url.Values{"user": {"alice"}}, gotQuery)
}

func TestLoaderGatesOnAdmin(t *testing.T) {
	var requests atomic.Int64
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	loader := NewLoader(client, sess)
	loader.Criteria = FilterCriteria{User: "alice", StartDate: "2026-01-01"}

	// Logged out.
	require.NoError(t, loader.Refresh(context.Background()))
	// Logged in, not admin.
	loginAs(t, sess, userProfile, "tok-1")
	require.NoError(t, loader.Refresh(context.Background()))

	require.Zero(t, requests.Load(), "non-admin refresh must issue zero requests")
}

func TestLoaderRefreshAndFailureKeepsData(t *testing.T) {
	duration := 42.5
	var failing atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]session.Profile{adminProfile, userProfile})
	})
	mux.HandleFunc("GET /admin/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]TranscriptionRecord{
			{ID: 7, UserLogin: "alice", FileName: "a.wav", DurationSeconds: &duration, HasText: true},
		})
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, adminProfile, "tok-1")

	loader := NewLoader(client, sess)
	require.NoError(t, loader.Refresh(context.Background()))
	require.Len(t, loader.Users(), 2)
	require.Len(t, loader.Records(), 1)
	require.Equal(t, int64(7), loader.Records()[0].ID)

	failing.Store(true)
	err := loader.Refresh(context.Background())
	require.Error(t, err)

	// Prior data stays displayed, never overwritten with nothing.
	require.Len(t, loader.Users(), 2)
	require.Len(t, loader.Records(), 1)
}

func TestCreateUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/users", func(w http.ResponseWriter, r *http.Request) {
		var u NewUser
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		if u.Login == "taken@portal.tn" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Ce login existe déjà"})
			return
		}
		require.Equal(t, "new@portal.tn", u.Login)
		require.Equal(t, "pw", u.Password)
		json.NewEncoder(w).Encode(map[string]string{"message": "Utilisateur créé"})
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, adminProfile, "tok-1")

	require.NoError(t, client.CreateUser(context.Background(), NewUser{Login: "new@portal.tn", Password: "pw"}))

	err := client.CreateUser(context.Background(), NewUser{Login: "taken@portal.tn", Password: "pw"})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "Ce login existe déjà", reqErr.Message)
}
