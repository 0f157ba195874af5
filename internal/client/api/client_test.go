package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/register", r.URL.Path)

		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "PEM", body["publicKey"])

		json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice", SessionID: "s1", NetworkKey: "k1"})
	}))
	defer srv.Close()

	user, err := NewClient(srv.URL, 5*time.Second).Register(context.Background(), "alice", "PEM")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "s1", user.SessionID)
	assert.Equal(t, "k1", user.NetworkKey)
}

func TestLogin_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "User not found"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Login(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrorNotFound)
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/user/u2", r.URL.Path)
		json.NewEncoder(w).Encode(PublicUser{ID: "u2", Username: "bob", PublicKey: "PEM", SessionID: "s2"})
	}))
	defer srv.Close()

	peer, err := NewClient(srv.URL, 5*time.Second).Lookup(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "bob", peer.Username)
	assert.Equal(t, "PEM", peer.PublicKey)
}

func TestRefreshSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/update-session/u1", r.URL.Path)
		json.NewEncoder(w).Encode(SessionCredentials{SessionID: "new-s", NetworkKey: "new-k"})
	}))
	defer srv.Close()

	creds, err := NewClient(srv.URL, 5*time.Second).RefreshSession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-s", creds.SessionID)
	assert.Equal(t, "new-k", creds.NetworkKey)
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/users", r.URL.Path)
		json.NewEncoder(w).Encode([]User{{ID: "u1"}, {ID: "u2"}})
	}))
	defer srv.Close()

	users, err := NewClient(srv.URL, 5*time.Second).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestPresence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/presence", r.URL.Path)
		json.NewEncoder(w).Encode([]string{"u1", "u3"})
	}))
	defer srv.Close()

	online, err := NewClient(srv.URL, 5*time.Second).Presence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, online)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).List(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrorNotFound)
}
