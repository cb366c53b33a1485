package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handlescan/handlescan/internal/core"
)

func snapchatServer(suggest http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "xsrf_token", Value: "xsrf-1"})
		_, _ = w.Write([]byte(`<html></html>`))
	})
	mux.HandleFunc("/accounts/get_username_suggestions", suggest)
	return httptest.NewServer(mux)
}

func TestSnapchatAvailable(t *testing.T) {
	server := snapchatServer(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "someuser", r.PostForm.Get("requested_username"))
		require.Equal(t, "xsrf-1", r.PostForm.Get("xsrf_token"))
		require.Contains(t, r.Header.Get("Cookie"), "xsrf_token=xsrf-1")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":{"status_code":"OK","suggestions":[]}}`))
	})
	defer server.Close()

	checker := &Snapchat{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.True(t, result.Available)
	require.Equal(t, "https://www.snapchat.com/add/someuser", result.Link)
}

func TestSnapchatTaken(t *testing.T) {
	server := snapchatServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":{"status_code":"FAILED","error_message":"someuser is already taken"}}`))
	})
	defer server.Close()

	checker := &Snapchat{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.False(t, result.Available)
	require.Equal(t, "someuser is already taken", result.Message)
}

func TestSnapchatRejectedName(t *testing.T) {
	server := snapchatServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":{"status_code":"FAILED","error_message":"Sorry! That username doesn't follow our guidelines"}}`))
	})
	defer server.Close()

	checker := &Snapchat{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Valid)
	require.Equal(t, "Sorry! That username doesn't follow our guidelines", result.Message)
}

func TestSnapchatMissingXSRFCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	checker := &Snapchat{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "setup failed")
}
