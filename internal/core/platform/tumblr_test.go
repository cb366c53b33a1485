package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handlescan/handlescan/internal/core"
)

func tumblrServer(register http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "tmgioct", Value: "oct-1"})
		_, _ = w.Write([]byte(`<html><head><meta name="tumblr-form-key" id="tumblr_form_key" content="form-key-1"></head></html>`))
	})
	mux.HandleFunc("/svc/account/register", register)
	return httptest.NewServer(mux)
}

func TestTumblrUsernameAvailable(t *testing.T) {
	server := tumblrServer(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "signup_account", r.PostForm.Get("action"))
		require.Equal(t, "form-key-1", r.PostForm.Get("form_key"))
		require.Equal(t, "someuser", r.PostForm.Get("tumblelog[name]"))
		require.NotEqual(t, "someuser", r.PostForm.Get("user[email]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[]}`))
	})
	defer server.Close()

	checker := &Tumblr{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.True(t, result.Available)
	require.Equal(t, "https://someuser.tumblr.com", result.Link)
}

func TestTumblrUsernameTaken(t *testing.T) {
	server := tumblrServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":["That's a good name, but it's taken."]}`))
	})
	defer server.Close()

	checker := &Tumblr{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.False(t, result.Available)
}

func TestTumblrEmailTaken(t *testing.T) {
	server := tumblrServer(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "someone@example.com", r.PostForm.Get("user[email]"))
		require.NotEqual(t, "someone@example.com", r.PostForm.Get("tumblelog[name]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":["This email address is already in use."]}`))
	})
	defer server.Close()

	checker := &Tumblr{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someone@example.com"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.False(t, result.Available)
	require.Equal(t, "This email address is already in use.", result.Message)
}

func TestTumblrEmailRejected(t *testing.T) {
	server := tumblrServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":["This email address isn't correct. Please try again."]}`))
	})
	defer server.Close()

	checker := &Tumblr{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someone@example.com"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Valid)
	require.Equal(t, "This email address isn't correct. Please try again.", result.Message)
}

func TestTumblrNestedErrorShape(t *testing.T) {
	server := tumblrServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta":{"status":200},"response":{"errors":["That's a good name, but it's in use."]}}`))
	})
	defer server.Close()

	checker := &Tumblr{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someuser"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Available)
}
