package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handlescan/handlescan/internal/core"
)

func TestPinterestAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_ngjs/resource/EmailExistsResource/get/", r.URL.Path)
		require.Equal(t, "/", r.URL.Query().Get("source_url"))

		var data struct {
			Options struct {
				Email string `json:"email"`
			} `json:"options"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("data")), &data))
		require.Equal(t, "someone@example.com", data.Options.Email)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resource_response":{"data":false}}`))
	}))
	defer server.Close()

	checker := &Pinterest{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someone@example.com"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.Valid)
	require.True(t, result.Available)
}

func TestPinterestTaken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resource_response":{"data":true}}`))
	}))
	defer server.Close()

	checker := &Pinterest{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someone@example.com"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Available)
	require.Equal(t, "Email is already registered", result.Message)
}

func TestPinterestUnexpectedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resource_response":{"error":"NoneType"}}`))
	}))
	defer server.Close()

	checker := &Pinterest{Env: testEnv(server), BaseURL: server.URL}

	result, err := checker.Check(context.Background(), core.NewQuery("someone@example.com"))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "unexpected response")
}
