package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/pkg/api"
)

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	require.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.UserResponse{ID: "user-1", Email: req.Email, Name: "alice"})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Register(context.Background(), api.RegisterRequest{
		Email: "alice@example.com", Password: "password123", ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.ID)
	assert.Equal(t, "alice", resp.Name)
}

func TestClient_BearerToken(t *testing.T) {
	tests := []struct {
		name      string
		call      func(c *Client) error
		method    string
		path      string
		wantToken string
	}{
		{
			name:      "refresh sends refresh token",
			call:      func(c *Client) error { _, err := c.Refresh(context.Background(), "refresh-1"); return err },
			method:    http.MethodPost,
			path:      "/api/v1/auth/refresh",
			wantToken: "Bearer refresh-1",
		},
		{
			name:      "logout sends access token",
			call:      func(c *Client) error { return c.Logout(context.Background(), "access-1") },
			method:    http.MethodPost,
			path:      "/api/v1/auth/logout",
			wantToken: "Bearer access-1",
		},
		{
			name: "delete comment",
			call: func(c *Client) error {
				_, err := c.DeleteComment(context.Background(), "access-1", "c-1")
				return err
			},
			method:    http.MethodDelete,
			path:      "/api/v1/comments/c-1",
			wantToken: "Bearer access-1",
		},
		{
			name: "update post",
			call: func(c *Client) error {
				_, err := c.UpdatePost(context.Background(), "access-1", "p-1", api.PostRequest{Title: "t", Content: "c"})
				return err
			},
			method:    http.MethodPut,
			path:      "/api/v1/posts/p-1",
			wantToken: "Bearer access-1",
		},
		{
			name:   "get post is public",
			call:   func(c *Client) error { _, err := c.GetPost(context.Background(), "p-1"); return err },
			method: http.MethodGet,
			path:   "/api/v1/posts/p-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, tt.wantToken, r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("{}"))
			}))
			defer server.Close()

			require.NoError(t, tt.call(NewClient(server.URL)))
		})
	}
}

func TestClient_QueryParameters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"posts":[],"comments":[],"hits":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	_, err := client.ListPosts(ctx, 5, 10, "asc")
	require.NoError(t, err)
	assert.Equal(t, "limit=5&offset=10&sort=asc", gotQuery)

	_, err = client.ListPosts(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)

	_, err = client.Search(ctx, "go lang", 3, "abc")
	require.NoError(t, err)
	assert.Equal(t, "after=abc&q=go+lang&size=3", gotQuery)

	_, err = client.ListComments(ctx, "p-1", 2, 0, "desc")
	require.NoError(t, err)
	assert.Equal(t, "limit=2&sort=desc", gotQuery)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantCode     string
		unauthorized bool
	}{
		{
			name:         "compromised session",
			status:       http.StatusUnauthorized,
			body:         `{"error":"session compromised","message":"please log in again"}`,
			wantCode:     "session compromised",
			unauthorized: true,
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"error":"forbidden"}`,
			wantCode: "forbidden",
		},
		{
			name:     "non json body",
			status:   http.StatusBadGateway,
			body:     "upstream down",
			wantCode: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Me(context.Background(), "token")
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantCode, statusErr.Code)
			assert.Equal(t, tt.unauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClient_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL).Logout(context.Background(), "token"))
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).ListPosts(ctx, 0, 0, "")
	assert.ErrorIs(t, err, context.Canceled)
}
