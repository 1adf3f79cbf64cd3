package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/gophblog/internal/client/api"
	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/pkg/api"
)

// memoryStore хранит сессию в памяти
type memoryStore struct {
	auth *storage.AuthData
}

func (m *memoryStore) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	cp := *auth
	m.auth = &cp
	return nil
}

func (m *memoryStore) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if m.auth == nil {
		return nil, storage.ErrAuthNotFound
	}
	cp := *m.auth
	return &cp, nil
}

func (m *memoryStore) DeleteAuth(ctx context.Context) error {
	if m.auth == nil {
		return storage.ErrAuthNotFound
	}
	m.auth = nil
	return nil
}

// fakeAPI имитирует сервер с ротацией refresh токенов
type fakeAPI struct {
	refreshErr   error
	logoutErr    error
	validRefresh string
	refreshCalls int
	logoutCalls  int
}

func (f *fakeAPI) Register(ctx context.Context, req api.RegisterRequest) (*api.UserResponse, error) {
	return &api.UserResponse{ID: "user-1", Email: req.Email}, nil
}

func (f *fakeAPI) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	if req.Password != "password123" {
		return nil, &clientapi.StatusError{StatusCode: http.StatusUnauthorized, Code: "invalid credentials"}
	}
	f.validRefresh = "refresh-0"
	return &api.LoginResponse{
		User:      api.UserResponse{ID: "user-1", Email: req.Email},
		SessionID: "session-1",
		TokenResponse: api.TokenResponse{
			AccessToken:  "access-0",
			RefreshToken: "refresh-0",
			ExpiresIn:    900,
		},
	}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if refreshToken != f.validRefresh {
		return nil, &clientapi.StatusError{StatusCode: http.StatusUnauthorized, Code: "session compromised"}
	}
	f.validRefresh = refreshToken + "+"
	return &api.TokenResponse{AccessToken: "access-new", RefreshToken: f.validRefresh, ExpiresIn: 900}, nil
}

func (f *fakeAPI) Logout(ctx context.Context, accessToken string) error {
	f.logoutCalls++
	return f.logoutErr
}

func newTestService(t *testing.T) (*Service, *fakeAPI, *memoryStore) {
	t.Helper()
	fake := &fakeAPI{}
	store := &memoryStore{}
	svc := NewService(fake, store)
	svc.now = func() time.Time { return time.Unix(1_000_000, 0) }
	return svc, fake, store
}

func TestService_Login(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	auth, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "session-1", auth.SessionID)
	assert.Equal(t, int64(1_000_900), auth.ExpiresAt)
	assert.Equal(t, auth, store.auth)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, clientapi.ErrUnauthorized)
}

func TestService_WithToken_NotAuthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.WithToken(context.Background(), func(string) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestService_WithToken_ValidToken(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	var used string
	require.NoError(t, svc.WithToken(ctx, func(token string) error {
		used = token
		return nil
	}))
	assert.Equal(t, "access-0", used)
	assert.Zero(t, fake.refreshCalls)
}

func TestService_WithToken_RefreshesExpired(t *testing.T) {
	svc, fake, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// Время ушло за срок действия access token
	svc.now = func() time.Time { return time.Unix(1_001_000, 0) }

	var used string
	require.NoError(t, svc.WithToken(ctx, func(token string) error {
		used = token
		return nil
	}))
	assert.Equal(t, "access-new", used)
	assert.Equal(t, 1, fake.refreshCalls)
	assert.Equal(t, "refresh-0+", store.auth.RefreshToken, "rotated pair must be persisted")
}

func TestService_WithToken_RetriesOnceOnUnauthorized(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	var tokens []string
	err = svc.WithToken(ctx, func(token string) error {
		tokens = append(tokens, token)
		return &clientapi.StatusError{StatusCode: http.StatusUnauthorized, Code: "unauthorized: invalid token"}
	})
	assert.ErrorIs(t, err, clientapi.ErrUnauthorized)
	assert.Equal(t, []string{"access-0", "access-new"}, tokens)
	assert.Equal(t, 1, fake.refreshCalls)
}

func TestService_WithToken_RevokedSession(t *testing.T) {
	svc, fake, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// Токен уже ротирован другим клиентом
	fake.validRefresh = "someone-else"
	svc.now = func() time.Time { return time.Unix(1_001_000, 0) }

	err = svc.WithToken(ctx, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, store.auth, "local session must be dropped")
}

func TestService_WithToken_RefreshNetworkError(t *testing.T) {
	svc, fake, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	fake.refreshErr = errors.New("connection refused")
	svc.now = func() time.Time { return time.Unix(1_001_000, 0) }

	err = svc.WithToken(ctx, func(string) error { return nil })
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.NotNil(t, store.auth, "session kept on transient errors")
}

func TestService_Logout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, fake, store := newTestService(t)
		ctx := context.Background()
		_, err := svc.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx))
		assert.Equal(t, 1, fake.logoutCalls)
		assert.Nil(t, store.auth)
	})

	t.Run("not logged in", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		assert.ErrorIs(t, svc.Logout(context.Background()), ErrNotAuthenticated)
	})

	t.Run("session already revoked on server", func(t *testing.T) {
		svc, fake, store := newTestService(t)
		ctx := context.Background()
		_, err := svc.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		fake.logoutErr = &clientapi.StatusError{StatusCode: http.StatusUnauthorized, Code: "unauthorized"}
		fake.validRefresh = "revoked"

		require.NoError(t, svc.Logout(ctx))
		assert.Nil(t, store.auth)
	})
}

func TestService_Status(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Status(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	auth, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", auth.Email)
}
