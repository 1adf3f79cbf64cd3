package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/crypto"
	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/server/storage/sqlite"
	"github.com/iudanet/gophblog/internal/validation"
)

type testEnv struct {
	service *Service
	store   *sqlite.Storage
	hasher  *crypto.Hasher
	tokens  *jwt.Service
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hasher, err := crypto.NewHasher(crypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	require.NoError(t, err)

	tokens, err := jwt.NewService(jwt.Config{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager(store, hasher, tokens, logger)

	return &testEnv{
		service: NewService(store, manager, hasher, tokens, logger),
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
	}
}

func register(t *testing.T, env *testEnv, email, password string) *models.User {
	t.Helper()
	user, err := env.service.Register(context.Background(), validation.RegisterInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	env := setupTestService(t)

	user := register(t, env, "  Alice@Example.com ", "password123")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	stored, err := env.store.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	ok, err := env.hasher.Verify(stored.PasswordHash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_Register_Errors(t *testing.T) {
	env := setupTestService(t)
	register(t, env, "taken@example.com", "password123")

	tests := []struct {
		name    string
		in      validation.RegisterInput
		wantErr error
	}{
		{
			name:    "duplicate email",
			in:      validation.RegisterInput{Email: "TAKEN@example.com", Password: "password123", ConfirmPassword: "password123"},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "bad email",
			in:      validation.RegisterInput{Email: "not-an-email", Password: "password123", ConfirmPassword: "password123"},
			wantErr: validation.ErrInvalidInput,
		},
		{
			name:    "short password",
			in:      validation.RegisterInput{Email: "a@example.com", Password: "short", ConfirmPassword: "short"},
			wantErr: validation.ErrInvalidInput,
		},
		{
			name:    "confirmation mismatch",
			in:      validation.RegisterInput{Email: "a@example.com", Password: "password123", ConfirmPassword: "password124"},
			wantErr: validation.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Login(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	user := register(t, env, "a@x.com", "secret123")

	res, err := env.service.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.Session.AccessToken)
	assert.NotEmpty(t, res.Session.RefreshToken)

	// Строка сессии хранит хеш выданного refresh token
	sess, err := env.store.GetSession(ctx, res.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
	ok, err := env.hasher.Verify(sess.RefreshTokenHash, res.Session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	env := setupTestService(t)
	register(t, env, "a@x.com", "secret123")

	_, err := env.service.Login(context.Background(), "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.service.Login(context.Background(), "nobody@x.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshAndReuse(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	register(t, env, "a@x.com", "secret123")

	res, err := env.service.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	rotated, err := env.service.Refresh(ctx, res.Session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Session.RefreshToken, rotated.RefreshToken)

	_, err = env.service.Refresh(ctx, res.Session.RefreshToken)
	assert.ErrorIs(t, err, session.ErrCompromisedSession)

	_, err = env.service.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_Refresh_InvalidToken(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	register(t, env, "a@x.com", "secret123")

	res, err := env.service.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	// access token подписан другим секретом
	_, err = env.service.Refresh(ctx, res.Session.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = env.service.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestService_Logout(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	register(t, env, "a@x.com", "secret123")

	res, err := env.service.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	payload, err := env.tokens.ValidateAccessToken(res.Session.AccessToken)
	require.NoError(t, err)

	require.NoError(t, env.service.Logout(ctx, *payload))
	_, err = env.store.GetSession(ctx, res.Session.SessionID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Повторный logout не ошибка
	assert.NoError(t, env.service.Logout(ctx, *payload))

	_, err = env.service.Refresh(ctx, res.Session.RefreshToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_Me(t *testing.T) {
	env := setupTestService(t)
	user := register(t, env, "a@x.com", "secret123")

	me, err := env.service.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)

	_, err = env.service.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_SeedAdmin(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	admin, err := env.service.SeedAdmin(ctx, "Admin@Example.com", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)

	_, err = env.service.SeedAdmin(ctx, "other@example.com", "admin-password")
	assert.ErrorIs(t, err, ErrAdminExists)

	res, err := env.service.Login(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	payload, err := env.tokens.ValidateAccessToken(res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, payload.Role)
}

func TestService_SeedAdmin_Invalid(t *testing.T) {
	env := setupTestService(t)

	_, err := env.service.SeedAdmin(context.Background(), "admin@example.com", "short")
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
}

// failingUsers is a UserStorage returning errors from every call
type failingUsers struct{}

func (failingUsers) CreateUser(ctx context.Context, user *models.User) error {
	return errors.New("db down")
}

func (failingUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, errors.New("db down")
}

func (failingUsers) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return nil, errors.New("db down")
}

func (failingUsers) HasUserWithRole(ctx context.Context, role models.Role) (bool, error) {
	return false, errors.New("db down")
}

func TestService_StorageErrors(t *testing.T) {
	env := setupTestService(t)
	svc := NewService(failingUsers{}, nil, env.hasher, env.tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.Login(ctx, "a@x.com", "secret123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Me(ctx, "id")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = svc.SeedAdmin(ctx, "a@x.com", "secret123")
	assert.Error(t, err)
}
