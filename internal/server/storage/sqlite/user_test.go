package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now()

	tests := []struct {
		wantError error
		user      *models.User
		name      string
	}{
		{
			name: "create regular user",
			user: &models.User{
				ID:           uuid.New().String(),
				Email:        "a@x.com",
				PasswordHash: "hash123",
				Name:         "a",
				Role:         models.RoleUser,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
		{
			name: "create admin",
			user: &models.User{
				ID:           uuid.New().String(),
				Email:        "admin@x.com",
				PasswordHash: "hash456",
				Name:         "admin",
				Role:         models.RoleAdmin,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			// Verify user was created
			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, tt.user.Role, retrieved.Role)
			assert.True(t, tt.user.CreatedAt.Equal(retrieved.CreatedAt))
		})
	}
}

func TestUserStorage_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now()
	user1 := &models.User{
		ID:           uuid.New().String(),
		Email:        "duplicate@x.com",
		PasswordHash: "hash1",
		Name:         "duplicate",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(ctx, user1))

	user2 := *user1
	user2.ID = uuid.New().String()

	err := s.CreateUser(ctx, &user2)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	user, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)

	tests := []struct {
		wantError error
		name      string
		email     string
	}{
		{name: "existing user", email: user.Email},
		{name: "unknown email", email: "nobody@x.com", wantError: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieved, err := s.GetUserByEmail(ctx, tt.email)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, retrieved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, retrieved.ID)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_HasUserWithRole(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s)

	hasAdmin, err := s.HasUserWithRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	hasUser, err := s.HasUserWithRole(ctx, models.RoleUser)
	require.NoError(t, err)
	assert.True(t, hasUser)
}
