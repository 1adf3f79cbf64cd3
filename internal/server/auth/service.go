// Package auth implements account registration and the login, refresh and
// logout flows on top of the session manager.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/validation"
)

var (
	// ErrInvalidCredentials is returned for both unknown email and wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates that the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound indicates that the authenticated user no longer exists
	ErrUserNotFound = errors.New("user not found")

	// ErrAdminExists indicates that an admin account has already been seeded
	ErrAdminExists = errors.New("admin already exists")
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(digest, candidate string) (bool, error)
}

// RefreshVerifier checks refresh token signatures
type RefreshVerifier interface {
	ValidateRefreshToken(token string) (*models.TokenPayload, error)
}

// SessionManager is the subset of session.Manager used by the service
type SessionManager interface {
	IssueSession(ctx context.Context, userID string, role models.Role) (*session.Issued, error)
	RotateTokens(ctx context.Context, payload models.TokenPayload, presented string) (*session.Tokens, error)
	DestroySession(ctx context.Context, sessionID string) error
}

// LoginResult данные успешного входа
type LoginResult struct {
	User    *models.User
	Session *session.Issued
}

// Service implements account operations
type Service struct {
	users    storage.UserStorage
	sessions SessionManager
	hasher   PasswordHasher
	tokens   RefreshVerifier
	logger   *slog.Logger
	now      func() time.Time

	// dummyHash выравнивает время ответа для несуществующего email
	dummyHash     string
	dummyHashOnce sync.Once
}

// NewService creates a new account service
func NewService(users storage.UserStorage, sessions SessionManager, hasher PasswordHasher, tokens RefreshVerifier, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a regular user account
func (s *Service) Register(ctx context.Context, in validation.RegisterInput) (*models.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.ValidateRegister(in); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, in.Email, in.Password, models.RoleUser)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials and issues a new session
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Проверяем пароль против фиктивного хеша, чтобы не раскрывать существование email по времени ответа
			_, _ = s.hasher.Verify(s.fakeHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "Failed login attempt", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	issued, err := s.sessions.IssueSession(ctx, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &LoginResult{User: user, Session: issued}, nil
}

// Refresh verifies the refresh token and rotates the session token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	payload, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	return s.sessions.RotateTokens(ctx, *payload, refreshToken)
}

// Logout destroys the session of the access token
func (s *Service) Logout(ctx context.Context, payload models.TokenPayload) error {
	return s.sessions.DestroySession(ctx, payload.SessionID)
}

// Me returns the authenticated user profile
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SeedAdmin creates the admin account unless one already exists
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (*models.User, error) {
	exists, err := s.users.HasUserWithRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, email, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Admin seeded", slog.String("user_id", user.ID))
	return user, nil
}

func (s *Service) createUser(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         displayName(email),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *Service) fakeHash() string {
	s.dummyHashOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.New().String())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// displayName имя по умолчанию: локальная часть email
func displayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
