// Package session issues, rotates and revokes token pairs bound to a
// server-side session record. It is the only writer of session rows.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

var (
	// ErrSessionNotFound means the session is absent and the client must log in again
	ErrSessionNotFound = errors.New("session not found")

	// ErrCompromisedSession means a rotated-away refresh token was presented.
	// The session is already destroyed when this error is returned.
	ErrCompromisedSession = errors.New("session compromised: refresh token reuse detected")
)

// Hasher hashes and verifies refresh tokens
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(digest, candidate string) (bool, error)
}

// TokenIssuer signs access and refresh tokens from a payload
type TokenIssuer interface {
	GenerateAccessToken(payload models.TokenPayload) (string, int64, error)
	GenerateRefreshToken(payload models.TokenPayload) (string, time.Time, error)
}

// Tokens пара токенов, выдаваемая клиенту
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // время жизни access token в секундах
}

// Issued результат создания новой сессии
type Issued struct {
	SessionID string `json:"session_id"`
	Tokens
}

// Manager implements the session lifecycle ACTIVE -> ACTIVE (rotate) -> DESTROYED
type Manager struct {
	storage storage.SessionStorage
	hasher  Hasher
	tokens  TokenIssuer
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a new session manager
func NewManager(storage storage.SessionStorage, hasher Hasher, tokens TokenIssuer, logger *slog.Logger) *Manager {
	return &Manager{
		storage: storage,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// IssueSession creates a new session for the user and returns its first token pair
func (m *Manager) IssueSession(ctx context.Context, userID string, role models.Role) (*Issued, error) {
	payload := models.TokenPayload{
		Sub:       userID,
		Role:      role,
		SessionID: uuid.New().String(),
	}

	tokens, refreshHash, err := m.newPair(payload)
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &models.Session{
		ID:               payload.SessionID,
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.storage.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.logger.InfoContext(ctx, "Session issued",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID))

	return &Issued{SessionID: sess.ID, Tokens: *tokens}, nil
}

// RotateTokens exchanges a valid refresh token for a new pair.
// payload must come from a verified refresh token.
func (m *Manager) RotateTokens(ctx context.Context, payload models.TokenPayload, presented string) (*Tokens, error) {
	sess, err := m.storage.GetSession(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.UserID != payload.Sub {
		return nil, ErrSessionNotFound
	}

	ok, err := m.hasher.Verify(sess.RefreshTokenHash, presented)
	if err != nil {
		return nil, fmt.Errorf("failed to verify refresh token: %w", err)
	}
	if !ok {
		return nil, m.compromised(ctx, sess.ID, "refresh token mismatch")
	}

	tokens, refreshHash, err := m.newPair(payload)
	if err != nil {
		return nil, err
	}

	// CAS по старому хешу: из двух параллельных ротаций успешна только одна
	err = m.storage.SwapRefreshTokenHash(ctx, sess.ID, sess.RefreshTokenHash, refreshHash, m.now())
	if err != nil {
		if errors.Is(err, storage.ErrSessionConflict) {
			return nil, m.compromised(ctx, sess.ID, "concurrent rotation")
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return tokens, nil
}

// DestroySession deletes the session. Destroying an absent session is not an error.
func (m *Manager) DestroySession(ctx context.Context, sessionID string) error {
	if err := m.storage.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	m.logger.InfoContext(ctx, "Session destroyed", slog.String("session_id", sessionID))
	return nil
}

// PurgeStale deletes sessions that were not rotated for longer than maxAge
func (m *Manager) PurgeStale(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := m.storage.DeleteStaleSessions(ctx, m.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	return n, nil
}

// newPair подписывает пару токенов и хеширует refresh token для хранения
func (m *Manager) newPair(payload models.TokenPayload) (*Tokens, string, error) {
	access, expiresIn, err := m.tokens.GenerateAccessToken(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, _, err := m.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	refreshHash, err := m.hasher.Hash(refresh)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	return &Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: expiresIn}, refreshHash, nil
}

// compromised уничтожает сессию и возвращает ErrCompromisedSession.
// Удаление выполняется даже если вызов в целом завершается ошибкой.
func (m *Manager) compromised(ctx context.Context, sessionID, reason string) error {
	m.logger.WarnContext(ctx, "Refresh token reuse detected, destroying session",
		slog.String("session_id", sessionID),
		slog.String("reason", reason))

	if err := m.DestroySession(ctx, sessionID); err != nil {
		m.logger.ErrorContext(ctx, "Failed to destroy compromised session",
			slog.String("session_id", sessionID),
			slog.Any("error", err))
		return errors.Join(ErrCompromisedSession, err)
	}

	return ErrCompromisedSession
}
