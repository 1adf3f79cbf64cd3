package storage

import (
	"context"
	"time"

	"github.com/iudanet/gophblog/internal/models"
)

// SessionStorage defines interface for session persistence.
// Only the session manager writes through it.
type SessionStorage interface {
	// CreateSession stores a new session
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves session by ID
	// Returns ErrSessionNotFound if session doesn't exist
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// SwapRefreshTokenHash replaces the stored refresh token hash only if it still
	// equals oldHash. Returns ErrSessionConflict if no row matched.
	SwapRefreshTokenHash(ctx context.Context, sessionID, oldHash, newHash string, updatedAt time.Time) error

	// DeleteSession deletes session by ID
	// Returns ErrSessionNotFound if session doesn't exist
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteStaleSessions removes sessions not rotated since olderThan
	// Returns number of deleted sessions
	DeleteStaleSessions(ctx context.Context, olderThan time.Time) (int, error)
}
