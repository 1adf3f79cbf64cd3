package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

// CreateSession stores a new session
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.q.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.CreatedAt.UTC(),
		session.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves session by ID
func (s *Storage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	session := &models.Session{}
	err := s.q.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()

	return session, nil
}

// SwapRefreshTokenHash replaces the refresh token hash if it still equals oldHash.
// Строка блокируется UPDATE, поэтому из двух конкурентных ротаций проходит одна.
func (s *Storage) SwapRefreshTokenHash(ctx context.Context, sessionID, oldHash, newHash string, updatedAt time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = $1, updated_at = $2
		WHERE id = $3 AND refresh_token_hash = $4
	`

	tag, err := s.q.Exec(ctx, query, newHash, updatedAt.UTC(), sessionID, oldHash)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return affected(tag, storage.ErrSessionConflict)
}

// DeleteSession deletes session by ID
func (s *Storage) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return affected(tag, storage.ErrSessionNotFound)
}

// DeleteStaleSessions removes sessions not rotated since olderThan
func (s *Storage) DeleteStaleSessions(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
