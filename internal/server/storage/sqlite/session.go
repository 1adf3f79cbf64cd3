package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

// CreateSession stores a new session
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.q.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		toUnix(session.CreatedAt),
		toUnix(session.UpdatedAt),
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
		WHERE id = ?
	`

	session := &models.Session{}
	var createdAt, updatedAt int64

	err := s.q.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.CreatedAt = fromUnix(createdAt)
	session.UpdatedAt = fromUnix(updatedAt)

	return session, nil
}

// SwapRefreshTokenHash replaces the refresh token hash if it still equals oldHash
func (s *Storage) SwapRefreshTokenHash(ctx context.Context, sessionID, oldHash, newHash string, updatedAt time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = ?, updated_at = ?
		WHERE id = ? AND refresh_token_hash = ?
	`

	result, err := s.q.ExecContext(ctx, query, newHash, toUnix(updatedAt), sessionID, oldHash)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionConflict
	}

	return nil
}

// DeleteSession deletes session by ID
func (s *Storage) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := s.q.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

// DeleteStaleSessions removes sessions not rotated since olderThan
func (s *Storage) DeleteStaleSessions(ctx context.Context, olderThan time.Time) (int, error) {
	query := `DELETE FROM sessions WHERE updated_at < ?`

	result, err := s.q.ExecContext(ctx, query, toUnix(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
