package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

const commentColumns = `id, author_id, post_id, parent_comment_id, content, created_at, updated_at`

// CreateComment stores a new comment
func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var parent sql.NullString
	if comment.IsReply() {
		parent = sql.NullString{String: *comment.ParentCommentID, Valid: true}
	}

	_, err := s.q.ExecContext(ctx, query,
		comment.ID,
		comment.AuthorID,
		comment.PostID,
		parent,
		comment.Content,
		toUnix(comment.CreatedAt),
		toUnix(comment.UpdatedAt),
	)

	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// GetComment retrieves comment by ID
func (s *Storage) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

	comment, err := scanComment(s.q.QueryRowContext(ctx, query, commentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListPostComments returns a page of comments of a post
func (s *Storage) ListPostComments(ctx context.Context, postID string, opts storage.ListOptions) ([]*models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT `+commentColumns+`
		FROM comments
		WHERE post_id = ?
		ORDER BY created_at %[1]s, id %[1]s
		LIMIT ? OFFSET ?
	`, direction(opts.Desc))

	rows, err := s.q.QueryContext(ctx, query, postID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	comments := make([]*models.Comment, 0, opts.Limit)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return comments, nil
}

// GetReplyIDs returns IDs of direct replies to any of parentIDs
func (s *Storage) GetReplyIDs(ctx context.Context, parentIDs []string) ([]string, error) {
	var ids []string

	for _, batch := range chunks(parentIDs) {
		query := `SELECT id FROM comments WHERE parent_comment_id IN (` + placeholders(len(batch)) + `)`

		batchIDs, err := s.queryIDs(ctx, query, toArgs(batch)...)
		if err != nil {
			return nil, fmt.Errorf("failed to query replies: %w", err)
		}
		ids = append(ids, batchIDs...)
	}

	return ids, nil
}

// DeleteComments deletes comments by IDs
func (s *Storage) DeleteComments(ctx context.Context, commentIDs []string) (int, error) {
	total := 0

	for _, batch := range chunks(commentIDs) {
		query := `DELETE FROM comments WHERE id IN (` + placeholders(len(batch)) + `)`

		result, err := s.q.ExecContext(ctx, query, toArgs(batch)...)
		if err != nil {
			return total, fmt.Errorf("failed to delete comments: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += int(rows)
	}

	return total, nil
}

// DeletePostComments deletes every comment referencing the post
func (s *Storage) DeletePostComments(ctx context.Context, postID string) (int, error) {
	query := `DELETE FROM comments WHERE post_id = ?`

	result, err := s.q.ExecContext(ctx, query, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post comments: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

func (s *Storage) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanComment(row scanner) (*models.Comment, error) {
	comment := &models.Comment{}
	var parent sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(
		&comment.ID,
		&comment.AuthorID,
		&comment.PostID,
		&parent,
		&comment.Content,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if parent.Valid {
		p := parent.String
		comment.ParentCommentID = &p
	}
	comment.CreatedAt = fromUnix(createdAt)
	comment.UpdatedAt = fromUnix(updatedAt)

	return comment, nil
}
