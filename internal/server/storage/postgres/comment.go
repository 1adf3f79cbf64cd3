package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

const commentColumns = `id, author_id, post_id, parent_comment_id, content, created_at, updated_at`

// CreateComment stores a new comment
func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.q.Exec(ctx, query,
		comment.ID,
		comment.AuthorID,
		comment.PostID,
		comment.ParentCommentID,
		comment.Content,
		comment.CreatedAt.UTC(),
		comment.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// GetComment retrieves comment by ID
func (s *Storage) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(s.q.QueryRow(ctx, query, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE post_id = $1
		ORDER BY created_at %[1]s, id %[1]s
		LIMIT $2 OFFSET $3
	`, direction(opts.Desc))

	rows, err := s.q.Query(ctx, query, postID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

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
	if len(parentIDs) == 0 {
		return nil, nil
	}

	rows, err := s.q.Query(ctx, `SELECT id FROM comments WHERE parent_comment_id = ANY($1)`, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}

	return ids, nil
}

// DeleteComments deletes comments by IDs
func (s *Storage) DeleteComments(ctx context.Context, commentIDs []string) (int, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM comments WHERE id = ANY($1)`, commentIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// DeletePostComments deletes every comment referencing the post
func (s *Storage) DeletePostComments(ctx context.Context, postID string) (int, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post comments: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	comment := &models.Comment{}

	if err := row.Scan(
		&comment.ID,
		&comment.AuthorID,
		&comment.PostID,
		&comment.ParentCommentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}

	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()

	return comment, nil
}
