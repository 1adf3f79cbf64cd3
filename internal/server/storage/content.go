package storage

import (
	"context"

	"github.com/iudanet/gophblog/internal/models"
)

// ListOptions параметры пагинации для списков
type ListOptions struct {
	Limit  int
	Offset int
	Desc   bool // сортировка по created_at
}

// PostStorage defines interface for blog post persistence
type PostStorage interface {
	// CreatePost stores a new post
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves post by ID
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	// ListPosts returns a page of posts ordered by created_at
	ListPosts(ctx context.Context, opts ListOptions) ([]*models.Post, error)

	// UpdatePost updates title, content and updated_at
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes the post row only
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, postID string) error
}

// CommentStorage defines interface for comment persistence
type CommentStorage interface {
	// CreateComment stores a new comment
	CreateComment(ctx context.Context, comment *models.Comment) error

	// GetComment retrieves comment by ID
	// Returns ErrCommentNotFound if comment doesn't exist
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)

	// ListPostComments returns a page of comments (any depth) of a post
	ListPostComments(ctx context.Context, postID string, opts ListOptions) ([]*models.Comment, error)

	// GetReplyIDs returns IDs of comments whose parent_comment_id is in parentIDs
	// Returns empty slice if no replies found
	GetReplyIDs(ctx context.Context, parentIDs []string) ([]string, error)

	// DeleteComments deletes comments by IDs
	// Returns number of deleted comments
	DeleteComments(ctx context.Context, commentIDs []string) (int, error)

	// DeletePostComments deletes every comment referencing the post
	// Returns number of deleted comments
	DeletePostComments(ctx context.Context, postID string) (int, error)
}

// ContentStorage объединяет посты и комментарии
type ContentStorage interface {
	PostStorage
	CommentStorage
}

// Transactor выполняет fn в одной транзакции хранилища.
// Если fn возвращает ошибку, все изменения откатываются.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx ContentStorage) error) error
}
