// Package blog implements posts and nested comments with ownership checks.
// Deletions are delegated to the cascade synchronizer.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/validation"
)

var (
	// ErrEntityNotFound indicates that the post or comment does not exist
	ErrEntityNotFound = cascade.ErrEntityNotFound

	// ErrForbidden indicates that the actor is not the author of the entity
	ErrForbidden = errors.New("forbidden: not the author")

	// ErrSearchDisabled is returned by Search when no index is configured
	ErrSearchDisabled = errors.New("search is disabled")
)

// Remover performs cascading deletion of content
type Remover interface {
	OnEntityRemoved(ctx context.Context, kind models.EntityKind, id string) (*cascade.Removal, error)
}

// Service implements blog content operations. index may be nil.
type Service struct {
	content storage.ContentStorage
	users   storage.UserStorage
	remover Remover
	index   search.Index
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new blog service
func NewService(content storage.ContentStorage, users storage.UserStorage, remover Remover, index search.Index, logger *slog.Logger) *Service {
	return &Service{
		content: content,
		users:   users,
		remover: remover,
		index:   index,
		logger:  logger,
		now:     time.Now,
	}
}

// CreatePost creates a post authored by the actor
func (s *Service) CreatePost(ctx context.Context, actor models.TokenPayload, in validation.PostInput) (*models.Post, error) {
	in = trimPost(in)
	if err := validation.ValidatePost(in); err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  actor.Sub,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.content.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.indexPost(ctx, post)
	return post, nil
}

// GetPost returns a post by ID
func (s *Service) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.content.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	return post, nil
}

// ListPosts returns a page of posts. sort is "asc" or "desc" by creation time.
func (s *Service) ListPosts(ctx context.Context, limit, offset int, sort string) ([]*models.Post, error) {
	page, err := validation.NormalizePage(limit, offset, sort)
	if err != nil {
		return nil, err
	}

	posts, err := s.content.ListPosts(ctx, listOptions(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost replaces title and content. Only the author may update.
func (s *Service) UpdatePost(ctx context.Context, actor models.TokenPayload, postID string, in validation.PostInput) (*models.Post, error) {
	in = trimPost(in)
	if err := validation.ValidatePost(in); err != nil {
		return nil, err
	}

	post, err := s.content.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	if post.AuthorID != actor.Sub {
		return nil, ErrForbidden
	}

	post.Title = in.Title
	post.Content = in.Content
	post.UpdatedAt = s.now()
	if err := s.content.UpdatePost(ctx, post); err != nil {
		return nil, translate(err)
	}

	s.indexPost(ctx, post)
	return post, nil
}

// DeletePost deletes a post with all its comments. Only the author may delete.
func (s *Service) DeletePost(ctx context.Context, actor models.TokenPayload, postID string) (*cascade.Removal, error) {
	post, err := s.content.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	if post.AuthorID != actor.Sub {
		return nil, ErrForbidden
	}

	return s.remover.OnEntityRemoved(ctx, models.KindPost, postID)
}

// CreateComment adds a top-level comment to a post or a reply to a comment.
// A reply inherits post_id from its parent.
func (s *Service) CreateComment(ctx context.Context, actor models.TokenPayload, in validation.CommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.ValidateComment(in); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  actor.Sub,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.ParentCommentID != "" {
		parent, err := s.content.GetComment(ctx, in.ParentCommentID)
		if err != nil {
			return nil, translate(err)
		}
		if in.PostID != "" && in.PostID != parent.PostID {
			return nil, fmt.Errorf("%w: post_id does not match parent comment", validation.ErrInvalidInput)
		}
		parentID := parent.ID
		comment.ParentCommentID = &parentID
		comment.PostID = parent.PostID
	} else {
		if _, err := s.content.GetPost(ctx, in.PostID); err != nil {
			return nil, translate(err)
		}
		comment.PostID = in.PostID
	}

	if err := s.content.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.indexComment(ctx, comment)
	return comment, nil
}

// ListComments returns a page of the post comments of any depth
func (s *Service) ListComments(ctx context.Context, postID string, limit, offset int, sort string) ([]*models.Comment, error) {
	page, err := validation.NormalizePage(limit, offset, sort)
	if err != nil {
		return nil, err
	}

	if _, err := s.content.GetPost(ctx, postID); err != nil {
		return nil, translate(err)
	}

	comments, err := s.content.ListPostComments(ctx, postID, listOptions(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment deletes a comment with its reply subtree. Only the author may delete.
func (s *Service) DeleteComment(ctx context.Context, actor models.TokenPayload, commentID string) (*cascade.Removal, error) {
	comment, err := s.content.GetComment(ctx, commentID)
	if err != nil {
		return nil, translate(err)
	}
	if comment.AuthorID != actor.Sub {
		return nil, ErrForbidden
	}

	return s.remover.OnEntityRemoved(ctx, models.KindComment, commentID)
}

// Search runs a full-text query over posts and comments
func (s *Service) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	return s.index.Search(ctx, q)
}

func (s *Service) indexPost(ctx context.Context, post *models.Post) {
	if s.index == nil {
		return
	}
	author, err := s.author(ctx, post.AuthorID)
	if err != nil {
		s.logIndexError(ctx, post.ID, err)
		return
	}
	if err := s.index.Upsert(ctx, models.PostDocument(post, author)); err != nil {
		s.logIndexError(ctx, post.ID, err)
	}
}

func (s *Service) indexComment(ctx context.Context, comment *models.Comment) {
	if s.index == nil {
		return
	}
	author, err := s.author(ctx, comment.AuthorID)
	if err != nil {
		s.logIndexError(ctx, comment.ID, err)
		return
	}
	if err := s.index.Upsert(ctx, models.CommentDocument(comment, author)); err != nil {
		s.logIndexError(ctx, comment.ID, err)
	}
}

func (s *Service) author(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return user, nil
}

// logIndexError индекс вторичен: ошибка только логируется
func (s *Service) logIndexError(ctx context.Context, id string, err error) {
	s.logger.ErrorContext(ctx, "Failed to index document",
		slog.String("id", id),
		slog.Any("error", fmt.Errorf("%w: %v", cascade.ErrIndexSync, err)))
}

func trimPost(in validation.PostInput) validation.PostInput {
	return validation.PostInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
}

func listOptions(page validation.Page) storage.ListOptions {
	return storage.ListOptions{Limit: page.Limit, Offset: page.Offset, Desc: page.Desc}
}

// translate переводит ошибки хранилища в доменные
func translate(err error) error {
	if errors.Is(err, storage.ErrPostNotFound) || errors.Is(err, storage.ErrCommentNotFound) {
		return ErrEntityNotFound
	}
	return err
}
