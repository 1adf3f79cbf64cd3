package handlers

import (
	"context"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/validation"
)

// AuthService операции аккаунта, используемые AuthHandler
type AuthService interface {
	Register(ctx context.Context, in validation.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error)
	Logout(ctx context.Context, payload models.TokenPayload) error
	Me(ctx context.Context, userID string) (*models.User, error)
}

// BlogService операции с контентом, используемые PostHandler, CommentHandler и SearchHandler
type BlogService interface {
	CreatePost(ctx context.Context, actor models.TokenPayload, in validation.PostInput) (*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int, sort string) ([]*models.Post, error)
	UpdatePost(ctx context.Context, actor models.TokenPayload, postID string, in validation.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, actor models.TokenPayload, postID string) (*cascade.Removal, error)
	CreateComment(ctx context.Context, actor models.TokenPayload, in validation.CommentInput) (*models.Comment, error)
	ListComments(ctx context.Context, postID string, limit, offset int, sort string) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, actor models.TokenPayload, commentID string) (*cascade.Removal, error)
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}
