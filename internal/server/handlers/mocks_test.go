package handlers

import (
	"context"
	"log/slog"
	"os"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/validation"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// mockAuthService is a mock implementation of AuthService for testing
type mockAuthService struct {
	register func(ctx context.Context, in validation.RegisterInput) (*models.User, error)
	login    func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	refresh  func(ctx context.Context, refreshToken string) (*session.Tokens, error)
	logout   func(ctx context.Context, payload models.TokenPayload) error
	me       func(ctx context.Context, userID string) (*models.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in validation.RegisterInput) (*models.User, error) {
	return m.register(ctx, in)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return m.login(ctx, email, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	return m.refresh(ctx, refreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, payload models.TokenPayload) error {
	return m.logout(ctx, payload)
}

func (m *mockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return m.me(ctx, userID)
}

// mockBlogService is a mock implementation of BlogService for testing.
// Unset functions panic, so each test sets only what it expects to be called.
type mockBlogService struct {
	createPost    func(ctx context.Context, actor models.TokenPayload, in validation.PostInput) (*models.Post, error)
	getPost       func(ctx context.Context, postID string) (*models.Post, error)
	listPosts     func(ctx context.Context, limit, offset int, sort string) ([]*models.Post, error)
	updatePost    func(ctx context.Context, actor models.TokenPayload, postID string, in validation.PostInput) (*models.Post, error)
	deletePost    func(ctx context.Context, actor models.TokenPayload, postID string) (*cascade.Removal, error)
	createComment func(ctx context.Context, actor models.TokenPayload, in validation.CommentInput) (*models.Comment, error)
	listComments  func(ctx context.Context, postID string, limit, offset int, sort string) ([]*models.Comment, error)
	deleteComment func(ctx context.Context, actor models.TokenPayload, commentID string) (*cascade.Removal, error)
	search        func(ctx context.Context, q search.Query) (*search.Result, error)
}

func (m *mockBlogService) CreatePost(ctx context.Context, actor models.TokenPayload, in validation.PostInput) (*models.Post, error) {
	return m.createPost(ctx, actor, in)
}

func (m *mockBlogService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return m.getPost(ctx, postID)
}

func (m *mockBlogService) ListPosts(ctx context.Context, limit, offset int, sort string) ([]*models.Post, error) {
	return m.listPosts(ctx, limit, offset, sort)
}

func (m *mockBlogService) UpdatePost(ctx context.Context, actor models.TokenPayload, postID string, in validation.PostInput) (*models.Post, error) {
	return m.updatePost(ctx, actor, postID, in)
}

func (m *mockBlogService) DeletePost(ctx context.Context, actor models.TokenPayload, postID string) (*cascade.Removal, error) {
	return m.deletePost(ctx, actor, postID)
}

func (m *mockBlogService) CreateComment(ctx context.Context, actor models.TokenPayload, in validation.CommentInput) (*models.Comment, error) {
	return m.createComment(ctx, actor, in)
}

func (m *mockBlogService) ListComments(ctx context.Context, postID string, limit, offset int, sort string) ([]*models.Comment, error) {
	return m.listComments(ctx, postID, limit, offset, sort)
}

func (m *mockBlogService) DeleteComment(ctx context.Context, actor models.TokenPayload, commentID string) (*cascade.Removal, error) {
	return m.deleteComment(ctx, actor, commentID)
}

func (m *mockBlogService) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	return m.search(ctx, q)
}

// mockPinger is a mock implementation of Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

var testPayload = &models.TokenPayload{Sub: "user-1", Role: models.RoleUser, SessionID: "session-1"}
