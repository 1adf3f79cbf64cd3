package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/blog"
	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

func testPost() *models.Post {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Post{ID: "post-1", AuthorID: "user-1", Title: "Hello", Content: "World", CreatedAt: now, UpdatedAt: now}
}

// serve регистрирует handler на mux, чтобы работал r.PathValue
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(WithPayload(req.Context(), testPayload))
}

func TestPostHandler_List(t *testing.T) {
	svc := &mockBlogService{
		listPosts: func(ctx context.Context, limit, offset int, sort string) ([]*models.Post, error) {
			if limit > validation.MaxPageLimit {
				return nil, validation.ErrInvalidInput
			}
			assert.Equal(t, 5, offset)
			assert.Equal(t, "asc", sort)
			return []*models.Post{testPost()}, nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?offset=5&sort=asc", nil)
		w := serve("GET /api/v1/posts", handler.List, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.PostListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Posts, 1)
		assert.Equal(t, "post-1", resp.Posts[0].ID)
		assert.Equal(t, validation.DefaultPageLimit, resp.Limit)
		assert.Equal(t, 5, resp.Offset)
	})

	t.Run("bad limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?limit=abc", nil)
		w := serve("GET /api/v1/posts", handler.List, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("limit too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?limit=500&offset=5&sort=asc", nil)
		w := serve("GET /api/v1/posts", handler.List, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPostHandler_Create(t *testing.T) {
	svc := &mockBlogService{
		createPost: func(ctx context.Context, actor models.TokenPayload, in validation.PostInput) (*models.Post, error) {
			assert.Equal(t, "user-1", actor.Sub)
			assert.Equal(t, "Hello", in.Title)
			return testPost(), nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/posts", jsonBody(t, api.PostRequest{Title: "Hello", Content: "World"})))
	w := serve("POST /api/v1/posts", handler.Create, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.PostResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "post-1", resp.ID)

	// Без аутентификации
	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts", jsonBody(t, api.PostRequest{Title: "Hello", Content: "World"}))
	w = serve("POST /api/v1/posts", handler.Create, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostHandler_Get(t *testing.T) {
	svc := &mockBlogService{
		getPost: func(ctx context.Context, postID string) (*models.Post, error) {
			if postID != "post-1" {
				return nil, blog.ErrEntityNotFound
			}
			return testPost(), nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	w := serve("GET /api/v1/posts/{id}", handler.Get, httptest.NewRequest(http.MethodGet, "/api/v1/posts/post-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve("GET /api/v1/posts/{id}", handler.Get, httptest.NewRequest(http.MethodGet, "/api/v1/posts/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_Update(t *testing.T) {
	svc := &mockBlogService{
		updatePost: func(ctx context.Context, actor models.TokenPayload, postID string, in validation.PostInput) (*models.Post, error) {
			if postID == "foreign" {
				return nil, blog.ErrForbidden
			}
			p := testPost()
			p.Title = in.Title
			return p, nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	req := authed(httptest.NewRequest(http.MethodPut, "/api/v1/posts/post-1", jsonBody(t, api.PostRequest{Title: "New", Content: "c"})))
	w := serve("PUT /api/v1/posts/{id}", handler.Update, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.PostResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "New", resp.Title)

	req = authed(httptest.NewRequest(http.MethodPut, "/api/v1/posts/foreign", jsonBody(t, api.PostRequest{Title: "New", Content: "c"})))
	w = serve("PUT /api/v1/posts/{id}", handler.Update, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostHandler_Delete(t *testing.T) {
	svc := &mockBlogService{
		deletePost: func(ctx context.Context, actor models.TokenPayload, postID string) (*cascade.Removal, error) {
			return &cascade.Removal{Kind: models.KindPost, IDs: []string{postID}, Comments: 3}, nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/posts/post-1", nil))
	w := serve("DELETE /api/v1/posts/{id}", handler.Delete, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.DeleteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"post-1"}, resp.DeletedIDs)
	assert.Equal(t, 3, resp.CommentsDeleted)
}

func TestPostHandler_ListComments(t *testing.T) {
	parent := "c-1"
	svc := &mockBlogService{
		listComments: func(ctx context.Context, postID string, limit, offset int, sort string) ([]*models.Comment, error) {
			assert.Equal(t, "post-1", postID)
			assert.Equal(t, 20, limit)
			return []*models.Comment{
				{ID: "c-1", PostID: postID, Content: "root"},
				{ID: "c-2", PostID: postID, ParentCommentID: &parent, Content: "reply"},
			}, nil
		},
	}
	handler := NewPostHandler(setupTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/post-1/comments?limit=20", nil)
	w := serve("GET /api/v1/posts/{id}/comments", handler.ListComments, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.CommentListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Comments, 2)
	assert.Nil(t, resp.Comments[0].ParentCommentID)
	require.NotNil(t, resp.Comments[1].ParentCommentID)
	assert.Equal(t, "c-1", *resp.Comments[1].ParentCommentID)
	assert.Equal(t, 20, resp.Limit)
}

func TestCommentHandler_Create(t *testing.T) {
	svc := &mockBlogService{
		createComment: func(ctx context.Context, actor models.TokenPayload, in validation.CommentInput) (*models.Comment, error) {
			if in.PostID == "" && in.ParentCommentID == "" {
				return nil, validation.ErrInvalidInput
			}
			parent := in.ParentCommentID
			return &models.Comment{ID: "c-2", PostID: "post-1", ParentCommentID: &parent, AuthorID: actor.Sub, Content: in.Content}, nil
		},
	}
	handler := NewCommentHandler(setupTestLogger(), svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/comments",
		jsonBody(t, api.CommentRequest{ParentCommentID: "c-1", Content: "reply"})))
	w := serve("POST /api/v1/comments", handler.Create, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.CommentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "post-1", resp.PostID)
	assert.Equal(t, "user-1", resp.AuthorID)

	req = authed(httptest.NewRequest(http.MethodPost, "/api/v1/comments", jsonBody(t, api.CommentRequest{Content: "x"})))
	w = serve("POST /api/v1/comments", handler.Create, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentHandler_Delete(t *testing.T) {
	svc := &mockBlogService{
		deleteComment: func(ctx context.Context, actor models.TokenPayload, commentID string) (*cascade.Removal, error) {
			switch commentID {
			case "missing":
				return nil, blog.ErrEntityNotFound
			case "foreign":
				return nil, blog.ErrForbidden
			}
			return &cascade.Removal{Kind: models.KindComment, IDs: []string{commentID, "reply"}, Comments: 2}, nil
		},
	}
	handler := NewCommentHandler(setupTestLogger(), svc)

	tests := []struct {
		id         string
		wantStatus int
	}{
		{id: "c-1", wantStatus: http.StatusOK},
		{id: "missing", wantStatus: http.StatusNotFound},
		{id: "foreign", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/comments/"+tt.id, nil))
			w := serve("DELETE /api/v1/comments/{id}", handler.Delete, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSearchHandler_Search(t *testing.T) {
	svc := &mockBlogService{
		search: func(ctx context.Context, q search.Query) (*search.Result, error) {
			if q.Text == "" {
				return nil, search.ErrInvalidQuery
			}
			assert.Equal(t, 5, q.Size)
			assert.Equal(t, "cursor-0", q.After)
			return &search.Result{
				Hits: []search.Hit{{
					Document: &models.SearchDocument{
						ID:     "post-1",
						Kind:   models.KindPost,
						Title:  "Hello",
						Author: models.SearchAuthor{ID: "user-1", Name: "alice"},
					},
					Score:  2,
					Cursor: "cursor-1",
				}},
				Next: "cursor-1",
			}, nil
		},
	}
	handler := NewSearchHandler(setupTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello&size=5&after=cursor-0", nil)
	w := serve("GET /api/v1/search", handler.Search, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "post", resp.Hits[0].Kind)
	assert.Equal(t, "alice", resp.Hits[0].AuthorName)
	assert.Equal(t, "cursor-1", resp.Next)

	w = serve("GET /api/v1/search", handler.Search, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Disabled(t *testing.T) {
	svc := &mockBlogService{
		search: func(ctx context.Context, q search.Query) (*search.Result, error) {
			return nil, blog.ErrSearchDisabled
		},
	}
	handler := NewSearchHandler(setupTestLogger(), svc)

	w := serve("GET /api/v1/search", handler.Search, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
