// Package api is an HTTP client for the gophblog REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/gophblog/pkg/api"
)

// ErrUnauthorized сервер ответил 401
var ErrUnauthorized = errors.New("unauthorized")

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Code       string // поле error из тела ответа
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Code)
}

// Is позволяет проверять 401 через errors.Is(err, ErrUnauthorized)
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает серверную сессию
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context, accessToken string) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// ListPosts возвращает страницу постов
func (c *Client) ListPosts(ctx context.Context, limit, offset int, sort string) (*api.PostListResponse, error) {
	var resp api.PostListResponse
	path := "/api/v1/posts" + pageQuery(limit, offset, sort)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	return &resp, nil
}

// GetPost возвращает пост по ID
func (c *Client) GetPost(ctx context.Context, postID string) (*api.PostResponse, error) {
	var resp api.PostResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(postID), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("get post request failed: %w", err)
	}
	return &resp, nil
}

// CreatePost публикует новый пост
func (c *Client) CreatePost(ctx context.Context, accessToken string, req api.PostRequest) (*api.PostResponse, error) {
	var resp api.PostResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/posts", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("create post request failed: %w", err)
	}
	return &resp, nil
}

// UpdatePost изменяет пост автора
func (c *Client) UpdatePost(ctx context.Context, accessToken, postID string, req api.PostRequest) (*api.PostResponse, error) {
	var resp api.PostResponse
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/posts/"+url.PathEscape(postID), accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("update post request failed: %w", err)
	}
	return &resp, nil
}

// DeletePost удаляет пост вместе с комментариями
func (c *Client) DeletePost(ctx context.Context, accessToken, postID string) (*api.DeleteResponse, error) {
	var resp api.DeleteResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(postID), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("delete post request failed: %w", err)
	}
	return &resp, nil
}

// ListComments возвращает страницу комментариев поста
func (c *Client) ListComments(ctx context.Context, postID string, limit, offset int, sort string) (*api.CommentListResponse, error) {
	var resp api.CommentListResponse
	path := "/api/v1/posts/" + url.PathEscape(postID) + "/comments" + pageQuery(limit, offset, sort)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list comments request failed: %w", err)
	}
	return &resp, nil
}

// CreateComment добавляет комментарий к посту или ответ на комментарий
func (c *Client) CreateComment(ctx context.Context, accessToken string, req api.CommentRequest) (*api.CommentResponse, error) {
	var resp api.CommentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/comments", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("create comment request failed: %w", err)
	}
	return &resp, nil
}

// DeleteComment удаляет комментарий со всеми ответами
func (c *Client) DeleteComment(ctx context.Context, accessToken, commentID string) (*api.DeleteResponse, error) {
	var resp api.DeleteResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/comments/"+url.PathEscape(commentID), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("delete comment request failed: %w", err)
	}
	return &resp, nil
}

// Search выполняет полнотекстовый поиск
func (c *Client) Search(ctx context.Context, query string, size int, after string) (*api.SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
	if after != "" {
		params.Set("after", after)
	}

	var resp api.SearchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/search?"+params.Encode(), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	return &resp, nil
}

// pageQuery собирает ?limit=&offset=&sort=, пропуская нулевые значения
func pageQuery(limit, offset int, sort string) string {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if sort != "" {
		params.Set("sort", sort)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			statusErr.Code = errResp.Error
			statusErr.Message = errResp.Message
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
