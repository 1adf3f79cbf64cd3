package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/blog"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

// maxBodySize ограничение на размер тела запроса
const maxBodySize = 1 << 20

// responder общие методы ответа, встраивается в handlers
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}

// decodeJSON читает тело запроса в v
func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(r.Context(), "failed to decode request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError сопоставляет доменные ошибки со статусами HTTP
func (h responder) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, validation.ErrInvalidInput), errors.Is(err, search.ErrInvalidQuery):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.sendError(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, jwt.ErrInvalidToken):
		h.sendError(w, "invalid or expired token", http.StatusUnauthorized)
	case errors.Is(err, session.ErrCompromisedSession):
		h.logger.WarnContext(ctx, "compromised session rejected", slog.String("path", r.URL.Path))
		h.sendJSON(w, api.ErrorResponse{
			Error:   "session compromised",
			Message: "refresh token reuse detected, the session was revoked; please log in again",
		}, http.StatusUnauthorized)
	case errors.Is(err, session.ErrSessionNotFound):
		h.sendJSON(w, api.ErrorResponse{
			Error:   "session not found",
			Message: "please log in again",
		}, http.StatusUnauthorized)
	case errors.Is(err, blog.ErrForbidden):
		h.sendError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, blog.ErrEntityNotFound):
		h.sendError(w, "not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrUserNotFound):
		h.sendError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrEmailTaken):
		h.sendError(w, "email already registered", http.StatusConflict)
	case errors.Is(err, blog.ErrSearchDisabled):
		h.sendError(w, "search is disabled", http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// queryInt читает целочисленный query параметр, пустое значение дает 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", validation.ErrInvalidInput, name)
	}
	return v, nil
}

func toUserResponse(u *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toPostResponse(p *models.Post) api.PostResponse {
	return api.PostResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toCommentResponse(c *models.Comment) api.CommentResponse {
	return api.CommentResponse{
		ID:              c.ID,
		AuthorID:        c.AuthorID,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
	}
}
