package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

// CommentHandler обрабатывает запросы к комментариям
type CommentHandler struct {
	service BlogService
	responder
}

// NewCommentHandler создает новый handler для комментариев
func NewCommentHandler(logger *slog.Logger, service BlogService) *CommentHandler {
	return &CommentHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Create обрабатывает POST /api/v1/comments
// Комментарий к посту (post_id) или ответ на комментарий (parent_comment_id)
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CommentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), *payload, validation.CommentInput{
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toCommentResponse(comment), http.StatusCreated)
}

// Delete обрабатывает DELETE /api/v1/comments/{id}
// Удаляет комментарий вместе со всем деревом ответов
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	removal, err := h.service.DeleteComment(r.Context(), *payload, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toDeleteResponse(removal), http.StatusOK)
}
