package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

// PostHandler обрабатывает запросы к постам
type PostHandler struct {
	service BlogService
	responder
}

// NewPostHandler создает новый handler для постов
func NewPostHandler(logger *slog.Logger, service BlogService) *PostHandler {
	return &PostHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// List обрабатывает GET /api/v1/posts?limit=&offset=&sort=asc|desc
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.page(w, r)
	if !ok {
		return
	}

	posts, err := h.service.ListPosts(r.Context(), limit, offset, r.URL.Query().Get("sort"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := api.PostListResponse{
		Posts:  make([]api.PostResponse, 0, len(posts)),
		Limit:  effectiveLimit(limit),
		Offset: offset,
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(p))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.PostRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), *payload, validation.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toPostResponse(post), http.StatusCreated)
}

// Get обрабатывает GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toPostResponse(post), http.StatusOK)
}

// Update обрабатывает PUT /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.PostRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), *payload, r.PathValue("id"),
		validation.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toPostResponse(post), http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/posts/{id}
// Удаляет пост вместе со всеми комментариями
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	removal, err := h.service.DeletePost(r.Context(), *payload, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toDeleteResponse(removal), http.StatusOK)
}

// ListComments обрабатывает GET /api/v1/posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.page(w, r)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), r.PathValue("id"), limit, offset, r.URL.Query().Get("sort"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := api.CommentListResponse{
		Comments: make([]api.CommentResponse, 0, len(comments)),
		Limit:    effectiveLimit(limit),
		Offset:   offset,
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(c))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// page читает limit и offset из query
func (h *PostHandler) page(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return 0, 0, false
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeServiceError(w, r, err)
		return 0, 0, false
	}
	return limit, offset, true
}

func effectiveLimit(limit int) int {
	if limit == 0 {
		return validation.DefaultPageLimit
	}
	return limit
}

func toDeleteResponse(removal *cascade.Removal) api.DeleteResponse {
	return api.DeleteResponse{
		DeletedIDs:      removal.IDs,
		CommentsDeleted: removal.Comments,
	}
}
