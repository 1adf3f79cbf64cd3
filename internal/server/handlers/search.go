package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/pkg/api"
)

// SearchHandler обрабатывает полнотекстовый поиск
type SearchHandler struct {
	service BlogService
	responder
}

// NewSearchHandler создает новый handler для поиска
func NewSearchHandler(logger *slog.Logger, service BlogService) *SearchHandler {
	return &SearchHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Search обрабатывает GET /api/v1/search?q=&size=&after=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	res, err := h.service.Search(r.Context(), search.Query{
		Text:  query.Get("q"),
		Size:  size,
		After: query.Get("after"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := api.SearchResponse{
		Next: res.Next,
		Hits: make([]api.SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		doc := hit.Document
		resp.Hits = append(resp.Hits, api.SearchHit{
			ID:              doc.ID,
			Kind:            string(doc.Kind),
			Title:           doc.Title,
			Content:         doc.Content,
			PostID:          doc.PostID,
			ParentCommentID: doc.ParentCommentID,
			AuthorID:        doc.Author.ID,
			AuthorName:      doc.Author.Name,
			Cursor:          hit.Cursor,
			Score:           hit.Score,
		})
	}

	h.sendJSON(w, resp, http.StatusOK)
}
