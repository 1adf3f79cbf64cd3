package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/gophblog/pkg/api"
)

// SessionPurger удаляет сессии, не ротировавшиеся дольше maxAge
type SessionPurger interface {
	PurgeStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// AdminHandler обрабатывает административные запросы.
// Доступ ограничивается RequireRole(admin) на уровне роутера.
type AdminHandler struct {
	sessions SessionPurger
	maxAge   time.Duration
	responder
}

// NewAdminHandler создает новый handler для администратора
func NewAdminHandler(logger *slog.Logger, sessions SessionPurger, maxAge time.Duration) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger},
		sessions:  sessions,
		maxAge:    maxAge,
	}
}

// PurgeSessions обрабатывает POST /api/v1/admin/sessions/purge
func (h *AdminHandler) PurgeSessions(w http.ResponseWriter, r *http.Request) {
	purged, err := h.sessions.PurgeStale(r.Context(), h.maxAge)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if payload, ok := GetPayload(r.Context()); ok {
		h.logger.InfoContext(r.Context(), "Stale sessions purged by admin",
			slog.String("admin_id", payload.Sub),
			slog.Int("purged", purged))
	}

	h.sendJSON(w, api.PurgeSessionsResponse{Purged: purged}, http.StatusOK)
}
