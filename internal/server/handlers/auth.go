package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	service AuthService
	responder
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, service AuthService) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), validation.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация пользователя и создание новой сессии
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", res.User.ID),
		slog.String("session_id", res.Session.SessionID))

	h.sendJSON(w, api.LoginResponse{
		User:      toUserResponse(res.User),
		SessionID: res.Session.SessionID,
		TokenResponse: api.TokenResponse{
			AccessToken:  res.Session.AccessToken,
			RefreshToken: res.Session.RefreshToken,
			ExpiresIn:    res.Session.ExpiresIn,
		},
	}, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Refresh token передается в заголовке Authorization: Bearer <refresh_token>
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := BearerToken(r)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, api.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Завершает только текущую сессию. Требует AuthMiddleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), *payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me обрабатывает GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetPayload(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.Me(r.Context(), payload.Sub)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusOK)
}
