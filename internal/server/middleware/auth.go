package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/pkg/api"
)

// AccessValidator проверяет access token и возвращает его payload
type AccessValidator interface {
	ValidateAccessToken(token string) (*models.TokenPayload, error)
}

// AuthMiddleware создает middleware для проверки JWT access token.
// Payload токена кладется в контекст запроса (handlers.GetPayload).
func AuthMiddleware(logger *slog.Logger, validator AccessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := handlers.BearerToken(r)
			if err != nil {
				logger.WarnContext(r.Context(), "Missing or malformed Authorization header",
					slog.String("path", r.URL.Path))
				writeJSONError(w, api.ErrorResponse{Error: "unauthorized: missing token"}, http.StatusUnauthorized)
				return
			}

			payload, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "Invalid access token", slog.Any("error", err))
				writeJSONError(w, api.ErrorResponse{Error: "unauthorized: invalid token"}, http.StatusUnauthorized)
				return
			}

			logger.DebugContext(r.Context(), "User authenticated",
				slog.String("user_id", payload.Sub),
				slog.String("session_id", payload.SessionID))

			next.ServeHTTP(w, r.WithContext(handlers.WithPayload(r.Context(), payload)))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Должен стоять после AuthMiddleware.
func RequireRole(logger *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := handlers.GetPayload(r.Context())
			if !ok {
				writeJSONError(w, api.ErrorResponse{Error: "unauthorized"}, http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, payload.Role) {
				logger.WarnContext(r.Context(), "Role not allowed",
					slog.String("user_id", payload.Sub),
					slog.String("role", string(payload.Role)),
					slog.String("path", r.URL.Path))
				writeJSONError(w, api.ErrorResponse{Error: "forbidden"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
