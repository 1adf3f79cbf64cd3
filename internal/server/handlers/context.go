package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iudanet/gophblog/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

// PayloadKey ключ для хранения TokenPayload в контексте
const PayloadKey contextKey = "token_payload"

// ErrMissingBearer indicates an absent or malformed Authorization header
var ErrMissingBearer = errors.New("missing or malformed bearer token")

// WithPayload возвращает контекст с данными аутентифицированного пользователя
func WithPayload(ctx context.Context, payload *models.TokenPayload) context.Context {
	return context.WithValue(ctx, PayloadKey, payload)
}

// GetPayload извлекает TokenPayload из контекста
func GetPayload(ctx context.Context) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(PayloadKey).(*models.TokenPayload)
	return payload, ok && payload != nil
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingBearer
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingBearer
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingBearer
	}
	return token, nil
}
