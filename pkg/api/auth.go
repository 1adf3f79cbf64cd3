package api

import "time"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse публичный профиль пользователя
type UserResponse struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // JWT refresh token, ротируется при каждом использовании
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
}

// LoginResponse ответ на успешный вход
type LoginResponse struct {
	User      UserResponse `json:"user"`
	SessionID string       `json:"session_id"`
	TokenResponse
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// PurgeSessionsResponse ответ на принудительную очистку устаревших сессий
type PurgeSessionsResponse struct {
	Purged int `json:"purged"`
}
