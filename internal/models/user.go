package models

import "time"

// Role определяет роль пользователя в системе
type Role string

const (
	// RoleAdmin администратор, создается только через seed
	RoleAdmin Role = "admin"
	// RoleUser обычный пользователь, назначается при регистрации
	RoleUser Role = "user"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	UpdatedAt    time.Time `json:"updated_at"` // время последнего обновления
	ID           string    `json:"id"`         // UUID пользователя
	Email        string    `json:"email"`      // уникальный email (lower-case)
	PasswordHash string    `json:"-"`          // argon2id хеш пароля
	Name         string    `json:"name"`       // отображаемое имя
	Role         Role      `json:"role"`       // admin | user
}

// Session представляет одну активную авторизацию (устройство/клиент)
type Session struct {
	CreatedAt        time.Time `json:"created_at"` // время создания
	UpdatedAt        time.Time `json:"updated_at"` // время последней ротации
	ID               string    `json:"id"`         // UUID сессии
	UserID           string    `json:"user_id"`    // ID владельца
	RefreshTokenHash string    `json:"-"`          // argon2id хеш текущего refresh token
}

// TokenPayload is embedded into both access and refresh tokens.
// It is never persisted.
type TokenPayload struct {
	Sub       string `json:"sub"`        // ID пользователя
	Role      Role   `json:"role"`       // роль пользователя
	SessionID string `json:"session_id"` // ID сессии
}
