package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/gophblog/internal/models"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or claims checks
var ErrInvalidToken = errors.New("invalid token")

// Config содержит конфигурацию для JWT.
// Access и refresh токены подписываются разными секретами,
// поэтому утекший access token нельзя предъявить как refresh.
type Config struct {
	Issuer          string
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Claims представляет JWT claims для нашего приложения.
// sub хранится в RegisteredClaims.Subject.
type Claims struct {
	Role      models.Role `json:"role"`
	SessionID string      `json:"session_id"`
	jwt.RegisteredClaims
}

// Service provides JWT token generation and validation
type Service struct {
	cfg Config
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("jwt secrets cannot be empty")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "gophblog"
	}
	return &Service{cfg: cfg}, nil
}

// AccessTokenTTL returns the configured access token lifetime
func (s *Service) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime
func (s *Service) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

// GenerateAccessToken создает новый access token.
// Возвращает токен и время жизни в секундах.
func (s *Service) GenerateAccessToken(payload models.TokenPayload) (string, int64, error) {
	token, err := s.sign(payload, s.cfg.AccessSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create access token: %w", err)
	}
	return token, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// GenerateRefreshToken создает новый refresh token и возвращает время его истечения
func (s *Service) GenerateRefreshToken(payload models.TokenPayload) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.RefreshTokenTTL)
	token, err := s.sign(payload, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateAccessToken валидирует и парсит access token
func (s *Service) ValidateAccessToken(token string) (*models.TokenPayload, error) {
	return s.parse(token, s.cfg.AccessSecret)
}

// ValidateRefreshToken валидирует и парсит refresh token
func (s *Service) ValidateRefreshToken(token string) (*models.TokenPayload, error) {
	return s.parse(token, s.cfg.RefreshSecret)
}

func (s *Service) sign(payload models.TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Role:      payload.Role,
		SessionID: payload.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Sub,
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			// jti делает каждую пару уникальной даже при ротации в ту же секунду
			ID: uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) parse(tokenString string, secret []byte) (*models.TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing sub or session_id", ErrInvalidToken)
	}

	return &models.TokenPayload{
		Sub:       claims.Subject,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}
