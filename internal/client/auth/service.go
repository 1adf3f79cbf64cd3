// Package auth manages the client side of a gophblog session: login,
// token storage and transparent refresh-token rotation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	clientapi "github.com/iudanet/gophblog/internal/client/api"
	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/pkg/api"
)

var (
	// ErrNotAuthenticated нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated, run 'gophblog login' first")
	// ErrSessionExpired сервер отверг refresh token, локальная сессия удалена
	ErrSessionExpired = errors.New("session expired or revoked, please log in again")
)

// expirySkew access token обновляется заранее, чтобы не истечь в пути
const expirySkew = 10 * time.Second

// API методы сервера, нужные для аутентификации
type API interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.UserResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// Service аутентификация клиента
type Service struct {
	api   API
	store storage.AuthStorage
	now   func() time.Time
}

// NewService creates a new client auth service
func NewService(api API, store storage.AuthStorage) *Service {
	return &Service{api: api, store: store, now: time.Now}
}

// Register создает аккаунт на сервере. Сессия не сохраняется.
func (s *Service) Register(ctx context.Context, email, password, confirm string) (*api.UserResponse, error) {
	return s.api.Register(ctx, api.RegisterRequest{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
}

// Login выполняет вход и сохраняет токены локально
func (s *Service) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	resp, err := s.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	auth := &storage.AuthData{
		Email:        resp.User.Email,
		UserID:       resp.User.ID,
		SessionID:    resp.SessionID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Unix() + resp.ExpiresIn,
	}

	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return auth, nil
}

// Logout завершает сессию на сервере и удаляет локальные токены.
// Локальные данные удаляются даже если сервер уже не знает сессию.
func (s *Service) Logout(ctx context.Context) error {
	auth, err := s.current(ctx)
	if err != nil {
		return err
	}

	serverErr := s.WithToken(ctx, func(token string) error {
		return s.api.Logout(ctx, token)
	})
	if errors.Is(serverErr, ErrSessionExpired) {
		return nil
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session %s: %w", auth.SessionID, err)
	}

	return serverErr
}

// Status возвращает сохраненную сессию
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	return s.current(ctx)
}

// WithToken вызывает fn с действующим access token.
// Истекший токен обновляется заранее; на 401 токен обновляется и fn повторяется один раз.
func (s *Service) WithToken(ctx context.Context, fn func(accessToken string) error) error {
	auth, err := s.current(ctx)
	if err != nil {
		return err
	}

	refreshed := false
	if s.now().Add(expirySkew).Unix() >= auth.ExpiresAt {
		if auth, err = s.refresh(ctx, auth); err != nil {
			return err
		}
		refreshed = true
	}

	err = fn(auth.AccessToken)
	if err == nil || refreshed || !errors.Is(err, clientapi.ErrUnauthorized) {
		return err
	}

	if auth, err = s.refresh(ctx, auth); err != nil {
		return err
	}
	return fn(auth.AccessToken)
}

// refresh ротирует пару токенов. Старый refresh token после этого недействителен,
// поэтому новая пара сохраняется сразу.
func (s *Service) refresh(ctx context.Context, auth *storage.AuthData) (*storage.AuthData, error) {
	resp, err := s.api.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, clientapi.ErrUnauthorized) {
			if delErr := s.store.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
				return nil, errors.Join(ErrSessionExpired, err, delErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return nil, err
	}

	next := *auth
	next.AccessToken = resp.AccessToken
	next.RefreshToken = resp.RefreshToken
	next.ExpiresAt = s.now().Unix() + resp.ExpiresIn

	if err := s.store.SaveAuth(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to save rotated tokens: %w", err)
	}

	return &next, nil
}

func (s *Service) current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read auth data: %w", err)
	}
	return auth, nil
}
