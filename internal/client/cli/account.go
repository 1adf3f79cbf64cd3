package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/gophblog/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.io.ReadPassword("Password (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	// Совпадение паролей проверяет сервер
	user, err := c.auth.Register(ctx, email, password, confirm)
	if err != nil {
		return err
	}

	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Name: %s\n", user.Name)
	c.io.Println("Run 'gophblog login' to start posting.")
	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	auth, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Email: %s\n", auth.Email)
	c.io.Printf("Session: %s\n", auth.SessionID)
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	auth, err := c.auth.Status(ctx)
	if err != nil {
		return err
	}

	expiresAt := time.Unix(auth.ExpiresAt, 0)
	c.io.Println("Status: Authenticated")
	c.io.Printf("Email: %s\n", auth.Email)
	c.io.Printf("Session: %s\n", auth.SessionID)
	if remaining := time.Until(expiresAt); remaining > 0 {
		c.io.Printf("Access token expires in: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Access token expired, it will be refreshed on the next request.")
	}
	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	var user *api.UserResponse
	err := c.auth.WithToken(ctx, func(token string) error {
		var err error
		user, err = c.api.Me(ctx, token)
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("%s <%s> role=%s id=%s\n", user.Name, user.Email, user.Role, user.ID)
	return nil
}
