package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/readshare/internal/client/auth"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Register ===")

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	user, err := c.auth.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Println("Run 'readshare login' to start a session.")
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

	session, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("User ID: %s\n", session.UserID)
	c.io.Printf("Session valid until: %s\n", session.RefreshExpiresAt.Format(time.RFC3339))
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	session, err := c.auth.Session(ctx)
	if errors.Is(err, auth.ErrNotLoggedIn) {
		c.io.Println("Status: Not authenticated")
		c.io.Println("Run 'readshare login' to authenticate.")
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	c.io.Println("Status: Authenticated")
	c.io.Printf("Email: %s\n", session.Email)
	c.io.Printf("User ID: %s\n", session.UserID)
	c.io.Printf("Access token expires: %s\n", session.AccessExpiresAt.Format(time.RFC3339))

	if session.RefreshExpired(now) {
		c.io.Println("⚠️  Session has expired. Please login again.")
	} else {
		c.io.Printf("Session time remaining: %s\n", session.RefreshExpiresAt.Sub(now).Round(time.Second))
	}
	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	me, err := c.feed.Me(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Username: %s\n", me.User.Username)
	if me.User.DisplayName != nil {
		c.io.Printf("Name: %s\n", *me.User.DisplayName)
	}
	c.io.Printf("Email: %s\n", me.User.Email)
	c.io.Printf("Member since: %s\n", me.User.CreatedAt.Format("2006-01-02"))
	c.io.Printf("Active sessions: %d\n", me.ActiveSessions)
	return nil
}
