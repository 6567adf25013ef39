package instagramimpl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Davincible/goinsta/v3"
)

// Login attempts to connect to Instagram, first trying to load from an existing session,
// or logging in with credentials if the session isn't available.
func (ig *IgImpl) Login() error {
	if client, err := ig.reloadSession(); err == nil {
		if ig.validateSession(client) {
			ig.setClient(client)
			ig.logger.Info("Successfully logged in using existing session")
			return nil
		}
		ig.logger.Warn("Session loaded but appears to be invalid, attempting fresh login")
	}

	if ig.config.Instagram.User == "" || ig.config.Instagram.Pass == "" {
		return fmt.Errorf("no valid session and no credentials configured")
	}

	ig.logger.Info("Attempting to log in with credentials")
	client := goinsta.New(ig.config.Instagram.User, ig.config.Instagram.Pass)

	var loginErr error
	for attempt := 1; attempt <= 3; attempt++ {
		loginErr = client.Login()
		if loginErr == nil {
			break
		}

		ig.logger.Error("Login attempt failed", "attempt", attempt, "error", loginErr)
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	if loginErr != nil {
		return fmt.Errorf("failed to log in after multiple attempts: %w", loginErr)
	}

	ig.setClient(client)
	ig.logger.Info("Successfully logged in with credentials")

	if err := ig.saveSession(client); err != nil {
		ig.logger.Warn("Failed to save Instagram session", "error", err)
	}
	return nil
}

func (ig *IgImpl) setClient(client *goinsta.Instagram) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	ig.client = client
	ig.loggedIn = true
}

func (ig *IgImpl) reloadSession() (*goinsta.Instagram, error) {
	if _, err := os.Stat(ig.config.Instagram.SessionPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("session file not found: %w", err)
	}

	client, err := goinsta.Import(ig.config.Instagram.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to import session: %w", err)
	}
	return client, nil
}

// validateSession syncs the account with a short deadline.
func (ig *IgImpl) validateSession(client *goinsta.Instagram) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ig.logger.Error("Panic in Instagram session validation", "panic", r)
				done <- false
			}
		}()
		done <- client.Account.Sync() == nil
	}()

	select {
	case valid := <-done:
		return valid
	case <-ctx.Done():
		ig.logger.Warn("Session validation timed out")
		return false
	}
}

func (ig *IgImpl) saveSession(client *goinsta.Instagram) error {
	path := ig.config.Instagram.SessionPath
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	if err := client.Export(path); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}

	ig.logger.Info("Instagram session saved successfully", "path", path)
	return nil
}
