package browser

import (
	"context"
	"fmt"

	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/fx"
)

// Manager owns the playwright driver. With a CDP endpoint configured every
// session is a fresh remote browser; otherwise one local headless Chromium is shared.
type Manager struct {
	pw          *playwright.Playwright
	local       playwright.Browser
	cdpEndpoint string
	logger      logger.Logger
}

func NewManager(lc fx.Lifecycle, cfg *config.Config, log logger.Logger) (*Manager, error) {
	log = log.WithComponent("Playwright")
	log.Info("Initializing Playwright Manager...")

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	manager := &Manager{
		pw:          pw,
		cdpEndpoint: cfg.Instagram.CDPEndpoint,
		logger:      log,
	}

	if manager.cdpEndpoint == "" {
		manager.local, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(true),
			Args: []string{
				"--no-sandbox",
				"--disable-setuid-sandbox",
				"--disable-dev-shm-usage",
				"--disable-accelerated-2d-canvas",
				"--no-first-run",
				"--no-zygote",
				"--disable-gpu",
			},
		})
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("could not launch browser: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Playwright...")
			if manager.local != nil {
				if err := manager.local.Close(); err != nil {
					log.Error("Failed to close playwright browser", "error", err)
				}
			}
			if err := manager.pw.Stop(); err != nil {
				log.Error("Failed to stop playwright", "error", err)
				return err
			}
			log.Info("Playwright stopped successfully.")
			return nil
		},
	})

	log.Info("Playwright Manager initialized successfully.", "remote", manager.cdpEndpoint != "")
	return manager, nil
}

// session returns a browser for one hashtag and the func that releases it.
func (m *Manager) session() (playwright.Browser, func(), error) {
	if m.cdpEndpoint == "" {
		return m.local, func() {}, nil
	}

	remote, err := m.pw.Chromium.ConnectOverCDP(m.cdpEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect over cdp: %w", err)
	}
	return remote, func() {
		if err := remote.Close(); err != nil {
			m.logger.Warn("Failed to close remote browser", "error", err)
		}
	}, nil
}
