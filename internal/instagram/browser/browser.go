package browser

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/instagram"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/playwright-community/playwright-go"
)

const (
	name = "browser"

	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1"
	tileSelector    = `a[href^="/reel/"]`
	maxScrolls      = 10
	navTimeout      = 60 * time.Second
	clickTimeout    = 3 * time.Second
)

var cookieButtons = []string{
	`button:has-text("Only allow essential cookies")`,
	`button:has-text("Allow all cookies")`,
	`button:has-text("Accept")`,
	`button[aria-label="Accept all"]`,
}

const extractTiles = `els => els.map(el => {
	const img = el.querySelector('img');
	return { href: el.getAttribute('href') || '', src: img ? img.src : '', alt: img ? img.alt : '' };
})`

// Client scrapes the public reels grid of a hashtag.
type Client struct {
	manager *Manager
	logger  logger.Logger
}

var _ instagram.Client = (*Client)(nil)

func New(manager *Manager, log logger.Logger) *Client {
	return &Client{manager: manager, logger: log.WithComponent("BrowserSource")}
}

func (c *Client) Name() string { return name }

func (c *Client) FetchHashtag(ctx context.Context, tag string, count int) ([]domain.CandidatePost, error) {
	browser, release, err := c.manager.session()
	if err != nil {
		return nil, err
	}
	defer release()

	brContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(mobileUserAgent),
		Viewport:  &playwright.Size{Width: 390, Height: 844},
		Locale:    playwright.String("en-US"),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	defer func() {
		brContext.Close()
		debug.FreeOSMemory()
	}()
	// Closing the context aborts whatever playwright call is in flight.
	stop := context.AfterFunc(ctx, func() { brContext.Close() })
	defer stop()

	page, err := brContext.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	page.SetDefaultTimeout(timeoutMs(ctx, navTimeout))

	target := fmt.Sprintf("https://www.instagram.com/explore/tags/%s/reels/", url.PathEscape(tag))
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeoutMs(ctx, navTimeout)),
	}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("could not goto %s: %w", target, err)
	}

	c.dismissCookieBanner(ctx, page)
	if err := sleep(ctx, 1800*time.Millisecond); err != nil {
		return nil, err
	}

	collected := newTileSet(count)
	for i := 0; i < maxScrolls && !collected.full(); i++ {
		raw, err := page.Locator(tileSelector).EvaluateAll(extractTiles)
		if err != nil {
			if ctx.Err() != nil && len(collected.posts) > 0 {
				break
			}
			return nil, fmt.Errorf("could not read reel tiles: %w", err)
		}
		collected.addAll(decodeTiles(raw))

		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight * 1.5)"); err != nil {
			c.logger.Warn("Scroll failed", "hashtag", tag, "error", err)
		}
		if err := sleep(ctx, 900*time.Millisecond); err != nil {
			if len(collected.posts) > 0 {
				break
			}
			return nil, err
		}
	}

	c.logger.Debug("Scraped reels grid", "hashtag", tag, "tiles", len(collected.posts))
	return collected.posts, nil
}

func (c *Client) dismissCookieBanner(ctx context.Context, page playwright.Page) {
	for _, selector := range cookieButtons {
		btn := page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); !visible {
			continue
		}
		if err := btn.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(timeoutMs(ctx, clickTimeout))}); err != nil {
			c.logger.Debug("Cookie banner click failed", "selector", selector, "error", err)
		}
		return
	}
}

// timeoutMs caps a playwright timeout at what is left of ctx's deadline.
// Playwright treats 0 as no timeout, so an expired deadline maps to 1ms.
func timeoutMs(ctx context.Context, limit time.Duration) float64 {
	if deadline, ok := ctx.Deadline(); ok {
		limit = min(limit, time.Until(deadline))
	}
	if limit < time.Millisecond {
		limit = time.Millisecond
	}
	return float64(limit.Milliseconds())
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
