package ingestimpl

import (
	"context"
	"fmt"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/pkg/formatter"
)

const captionPreview = 200

// announce hands newly created items to the announcement pool and returns at
// once. Overwritten items stay quiet. A batch is dropped when every worker is busy.
func (s *IngestImpl) announce(items []domain.Item) {
	if len(items) == 0 || s.announcements == nil {
		return
	}

	s.pending.Add(1)
	err := s.announcements.Submit(func() {
		defer s.pending.Done()
		for _, it := range items {
			s.send(it)
		}
	})
	if err != nil {
		s.pending.Done()
		s.Logger.Warn("Dropping announcements", "items", len(items), "error", err)
	}
}

func (s *IngestImpl) send(it domain.Item) {
	msg := formatAnnouncement(it)
	if len(it.Media) > 0 {
		s.Telegram.SendPhotoToDefaultChannel(it.Media[0].URL, msg)
		return
	}
	s.Telegram.SendMessageToDefaultChannel(msg)
}

// Stop waits for queued announcements until ctx is done, then releases the pool.
func (s *IngestImpl) Stop(ctx context.Context) error {
	if s.announcements == nil {
		return nil
	}
	defer s.announcements.Release()

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.Logger.Warn("Announcements still pending at shutdown", "error", ctx.Err())
		return ctx.Err()
	}
}

func formatAnnouncement(it domain.Item) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📍 *%s*\n", formatter.EscapeMarkdownV2(it.PlaceName))
	fmt.Fprintf(&sb, "%s\n\n", formatter.EscapeMarkdownV2(it.Address))

	if caption := strings.TrimSpace(it.Caption); caption != "" {
		fmt.Fprintf(&sb, "%s\n\n", formatter.EscapeMarkdownV2(formatter.Truncate(caption, captionPreview)))
	}

	fmt.Fprintf(&sb, "❤️ %s  👀 %s\n",
		formatter.EscapeMarkdownV2(formatter.FormatCount(it.Likes)),
		formatter.EscapeMarkdownV2(formatter.FormatCount(it.Views)),
	)
	fmt.Fprintf(&sb, "💲 %s  🔊 %s\n", formatter.EscapeMarkdownV2(it.PriceRange), formatter.EscapeMarkdownV2(it.Loudness))

	if len(it.Groups) > 0 {
		fmt.Fprintf(&sb, "🎶 %s\n", formatter.EscapeMarkdownV2(strings.Join(it.Groups, ", ")))
	}
	if len(it.Experiences) > 0 {
		fmt.Fprintf(&sb, "✨ %s\n", formatter.EscapeMarkdownV2(strings.Join(it.Experiences, ", ")))
	}

	if len(it.Hashtags) > 0 {
		tags := make([]string, 0, len(it.Hashtags))
		for _, h := range it.Hashtags {
			tags = append(tags, "#"+h.Tag)
		}
		fmt.Fprintf(&sb, "\n%s", formatter.EscapeMarkdownV2(strings.Join(tags, " ")))
	}

	return strings.TrimRight(sb.String(), "\n")
}
