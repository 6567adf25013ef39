package ingestimpl

import (
	"strings"
	"testing"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

func TestFormatAnnouncement(t *testing.T) {
	msg := formatAnnouncement(domain.Item{
		PlaceName:   "Deep Ellum Jazz Bar",
		Address:     "2600 Main St. Dallas",
		Caption:     "Friday night (live!)",
		Likes:       domain.Int64(1234),
		PriceRange:  "$$",
		Loudness:    "Lively",
		Groups:      []string{"Jazz"},
		Experiences: []string{},
		Hashtags:    []domain.Hashtag{{Tag: "dallasjazz"}},
	})

	for _, want := range []string{
		"*Deep Ellum Jazz Bar*",
		`2600 Main St\. Dallas`,
		`Friday night \(live\!\)`,
		"1,234",
		"👀 n/a",
		"🎶 Jazz",
		`\#dallasjazz`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("announcement missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "✨") {
		t.Errorf("empty experiences should be omitted:\n%s", msg)
	}
	if strings.HasSuffix(msg, "\n") {
		t.Error("announcement must not end with a newline")
	}
}

func TestFormatAnnouncement_TruncatesCaption(t *testing.T) {
	msg := formatAnnouncement(domain.Item{Caption: strings.Repeat("a", 500)})
	if strings.Contains(msg, strings.Repeat("a", captionPreview)) {
		t.Error("caption should be truncated")
	}
	if !strings.Contains(msg, `\.\.\.`) {
		t.Errorf("truncated caption should end with an escaped ellipsis:\n%s", msg)
	}
}
