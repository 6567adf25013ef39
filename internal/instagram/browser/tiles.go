package browser

import (
	"regexp"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

type tile struct {
	Href string
	Src  string
	Alt  string
}

var nonWord = regexp.MustCompile(`\W+`)

// decodeTiles converts the EvaluateAll result into tiles, skipping anything malformed.
func decodeTiles(raw any) []tile {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	tiles := make([]tile, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		href, _ := m["href"].(string)
		src, _ := m["src"].(string)
		alt, _ := m["alt"].(string)
		tiles = append(tiles, tile{Href: href, Src: src, Alt: alt})
	}
	return tiles
}

// reelID returns the shortcode of /reel/<code>/, or the href stripped of
// non-word characters when it has another shape.
func reelID(href string) string {
	if _, rest, ok := strings.Cut(href, "/reel/"); ok {
		if code, _, _ := strings.Cut(rest, "/"); code != "" {
			return code
		}
	}
	return nonWord.ReplaceAllString(href, "")
}

func (t tile) toCandidate() domain.CandidatePost {
	return domain.CandidatePost{
		SourceID:  reelID(t.Href),
		Caption:   t.Alt,
		ImageURL:  t.Src,
		Permalink: "https://www.instagram.com" + t.Href,
		Hashtags:  domain.ParseHashtags(t.Alt),
	}
}

// tileSet keeps the first occurrence of each reel, up to a limit.
type tileSet struct {
	limit int
	seen  map[string]struct{}
	posts []domain.CandidatePost
}

func newTileSet(limit int) *tileSet {
	return &tileSet{limit: limit, seen: make(map[string]struct{}, limit)}
}

func (s *tileSet) full() bool {
	return s.limit > 0 && len(s.posts) >= s.limit
}

func (s *tileSet) addAll(tiles []tile) {
	for _, t := range tiles {
		if s.full() {
			return
		}
		post := t.toCandidate()
		if post.SourceID == "" {
			continue
		}
		if _, dup := s.seen[post.SourceID]; dup {
			continue
		}
		s.seen[post.SourceID] = struct{}{}
		s.posts = append(s.posts, post)
	}
}
