package domain

import (
	"regexp"
	"strings"
	"time"
)

// CandidatePost is a normalized upstream post before enrichment and storage.
// LikeCount and ViewCount are nil when the source cannot measure them.
type CandidatePost struct {
	SourceID     string     // Stable upstream identifier (shortcode or media ID)
	Caption      string     // Post caption
	CommentsText string     // Concatenated top comments, if the source exposes them
	LikeCount    *int64     // nil when unknown
	ViewCount    *int64     // nil when unknown
	Timestamp    *time.Time // When the post was published, nil when unknown
	ImageURL     string     // Thumbnail or image URL
	Permalink    string     // Link to the post on Instagram
	Hashtags     []string   // Lowercased hashtags without '#'
}

// ImagePost is the read-only projection served by the image listing.
type ImagePost struct {
	ID       string   `json:"id"`
	ImageURL string   `json:"imageUrl"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// ParseHashtags extracts unique lowercased hashtags from free text, in order of appearance.
func ParseHashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	tags := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1:])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeHashtags trims, lowercases, strips a leading '#' and drops empty or repeated tags.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Int64 returns a pointer to v. Handy for optional counters.
func Int64(v int64) *int64 {
	return &v
}
