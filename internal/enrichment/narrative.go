package enrichment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

const (
	unknown            = "Unknown"
	summaryUnavailable = "Summary unavailable"

	minStars = 0
	maxStars = 5
)

func unknownAddress(city string) string {
	return city + " (Unknown exact address)"
}

// StaticNarrative is used when no narrator is configured.
func StaticNarrative(city string) domain.Narrative {
	return domain.Narrative{
		PlaceName:              unknown,
		Address:                unknownAddress(city),
		Atmosphere:             "Casual/Chill",
		Loudness:               "Moderate",
		Lighting:               "Dim/Balanced",
		RecurringEntertainment: unknown,
		PriceRange:             "$$ (estimate)",
		ReviewSummary:          "Reviews suggest a popular spot based on social traction.",
	}
}

// ParseNarrative decodes a narrator reply. Each field falls back on its own
// when missing, empty or of the wrong type; a reply that is not a JSON object
// yields every fallback.
func ParseNarrative(raw, city string) domain.Narrative {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &fields); err != nil || fields == nil {
		fields = map[string]any{}
	}

	return domain.Narrative{
		PlaceName:              stringOr(fields, "placeName", unknown),
		Address:                stringOr(fields, "address", unknownAddress(city)),
		ImageURL:               optionalURL(fields, "imageUrl"),
		Atmosphere:             stringOr(fields, "atmosphere", unknown),
		Loudness:               stringOr(fields, "loudness", unknown),
		Lighting:               stringOr(fields, "lighting", unknown),
		RecurringEntertainment: stringOr(fields, "recurringEntertainment", unknown),
		PriceRange:             stringOr(fields, "priceRange", unknown),
		ReviewSummary:          stringOr(fields, "reviewSummary", summaryUnavailable),
		YelpStars:              optionalNumber(fields, "yelpStars"),
	}
}

// Merge combines both halves of an enrichment. Groups and experiences always
// come from the classifier.
func Merge(c domain.Classification, n domain.Narrative) domain.Enrichment {
	if c.Groups == nil {
		c.Groups = []string{}
	}
	if c.Experiences == nil {
		c.Experiences = []string{}
	}
	return domain.Enrichment{Narrative: n, Classification: c}
}

func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

func stringOr(fields map[string]any, key, fallback string) string {
	if s, ok := fields[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

// optionalURL keeps only absolute http(s) URLs; "Unknown" and the like become nil.
func optionalURL(fields map[string]any, key string) *string {
	s := stringOr(fields, key, "")
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil
	}
	return &s
}

// optionalNumber reads a star rating. Non-finite values and values outside
// 0..5 become nil so they never reach storage.
func optionalNumber(fields map[string]any, key string) *float64 {
	var f float64
	switch v := fields[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < minStars || f > maxStars {
		return nil
	}
	return &f
}
