package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
)

const systemPrompt = `You are a local discovery assistant.
Given a short Instagram caption and comments, infer the likely PLACE NAME and ADDRESS (if findable),
and summarize the vibe (atmosphere, loudness, lighting, recurring entertainment), price range,
and a quick review summary (Yelp/Google). If unsure, say "Unknown" for that field.
Return concise, factual results.`

// Enricher derives the full Enrichment for a candidate. It never fails:
// missing or broken answers from the narrator are replaced by fallbacks.
type Enricher struct {
	taxonomy *Taxonomy
	narrator Narrator
	timeout  time.Duration
	logger   logger.Logger
}

// NewEnricher builds an Enricher. A nil narrator disables the enhanced tier.
func NewEnricher(taxonomy *Taxonomy, narrator Narrator, timeout time.Duration, log logger.Logger) *Enricher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Enricher{
		taxonomy: taxonomy,
		narrator: narrator,
		timeout:  timeout,
		logger:   log.WithComponent("Enricher"),
	}
}

func (e *Enricher) Enrich(ctx context.Context, candidate domain.CandidatePost, city string) domain.Enrichment {
	if city = strings.TrimSpace(city); city == "" {
		city = DefaultCity
	}

	classification := e.taxonomy.Classify(candidate.Caption + " " + candidate.CommentsText)

	if e.narrator == nil {
		return Merge(classification, StaticNarrative(city))
	}

	narrateCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.narrator.Narrate(narrateCtx, BuildPrompt(candidate, city))
	if err != nil {
		e.logger.Warn("Narrator failed, using fallbacks", "source_id", candidate.SourceID, "error", err)
		raw = ""
	}
	return Merge(classification, ParseNarrative(raw, city))
}

// BuildPrompt renders the narrator request for one candidate.
func BuildPrompt(candidate domain.CandidatePost, city string) Prompt {
	timestamp := "unknown"
	if candidate.Timestamp != nil {
		timestamp = candidate.Timestamp.UTC().Format(time.RFC3339)
	}

	user := fmt.Sprintf(`Caption: %s
Top Comments: %s
Social Proof: %s likes, %s views. Timestamp: %s
City Focus: %s

Tasks:
1) Guess Place Name and Address (%s area).
2) Atmosphere (quiet/loud), Lighting (dim/bright), Recurring Entertainment (if any).
3) Price Range (e.g., $, $$, $$$).
4) Yelp/Google quick review vibe (and stars if findable).
5) Suggest a representative image URL (official site, Google Maps, Yelp, or Instagram thumbnail).
Return JSON with keys: placeName, address, imageUrl, atmosphere, loudness, lighting, recurringEntertainment, priceRange, reviewSummary, yelpStars.`,
		candidate.Caption,
		candidate.CommentsText,
		count(candidate.LikeCount),
		count(candidate.ViewCount),
		timestamp,
		city,
		city,
	)

	return Prompt{System: systemPrompt, User: user}
}

func count(v *int64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}
