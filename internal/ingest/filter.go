package ingest

import "github.com/orgball2608/hashtag-discovery/internal/domain"

// Filter drops candidates whose known view count is below minViews and keeps
// at most limit of the rest, in input order. Candidates with no view count
// always pass. A limit of zero or less keeps everything.
func Filter(candidates []domain.CandidatePost, minViews int64, limit int) []domain.CandidatePost {
	out := make([]domain.CandidatePost, 0, len(candidates))
	for _, c := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.ViewCount != nil && *c.ViewCount < minViews {
			continue
		}
		out = append(out, c)
	}
	return out
}
