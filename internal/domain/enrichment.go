package domain

// Narrative holds the descriptive attributes derived for a place.
type Narrative struct {
	PlaceName              string
	Address                string
	ImageURL               *string
	Atmosphere             string
	Loudness               string
	Lighting               string
	RecurringEntertainment string
	PriceRange             string
	ReviewSummary          string
	YelpStars              *float64
}

// Classification is the keyword-derived category membership of a post.
type Classification struct {
	Groups      []string
	Experiences []string
}

// Enrichment is the full set of derived attributes attached to a candidate.
// Every field is populated; unknown values carry fallback text, never zero values.
type Enrichment struct {
	Narrative
	Classification
}
