package domain

import "time"

const (
	SourceInstagram = "instagram"

	MediaProviderInstagram   = "instagram"
	MediaProviderAISuggested = "ai-suggested"
)

// Item is a persisted, enriched post keyed by SourcePostID.
type Item struct {
	ID                     int64      `json:"id"`
	SourcePostID           string     `json:"sourcePostId"`
	Source                 string     `json:"source"`
	Caption                string     `json:"caption"`
	Likes                  *int64     `json:"likes"`
	Views                  *int64     `json:"views"`
	Timestamp              *time.Time `json:"timestamp"`
	PlaceName              string     `json:"placeName"`
	Address                string     `json:"address"`
	Atmosphere             string     `json:"atmosphere"`
	Loudness               string     `json:"loudness"`
	Lighting               string     `json:"lighting"`
	RecurringEntertainment string     `json:"recurringEntertainment"`
	PriceRange             string     `json:"priceRange"`
	ReviewSummary          string     `json:"reviewSummary"`
	YelpStars              *float64   `json:"yelpStars"`
	Groups                 []string   `json:"groups"`
	Experiences            []string   `json:"experiences"`
	Media                  []Media    `json:"media"`
	Hashtags               []Hashtag  `json:"hashtags"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

type Media struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

type Hashtag struct {
	ID  int64  `json:"id"`
	Tag string `json:"tag"`
}
