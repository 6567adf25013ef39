package ingest

import (
	"context"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/instagram"
)

const (
	DefaultMinViews = 6000
	DefaultLimit    = 20
	MaxLimit        = 50

	DefaultImagesLimit = 24
	MaxImagesLimit     = 60
)

// Request describes one ingestion run.
type Request struct {
	Hashtags []string
	MinViews int64
	Limit    int
	City     string
}

// Result lists the items written by a run, in candidate order.
type Result struct {
	Items []domain.Item
	// Created counts items that did not exist before this run.
	Created int
	// Rejected counts candidates the store refused.
	Rejected int
	// Failures are the hashtags whose fetch failed.
	Failures []*instagram.FetchError
}

type SearchRequest struct {
	Hashtags    []string
	MinViews    int64
	Limit       int
	Groups      []string
	Experiences []string
}

//go:generate go run go.uber.org/mock/mockgen -source=ingest.go -destination=mocks/mock.go
type Service interface {
	// Ingest fetches, filters, enriches and stores candidates for the hashtags.
	Ingest(ctx context.Context, req Request) (Result, error)

	// Search ingests for the hashtags when there are any, then queries the store.
	Search(ctx context.Context, req SearchRequest) ([]domain.Item, error)

	// Images lists upstream images for the hashtags without storing anything.
	Images(ctx context.Context, hashtags []string, limit int) ([]domain.ImagePost, error)

	Get(ctx context.Context, id int64) (*domain.Item, error)
}

// Scheduler periodically re-ingests the configured hashtag sets.
type Scheduler interface {
	ScheduleIngest(ctx context.Context) error
}
