package item

import (
	"context"
	"errors"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

var (
	ErrNotFound = errors.New("item not found")
	// ErrRejected marks a candidate the store refused. Other candidates can still be stored.
	ErrRejected = errors.New("item rejected by store")
	// ErrUnavailable marks a failure of the store itself.
	ErrUnavailable = errors.New("item store unavailable")
)

type UpsertInput struct {
	Candidate  domain.CandidatePost
	Enrichment domain.Enrichment
}

type UpsertResult struct {
	Item *domain.Item
	// Created is false when an existing row with the same source post id was overwritten.
	Created bool
}

// Query filters stored items. Empty Groups or Experiences do not filter.
type Query struct {
	Limit       int
	Groups      []string
	Experiences []string
}

//go:generate go run go.uber.org/mock/mockgen -source=item.go -destination=mocks/mock.go
type Repository interface {
	// Upsert inserts or overwrites the item keyed by the candidate's source post id
	// and adds its media and hashtags, all in one transaction.
	Upsert(ctx context.Context, in UpsertInput) (UpsertResult, error)

	// Query returns items matching q, most recently updated first.
	Query(ctx context.Context, q Query) ([]domain.Item, error)

	// GetByID returns ErrNotFound when no item has that id.
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
}
