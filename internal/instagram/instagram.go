package instagram

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

var (
	ErrHashtagNotFound  = errors.New("hashtag not found")
	ErrAllSourcesFailed = errors.New("all hashtag fetches failed")
)

//go:generate go run go.uber.org/mock/mockgen -source=instagram.go -destination=mocks/mock.go

// Client fetches recent posts for a single hashtag and normalizes them.
type Client interface {
	// Name identifies the upstream in logs.
	Name() string

	// FetchHashtag returns up to count posts for tag, most recent first.
	FetchHashtag(ctx context.Context, tag string, count int) ([]domain.CandidatePost, error)
}

// FetchError is a single hashtag's failure inside a batch.
type FetchError struct {
	Tag string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch #%s: %v", e.Tag, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
