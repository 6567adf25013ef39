package instagram

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
)

const defaultFetchTimeout = 60 * time.Second

// Batch is the outcome of collecting several hashtags: whatever was fetched,
// plus the hashtags that failed along the way.
type Batch struct {
	Posts    []domain.CandidatePost
	Failures []*FetchError
}

// Collector fans a request out over hashtags one at a time and merges the
// results into a single capped, deduplicated sequence.
type Collector struct {
	client       Client
	logger       logger.Logger
	fetchTimeout time.Duration
	perTagSlack  int
}

func NewCollector(client Client, log logger.Logger, cfg *config.Config) *Collector {
	timeout := cfg.Instagram.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	slack := cfg.Instagram.PerTagSlack
	if slack < 0 {
		slack = 0
	}
	return &Collector{
		client:       client,
		logger:       log.WithComponent("Collector"),
		fetchTimeout: timeout,
		perTagSlack:  slack,
	}
}

// Stream lazily yields up to count posts across tags, deduplicated by SourceID.
// A failing hashtag yields a *FetchError and the stream moves on to the next one.
// Hashtags after the cap is reached are never fetched.
func (c *Collector) Stream(ctx context.Context, tags []string, count int) iter.Seq2[domain.CandidatePost, error] {
	return c.stream(ctx, tags, count, nil)
}

func (c *Collector) stream(ctx context.Context, tags []string, count int, keep func(domain.CandidatePost) bool) iter.Seq2[domain.CandidatePost, error] {
	return func(yield func(domain.CandidatePost, error) bool) {
		tags = domain.NormalizeHashtags(tags)
		if count <= 0 || len(tags) == 0 {
			return
		}

		perTag := (count+len(tags)-1)/len(tags) + c.perTagSlack
		seen := make(map[string]struct{}, count)
		emitted := 0

		for _, tag := range tags {
			posts, err := c.fetch(ctx, tag, perTag)
			if err != nil {
				if !yield(domain.CandidatePost{}, &FetchError{Tag: tag, Err: err}) {
					return
				}
				continue
			}

			for _, post := range posts {
				if post.SourceID == "" {
					continue
				}
				if _, dup := seen[post.SourceID]; dup {
					continue
				}
				if keep != nil && !keep(post) {
					continue
				}
				seen[post.SourceID] = struct{}{}

				if !yield(post, nil) {
					return
				}
				emitted++
				if emitted >= count {
					return
				}
			}
		}
	}
}

func (c *Collector) fetch(ctx context.Context, tag string, count int) (posts []domain.CandidatePost, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s client: %v", c.client.Name(), r)
		}
	}()

	start := time.Now()
	posts, err = c.client.FetchHashtag(fetchCtx, tag, count)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched hashtag", "hashtag", tag, "source", c.client.Name(), "count", len(posts), "took", time.Since(start).Round(time.Millisecond).String())
	return posts, nil
}

// Collect folds Stream into a Batch. It fails only when every hashtag failed.
func (c *Collector) Collect(ctx context.Context, tags []string, count int) (Batch, error) {
	return c.collect(ctx, tags, count, nil)
}

func (c *Collector) collect(ctx context.Context, tags []string, count int, keep func(domain.CandidatePost) bool) (Batch, error) {
	tags = domain.NormalizeHashtags(tags)

	var batch Batch
	for post, err := range c.stream(ctx, tags, count, keep) {
		if err != nil {
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				fetchErr = &FetchError{Err: err}
			}
			c.logger.Warn("Hashtag fetch failed, skipping", "hashtag", fetchErr.Tag, "source", c.client.Name(), "error", fetchErr.Err)
			batch.Failures = append(batch.Failures, fetchErr)
			continue
		}
		batch.Posts = append(batch.Posts, post)
	}

	if len(tags) > 0 && len(batch.Failures) == len(tags) {
		errs := make([]error, 0, len(batch.Failures)+1)
		errs = append(errs, ErrAllSourcesFailed)
		for _, f := range batch.Failures {
			errs = append(errs, f)
		}
		return batch, errors.Join(errs...)
	}

	if len(batch.Failures) > 0 {
		c.logger.Info("Collected with partial failures", "posts", len(batch.Posts), "failed_hashtags", len(batch.Failures), "hashtags", len(tags))
	}
	return batch, nil
}

// Images lists image posts for tags without touching enrichment or storage.
// Posts without an image are skipped; repeated image URLs are dropped.
func (c *Collector) Images(ctx context.Context, tags []string, limit int) ([]domain.ImagePost, error) {
	seenURLs := make(map[string]struct{}, limit)
	keep := func(p domain.CandidatePost) bool {
		if p.ImageURL == "" {
			return false
		}
		if _, dup := seenURLs[p.ImageURL]; dup {
			return false
		}
		seenURLs[p.ImageURL] = struct{}{}
		return true
	}

	batch, err := c.collect(ctx, tags, limit, keep)
	if err != nil {
		return nil, err
	}

	images := make([]domain.ImagePost, 0, len(batch.Posts))
	for _, p := range batch.Posts {
		hashtags := p.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		images = append(images, domain.ImagePost{
			ID:       p.SourceID,
			ImageURL: p.ImageURL,
			Caption:  p.Caption,
			Hashtags: hashtags,
		})
	}
	return images, nil
}
