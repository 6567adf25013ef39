package ingestimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/enrichment"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	"github.com/orgball2608/hashtag-discovery/internal/instagram"
	"github.com/orgball2608/hashtag-discovery/internal/repositories/item"
	"github.com/orgball2608/hashtag-discovery/internal/telegram"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	LC        fx.Lifecycle
	Collector *instagram.Collector
	Enricher  *enrichment.Enricher
	ItemRepo  item.Repository
	Telegram  telegram.Client
	Config    *config.Config
	Logger    logger.Logger
}

type IngestImpl struct {
	Collector *instagram.Collector
	Enricher  *enrichment.Enricher
	ItemRepo  item.Repository
	Telegram  telegram.Client
	Config    *config.Config
	Logger    logger.Logger

	announcements *ants.Pool
	pending       sync.WaitGroup
}

func New(opts Opts) (*IngestImpl, error) {
	workers := opts.Config.Telegram.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create announcement pool: %w", err)
	}

	s := &IngestImpl{
		Collector:     opts.Collector,
		Enricher:      opts.Enricher,
		ItemRepo:      opts.ItemRepo,
		Telegram:      opts.Telegram,
		Config:        opts.Config,
		Logger:        opts.Logger.WithComponent("Ingest"),
		announcements: pool,
	}
	opts.LC.Append(fx.Hook{OnStop: s.Stop})
	return s, nil
}

var (
	_ ingest.Service   = (*IngestImpl)(nil)
	_ ingest.Scheduler = (*IngestImpl)(nil)
)

func (s *IngestImpl) Ingest(ctx context.Context, req ingest.Request) (ingest.Result, error) {
	tags := domain.NormalizeHashtags(req.Hashtags)
	if len(tags) == 0 {
		return ingest.Result{}, apperrors.Validation("hashtags must contain at least one non-empty tag")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = ingest.DefaultLimit
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		city = enrichment.DefaultCity
	}

	batch, err := s.Collector.Collect(ctx, tags, limit*2)
	if err != nil {
		if errors.Is(err, instagram.ErrAllSourcesFailed) {
			return ingest.Result{Failures: batch.Failures}, apperrors.Upstream(err)
		}
		return ingest.Result{Failures: batch.Failures}, apperrors.Wrap(err, "collect candidates")
	}

	candidates := ingest.Filter(batch.Posts, req.MinViews, limit)
	s.Logger.Info("Ingesting candidates",
		"hashtags", strings.Join(tags, ","),
		"collected", len(batch.Posts),
		"relevant", len(candidates),
		"failed_hashtags", len(batch.Failures),
	)

	result := ingest.Result{
		Items:    make([]domain.Item, 0, len(candidates)),
		Failures: batch.Failures,
	}
	created := make([]domain.Item, 0, len(candidates))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, apperrors.Wrap(err, "ingest interrupted")
		}

		enriched := s.Enricher.Enrich(ctx, candidate, city)

		upserted, err := s.ItemRepo.Upsert(ctx, item.UpsertInput{Candidate: candidate, Enrichment: enriched})
		if err != nil {
			if errors.Is(err, item.ErrRejected) {
				s.Logger.Warn("Store rejected candidate, skipping", "source_id", candidate.SourceID, "error", err)
				result.Rejected++
				continue
			}
			return result, apperrors.Storage(err)
		}

		result.Items = append(result.Items, *upserted.Item)
		if upserted.Created {
			result.Created++
			created = append(created, *upserted.Item)
		}
	}

	s.announce(created)

	s.Logger.Info("Ingest finished", "stored", len(result.Items), "created", result.Created, "rejected", result.Rejected)
	return result, nil
}

func (s *IngestImpl) Search(ctx context.Context, req ingest.SearchRequest) ([]domain.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = ingest.DefaultLimit
	}

	if len(domain.NormalizeHashtags(req.Hashtags)) > 0 {
		if _, err := s.Ingest(ctx, ingest.Request{
			Hashtags: req.Hashtags,
			MinViews: req.MinViews,
			Limit:    limit,
			City:     enrichment.DefaultCity,
		}); err != nil {
			return nil, err
		}
	}

	items, err := s.ItemRepo.Query(ctx, item.Query{
		Limit:       limit,
		Groups:      req.Groups,
		Experiences: req.Experiences,
	})
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return items, nil
}

func (s *IngestImpl) Images(ctx context.Context, hashtags []string, limit int) ([]domain.ImagePost, error) {
	if len(domain.NormalizeHashtags(hashtags)) == 0 {
		return nil, apperrors.Validation("hashtags is required")
	}
	if limit <= 0 {
		limit = ingest.DefaultImagesLimit
	}

	images, err := s.Collector.Images(ctx, hashtags, limit)
	if err != nil {
		if errors.Is(err, instagram.ErrAllSourcesFailed) {
			return nil, apperrors.Upstream(err)
		}
		return nil, apperrors.Wrap(err, "list images")
	}
	return images, nil
}

func (s *IngestImpl) Get(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := s.ItemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return it, nil
}
