package ingestimpl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	"github.com/panjf2000/ants/v2"
)

const runTimeout = 15 * time.Minute

// ScheduleIngest re-ingests every configured hashtag set on the configured
// interval until ctx is done. Nothing is scheduled when no sets are configured.
func (s *IngestImpl) ScheduleIngest(ctx context.Context) error {
	sets := s.Config.ScheduledHashtagSets()
	if len(sets) == 0 {
		s.Logger.Info("No scheduled hashtags configured, scheduler disabled")
		return nil
	}

	interval := s.Config.Scheduler.Interval
	if interval <= 0 {
		return fmt.Errorf("invalid schedule interval %s", interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create ingest scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, skipping scheduled ingest")
				return
			}

			s.Logger.Info("Running scheduled ingest", "sets", len(sets))

			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			s.runSetsWithAnts(runCtx, sets)

			s.Logger.Info("Scheduled ingest finished")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule ingest: %w", err)
	}

	scheduler.Start()
	s.Logger.Info("Ingest scheduler started", "interval", interval.String(), "sets", len(sets))

	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping ingest scheduler")
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down scheduler", "error", err)
		}
	}()

	return nil
}

func (s *IngestImpl) runSetsWithAnts(ctx context.Context, sets [][]string) {
	workers := s.Config.Scheduler.Workers
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		s.Logger.Error("Failed to create worker pool", "error", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, set := range sets {
		wg.Add(1)
		tags := set

		err := pool.Submit(func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				s.Logger.Info("Skipping hashtag set due to context cancellation", "hashtags", strings.Join(tags, ","))
				return
			default:
			}

			result, err := s.Ingest(ctx, ingest.Request{
				Hashtags: tags,
				MinViews: s.Config.Scheduler.MinViews,
				Limit:    s.Config.Scheduler.Limit,
				City:     s.Config.Scheduler.City,
			})
			if err != nil {
				s.Logger.Error("Scheduled ingest failed", "hashtags", strings.Join(tags, ","), "error", err)
				return
			}
			s.Logger.Info("Scheduled ingest stored items", "hashtags", strings.Join(tags, ","), "stored", len(result.Items), "created", result.Created)
		})
		if err != nil {
			wg.Done()
			s.Logger.Error("Failed to submit hashtag set to pool", "hashtags", strings.Join(tags, ","), "error", err)
		}
	}

	wg.Wait()
}
