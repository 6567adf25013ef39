package app

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/orgball2608/hashtag-discovery/internal/auth"
	"github.com/orgball2608/hashtag-discovery/internal/auth/authimpl"
	"github.com/orgball2608/hashtag-discovery/internal/enrichment"
	"github.com/orgball2608/hashtag-discovery/internal/enrichment/gemini"
	"github.com/orgball2608/hashtag-discovery/internal/httpapi"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	"github.com/orgball2608/hashtag-discovery/internal/ingest/ingestimpl"
	"github.com/orgball2608/hashtag-discovery/internal/instagram/source"
	"github.com/orgball2608/hashtag-discovery/internal/migrations"
	"github.com/orgball2608/hashtag-discovery/internal/ratelimit"
	repositories "github.com/orgball2608/hashtag-discovery/internal/repositories/fx"
	"github.com/orgball2608/hashtag-discovery/internal/telegram/telegramimpl"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/orgball2608/hashtag-discovery/pkg/pgx"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		ratelimit.New,
	),
	fx.Provide(
		telegramimpl.New,
		fx.Annotate(
			ingestimpl.New,
			fx.As(new(ingest.Service)),
			fx.As(new(ingest.Scheduler)),
		),
		fx.Annotate(
			authimpl.New,
			fx.As(new(auth.Service)),
		),
		httpapi.New,
	),
	source.Module,
	gemini.Module,
	enrichment.Module,
	repositories.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

func migrate(lc fx.Lifecycle, cfg *config.Config, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			db, err := sql.Open("postgres", cfg.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Up(ctx, db); err != nil {
				return err
			}
			log.Info("Migrations applied")
			return nil
		},
	})
}

func run(lc fx.Lifecycle, log logger.Logger, scheduler ingest.Scheduler, _ *httpapi.Server) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := scheduler.ScheduleIngest(ctx); err != nil {
				log.Error("Schedule ingest error", "error", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
