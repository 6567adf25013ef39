package enrichment

import (
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config   *config.Config
	Logger   logger.Logger
	Narrator Narrator `optional:"true"`
}

var Module = fx.Module("enrichment",
	fx.Provide(
		func(cfg *config.Config) (*Taxonomy, error) {
			return LoadTaxonomy(cfg.Enrichment.TaxonomyPath)
		},
		func(taxonomy *Taxonomy, opts Opts) *Enricher {
			if opts.Narrator == nil {
				opts.Logger.Info("No narrator configured, enrichment uses static defaults")
			}
			return NewEnricher(taxonomy, opts.Narrator, opts.Config.Enrichment.Timeout, opts.Logger)
		},
	),
)
