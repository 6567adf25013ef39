package source

import (
	"fmt"

	"github.com/orgball2608/hashtag-discovery/internal/instagram"
	"github.com/orgball2608/hashtag-discovery/internal/instagram/browser"
	"github.com/orgball2608/hashtag-discovery/internal/instagram/graphapi"
	"github.com/orgball2608/hashtag-discovery/internal/instagram/instagramimpl"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Module("instagram",
	fx.Provide(
		NewClient,
		instagram.NewCollector,
	),
)

type Opts struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Logger logger.Logger
}

// NewClient builds the adapter named by INSTAGRAM_SOURCE.
func NewClient(opts Opts) (instagram.Client, error) {
	switch opts.Config.Instagram.Source {
	case "", config.SourceGraph:
		return graphapi.New(opts.Config, opts.Logger), nil
	case config.SourceBrowser:
		manager, err := browser.NewManager(opts.LC, opts.Config, opts.Logger)
		if err != nil {
			return nil, err
		}
		return browser.New(manager, opts.Logger), nil
	case config.SourceGoinsta:
		return instagramimpl.New(instagramimpl.Opts{
			LC:     opts.LC,
			Config: opts.Config,
			Logger: opts.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown instagram source %q", opts.Config.Instagram.Source)
	}
}
