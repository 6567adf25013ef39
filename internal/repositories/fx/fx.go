package fx

import (
	"github.com/orgball2608/hashtag-discovery/internal/repositories/item"
	"github.com/orgball2608/hashtag-discovery/internal/repositories/user"
	"go.uber.org/fx"
)

var Module = fx.Options(
	item.Module,
	user.Module,
)
