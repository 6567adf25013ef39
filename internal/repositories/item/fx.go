package item

import (
	"go.uber.org/fx"
)

var Module = fx.Module("item_repository",
	fx.Provide(
		fx.Annotate(
			NewPgx,
			fx.As(new(Repository)),
		),
	),
)
