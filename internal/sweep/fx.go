package sweep

import "go.uber.org/fx"

var Module = fx.Module("sweep.sweeper",
	fx.Provide(NewSweeper),
)
