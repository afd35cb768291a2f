package events

import (
	"github.com/gavelhq/gavel/internal/liveevents"
	"go.uber.org/fx"
)

var Module = fx.Module("events",
	fx.Provide(liveevents.NewHub),
	fx.Provide(NewDispatcher),
)
