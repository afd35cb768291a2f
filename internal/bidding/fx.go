package bidding

import (
	"github.com/gavelhq/gavel/internal/bidding/repository"
	"github.com/gavelhq/gavel/internal/bidding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bidding.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
