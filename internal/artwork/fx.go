package artwork

import (
	"github.com/gavelhq/gavel/internal/artwork/repository"
	"github.com/gavelhq/gavel/internal/artwork/service"
	"go.uber.org/fx"
)

var Module = fx.Module("artwork.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
