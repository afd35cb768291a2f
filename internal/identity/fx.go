package identity

import (
	"github.com/gavelhq/gavel/internal/identity/repository"
	"github.com/gavelhq/gavel/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
