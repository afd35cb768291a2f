package audit

import (
	"github.com/gavelhq/gavel/internal/audit/repository"
	"github.com/gavelhq/gavel/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
