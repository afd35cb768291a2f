package payment

import (
	"github.com/gavelhq/gavel/internal/payment/domain"
	"github.com/gavelhq/gavel/internal/payment/provider"
	"github.com/gavelhq/gavel/internal/payment/repository"
	"github.com/gavelhq/gavel/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() domain.ProviderClient { return provider.NewLocal() }),
	fx.Provide(service.NewService),
)
