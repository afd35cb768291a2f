package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/artwork"
	"github.com/gavelhq/gavel/internal/audit"
	"github.com/gavelhq/gavel/internal/bidding"
	"github.com/gavelhq/gavel/internal/clock"
	"github.com/gavelhq/gavel/internal/config"
	"github.com/gavelhq/gavel/internal/events"
	"github.com/gavelhq/gavel/internal/identity"
	"github.com/gavelhq/gavel/internal/migration"
	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/internal/payment"
	"github.com/gavelhq/gavel/internal/scheduler"
	"github.com/gavelhq/gavel/internal/server"
	"github.com/gavelhq/gavel/internal/sweep"
	"github.com/gavelhq/gavel/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		events.Module,
		identity.Module,
		artwork.Module,
		audit.Module,
		bidding.Module,
		payment.Module,
		sweep.Module,
		scheduler.Module,
		server.Module,
	).Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
