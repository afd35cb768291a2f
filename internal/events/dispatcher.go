package events

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/liveevents"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	AuditSvc auditdomain.Service
	Hub      *liveevents.Hub
}

// Dispatcher runs the side effects of a committed core decision: one audit
// row and one realtime broadcast. Neither is allowed to fail the caller;
// every error is logged and discarded here.
type Dispatcher struct {
	log      *zap.Logger
	auditSvc auditdomain.Service
	hub      *liveevents.Hub
}

func NewDispatcher(p Params) *Dispatcher {
	return &Dispatcher{
		log:      p.Log.Named("events.dispatcher"),
		auditSvc: p.AuditSvc,
		hub:      p.Hub,
	}
}

// Record writes an audit entry, swallowing any failure.
func (d *Dispatcher) Record(ctx context.Context, userID *snowflake.ID, action, resourceType string, resourceID *snowflake.ID, details map[string]any) {
	if d == nil || d.auditSvc == nil {
		return
	}
	defer d.recover("audit")

	if _, err := d.auditSvc.Record(ctx, userID, action, resourceType, resourceID, details); err != nil {
		d.log.Warn("audit record dropped",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Broadcast emits a realtime event to the artwork's room, swallowing any
// failure.
func (d *Dispatcher) Broadcast(artworkID snowflake.ID, name string, payload map[string]any) {
	if d == nil || d.hub == nil {
		return
	}
	defer d.recover("broadcast")

	d.hub.Publish(artworkID.String(), liveevents.Event{
		Name:    name,
		Payload: payload,
	})
}

func (d *Dispatcher) recover(stage string) {
	if r := recover(); r != nil {
		d.log.Error("side effect panicked", zap.String("stage", stage), zap.Any("panic", r))
	}
}
