package scheduler

import (
	"context"
	"time"

	"github.com/gavelhq/gavel/internal/clock"
	"github.com/gavelhq/gavel/internal/config"
	"github.com/gavelhq/gavel/internal/sweep"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Sweeper *sweep.Sweeper
}

// Scheduler drives the expiry sweeper on a fixed interval for the life of
// the process.
type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	sweeper  *sweep.Sweeper
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(p Params) *Scheduler {
	interval := p.Config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		sweeper:  p.Sweeper,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
	s.log.Info("expiry sweeper scheduled", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep at the clock's current instant.
func (s *Scheduler) RunOnce(ctx context.Context) {
	closed, err := s.sweeper.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		s.log.Info("sweep completed", zap.Int("closed", closed))
	}
}
