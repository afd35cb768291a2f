package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/events"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/internal/liveevents"
	obsmetrics "github.com/gavelhq/gavel/internal/observability/metrics"
	"github.com/gavelhq/gavel/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultFailureReason = "payment failed"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Provider   domain.ProviderClient
	Dispatcher *events.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	provider   domain.ProviderClient
	dispatcher *events.Dispatcher
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		provider:   p.Provider,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

func (s *Service) CreateIntent(ctx context.Context, identity identitydomain.Identity, artworkID snowflake.ID) (*domain.Intent, error) {
	var intent domain.Intent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		artwork, err := s.repo.FindArtwork(ctx, tx, artworkID)
		if err != nil {
			return err
		}
		if artwork.Status != artworkdomain.StatusPendingPayment {
			return fmt.Errorf("%w: artwork status is %s", artworkdomain.ErrNotActive, artwork.Status)
		}

		bid, err := s.repo.FindWinningBid(ctx, tx, artworkID)
		if err != nil {
			return err
		}
		if bid.BidderID != identity.UserID {
			return domain.ErrNotAwaitingPayer
		}

		// An open intent for the same artwork is returned as-is so retried
		// clients do not stack payments.
		if existing, err := s.repo.FindOpenByArtwork(ctx, tx, artworkID); err == nil {
			intent = domain.Intent{Payment: *existing}
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		payment := domain.Payment{
			ID:        s.genID.Generate(),
			ArtworkID: artwork.ID,
			BidID:     bid.ID,
			PayerID:   identity.UserID,
			Amount:    bid.Amount,
			Currency:  "USD",
			Status:    domain.StatusPending,
			Metadata: datatypes.JSONMap{
				"artwork_title": artwork.Title,
				"seller_id":     artwork.SellerID.String(),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}

		providerIntent, err := s.provider.CreateIntent(ctx, &payment)
		if err != nil {
			return err
		}
		payment.ProviderReference = providerIntent.Reference

		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}
		intent = domain.Intent{Payment: payment, ClientSecret: providerIntent.ClientSecret}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment intent ready",
		zap.String("payment_id", intent.Payment.ID.String()),
		zap.String("artwork_id", intent.Payment.ArtworkID.String()),
		zap.Float64("amount", intent.Payment.Amount),
	)
	return &intent, nil
}

func (s *Service) OnPaymentSucceeded(ctx context.Context, providerRef, chargeRef string) (*domain.Payment, error) {
	var settled domain.Payment
	var replay bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByProviderReference(ctx, tx, providerRef)
		if err != nil {
			return err
		}
		if payment.Status == domain.StatusSucceeded {
			settled, replay = *payment, true
			return nil
		}
		if payment.Status == domain.StatusFailed || payment.Status == domain.StatusCanceled {
			return fmt.Errorf("%w: payment status is %s", domain.ErrAlreadySettled, payment.Status)
		}

		payment.Status = domain.StatusSucceeded
		if ref := strings.TrimSpace(chargeRef); ref != "" {
			payment.ChargeReference = &ref
		}
		payment.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}

		if _, err := s.repo.SetArtworkStatus(ctx, tx, payment.ArtworkID,
			artworkdomain.StatusPendingPayment, artworkdomain.StatusSold); err != nil {
			return err
		}

		settled = *payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replay {
		return &settled, nil
	}

	s.metrics.RecordPaymentEvent("succeeded")
	s.log.Info("payment succeeded",
		zap.String("payment_id", settled.ID.String()),
		zap.String("artwork_id", settled.ArtworkID.String()),
	)

	payerID := settled.PayerID
	s.dispatcher.Record(ctx, &payerID, auditdomain.ActionPaymentSucceeded, "payment", &settled.ID, map[string]any{
		"artwork_id":         settled.ArtworkID.String(),
		"amount":             settled.Amount,
		"provider_reference": settled.ProviderReference,
	})
	s.dispatcher.Broadcast(settled.ArtworkID, liveevents.EventPaymentCompleted, map[string]any{
		"artwork_id": settled.ArtworkID.String(),
		"payment_id": settled.ID.String(),
		"amount":     settled.Amount,
		"status":     string(artworkdomain.StatusSold),
	})
	return &settled, nil
}

// OnPaymentFailed reverses a win. The artwork's recorded high bid is kept
// so the listing still shows the price level reached.
func (s *Service) OnPaymentFailed(ctx context.Context, providerRef, reason string) (*domain.Payment, error) {
	var failed domain.Payment
	var replay bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByProviderReference(ctx, tx, providerRef)
		if err != nil {
			return err
		}
		if payment.Status == domain.StatusFailed {
			failed, replay = *payment, true
			return nil
		}
		if payment.Status == domain.StatusSucceeded || payment.Status == domain.StatusCanceled {
			return fmt.Errorf("%w: payment status is %s", domain.ErrAlreadySettled, payment.Status)
		}

		failure := strings.TrimSpace(reason)
		if failure == "" {
			failure = defaultFailureReason
		}
		payment.Status = domain.StatusFailed
		payment.FailureReason = &failure
		payment.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}

		if _, err := s.repo.SetArtworkStatus(ctx, tx, payment.ArtworkID,
			artworkdomain.StatusPendingPayment, artworkdomain.StatusActive); err != nil {
			return err
		}
		if err := s.repo.ClearWinningFlag(ctx, tx, payment.BidID); err != nil {
			return err
		}

		failed = *payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replay {
		return &failed, nil
	}

	s.metrics.RecordPaymentEvent("failed")
	s.log.Warn("payment failed, auction reopened",
		zap.String("payment_id", failed.ID.String()),
		zap.String("artwork_id", failed.ArtworkID.String()),
		zap.Stringp("reason", failed.FailureReason),
	)

	payerID := failed.PayerID
	s.dispatcher.Record(ctx, &payerID, auditdomain.ActionPaymentFailed, "payment", &failed.ID, map[string]any{
		"artwork_id":         failed.ArtworkID.String(),
		"amount":             failed.Amount,
		"provider_reference": failed.ProviderReference,
		"reason":             *failed.FailureReason,
	})
	s.dispatcher.Broadcast(failed.ArtworkID, liveevents.EventPaymentFailed, map[string]any{
		"artwork_id": failed.ArtworkID.String(),
		"payment_id": failed.ID.String(),
		"status":     string(artworkdomain.StatusActive),
	})
	return &failed, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, s.db, id)
}
