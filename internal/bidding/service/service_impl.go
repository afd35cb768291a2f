package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/bidding/domain"
	"github.com/gavelhq/gavel/internal/events"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/internal/liveevents"
	obsmetrics "github.com/gavelhq/gavel/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Dispatcher *events.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	dispatcher *events.Dispatcher
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("bidding.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

// Place runs the full bid evaluation: validation, the threshold decision
// and the atomic state transition. Audit and broadcast side effects fire
// only after the transaction commits and can never fail the bid.
func (s *Service) Place(ctx context.Context, identity identitydomain.Identity, req domain.PlaceBidRequest) (*domain.BidOutcome, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.Amount > domain.MaxBidAmount {
		return nil, fmt.Errorf("%w: bid amount cannot exceed %d", domain.ErrAmountTooLarge, domain.MaxBidAmount)
	}

	var outcome domain.BidOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		artwork, err := s.repo.FindArtwork(ctx, tx, req.ArtworkID)
		if err != nil {
			return err
		}
		if artwork.Status != artworkdomain.StatusActive {
			return fmt.Errorf("%w: artwork status is %s", artworkdomain.ErrNotActive, artwork.Status)
		}
		if artwork.SellerID == identity.UserID {
			return domain.ErrSelfBidding
		}
		if artwork.CurrentHighestBid > 0 && req.Amount <= artwork.CurrentHighestBid {
			return fmt.Errorf("%w: bid must be higher than current highest bid (%.2f)",
				domain.ErrBidTooLow, artwork.CurrentHighestBid)
		}

		// The single decision at the heart of the marketplace: meeting
		// the hidden reserve wins instantly, ties included.
		isWinning := req.Amount >= artwork.SecretThreshold

		bid := domain.Bid{
			ID:        s.genID.Generate(),
			ArtworkID: artwork.ID,
			BidderID:  identity.UserID,
			Amount:    req.Amount,
			IsWinning: isWinning,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.InsertBid(ctx, tx, &bid); err != nil {
			return err
		}

		if req.Amount > artwork.CurrentHighestBid {
			if _, err := s.repo.RaiseHighestBid(ctx, tx, artwork.ID, req.Amount); err != nil {
				return err
			}
		}
		if isWinning {
			ok, err := s.repo.MarkPendingPayment(ctx, tx, artwork.ID)
			if err != nil {
				return err
			}
			if !ok {
				// A concurrent bid already won; reject as no longer
				// active rather than record a second winner.
				return fmt.Errorf("%w: artwork status is %s",
					artworkdomain.ErrNotActive, artworkdomain.StatusPendingPayment)
			}
		}

		snapshot, err := s.repo.FindArtwork(ctx, tx, artwork.ID)
		if err != nil {
			return err
		}

		outcome = domain.BidOutcome{Bid: bid, Artwork: *snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBidPlaced(outcome.Bid.IsWinning)
	s.log.Info("bid placed",
		zap.String("bid_id", outcome.Bid.ID.String()),
		zap.String("artwork_id", outcome.Artwork.ID.String()),
		zap.Float64("amount", outcome.Bid.Amount),
		zap.Bool("is_winning", outcome.Bid.IsWinning),
	)

	s.dispatchSideEffects(ctx, identity, outcome)
	return &outcome, nil
}

func (s *Service) dispatchSideEffects(ctx context.Context, identity identitydomain.Identity, outcome domain.BidOutcome) {
	bid := outcome.Bid
	artwork := outcome.Artwork
	bidderID := identity.UserID

	s.dispatcher.Record(ctx, &bidderID, auditdomain.ActionBidPlaced, "bid", &bid.ID, map[string]any{
		"amount":     bid.Amount,
		"artwork_id": artwork.ID.String(),
		"is_winning": bid.IsWinning,
	})

	s.dispatcher.Broadcast(artwork.ID, liveevents.EventNewBid, map[string]any{
		"bid": map[string]any{
			"id":         bid.ID.String(),
			"artwork_id": bid.ArtworkID.String(),
			"bidder_id":  bid.BidderID.String(),
			"amount":     bid.Amount,
			"is_winning": bid.IsWinning,
			"created_at": bid.CreatedAt.Format(time.RFC3339),
		},
		"artwork": map[string]any{
			"id":                  artwork.ID.String(),
			"current_highest_bid": artwork.CurrentHighestBid,
			"status":              string(artwork.Status),
		},
	})

	if !bid.IsWinning {
		return
	}

	s.dispatcher.Record(ctx, &bidderID, auditdomain.ActionWinningBidPlaced, "artwork", &artwork.ID, map[string]any{
		"bid_amount": bid.Amount,
		"seller_id":  artwork.SellerID.String(),
		"buyer_id":   bidderID.String(),
		"status":     string(artwork.Status),
	})
	s.dispatcher.Broadcast(artwork.ID, liveevents.EventPaymentRequired, map[string]any{
		"artwork_id":       artwork.ID.String(),
		"winning_bid":      bid.Amount,
		"bid_id":           bid.ID.String(),
		"winner_id":        bidderID.String(),
		"requires_payment": true,
	})
}

func (s *Service) ListByArtwork(ctx context.Context, artworkID snowflake.ID) ([]domain.Bid, error) {
	return s.repo.ListByArtwork(ctx, s.db, artworkID)
}

func (s *Service) ListByBidder(ctx context.Context, bidderID snowflake.ID) ([]domain.Bid, error) {
	return s.repo.ListByBidder(ctx, s.db, bidderID)
}
