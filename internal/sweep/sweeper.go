package sweep

import (
	"context"
	"time"

	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/events"
	obsmetrics "github.com/gavelhq/gavel/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Dispatcher *events.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

// Sweeper closes auctions whose end date has passed. An expired auction
// with a winning bid becomes SOLD, one without becomes ARCHIVED. Auctions
// in PENDING_PAYMENT are left alone until the payment resolves.
type Sweeper struct {
	db         *gorm.DB
	log        *zap.Logger
	dispatcher *events.Dispatcher
	metrics    *obsmetrics.Metrics
}

func NewSweeper(p Params) *Sweeper {
	return &Sweeper{
		db:         p.DB,
		log:        p.Log.Named("sweep.sweeper"),
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

// SweepExpired transitions every ACTIVE auction with end_date < now in a
// single transaction and returns how many were closed. Running it twice
// over the same instant is a no-op the second time.
func (s *Sweeper) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	type closedAuction struct {
		id     string
		status artworkdomain.Status
	}
	var closed []closedAuction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		closed = closed[:0]

		var expired []artworkdomain.Artwork
		err := tx.
			Where("status = ? AND end_date IS NOT NULL AND end_date < ?", artworkdomain.StatusActive, now).
			Order("id asc").
			Find(&expired).Error
		if err != nil {
			return err
		}

		for _, artwork := range expired {
			var winners int64
			err := tx.Table("bids").
				Where("artwork_id = ? AND is_winning = ?", artwork.ID, true).
				Count(&winners).Error
			if err != nil {
				return err
			}

			next := artworkdomain.StatusArchived
			if winners > 0 {
				next = artworkdomain.StatusSold
			}

			result := tx.Exec(
				`UPDATE artworks SET status = ? WHERE id = ? AND status = ?`,
				next, artwork.ID, artworkdomain.StatusActive,
			)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			closed = append(closed, closedAuction{id: artwork.ID.String(), status: next})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(closed) == 0 {
		return 0, nil
	}

	s.metrics.RecordAuctionsSwept(len(closed))
	s.log.Info("expired auctions swept",
		zap.Int("closed", len(closed)),
		zap.Time("cutoff", now),
	)

	details := map[string]any{"closed": len(closed), "cutoff": now.Format(time.RFC3339)}
	sold := 0
	for _, auction := range closed {
		if auction.status == artworkdomain.StatusSold {
			sold++
		}
	}
	details["sold"] = sold
	details["archived"] = len(closed) - sold
	s.dispatcher.Record(ctx, nil, auditdomain.ActionAuctionsSwept, "artwork", nil, details)

	return len(closed), nil
}
