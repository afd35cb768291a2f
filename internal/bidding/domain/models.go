package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"gorm.io/gorm"
)

// MaxBidAmount is a defensive bound against overflow and abuse, not a
// business rule.
const MaxBidAmount = 1_000_000_000

// Bid is an immutable record of one bid attempt. IsWinning is set once at
// evaluation time; the only later mutation is the payment-failure reversal.
type Bid struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ArtworkID snowflake.ID `gorm:"not null;index" json:"artwork_id"`
	BidderID  snowflake.ID `gorm:"not null;index" json:"bidder_id"`
	Amount    float64      `gorm:"not null" json:"amount"`
	IsWinning bool         `gorm:"not null;default:false" json:"is_winning"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Bid) TableName() string { return "bids" }

var (
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrAmountTooLarge = errors.New("amount_too_large")
	ErrBidTooLow      = errors.New("bid_too_low")
	ErrSelfBidding    = errors.New("self_bidding_forbidden")
	ErrNotFound       = errors.New("bid_not_found")
)

type PlaceBidRequest struct {
	ArtworkID snowflake.ID
	Amount    float64
}

// BidOutcome is the persisted bid plus the artwork snapshot after the
// evaluation's writes.
type BidOutcome struct {
	Bid     Bid                   `json:"bid"`
	Artwork artworkdomain.Artwork `json:"artwork"`
}

type Service interface {
	// Place validates a bid, decides whether it wins against the hidden
	// reserve and applies all state changes in one transaction.
	Place(ctx context.Context, identity identitydomain.Identity, req PlaceBidRequest) (*BidOutcome, error)
	ListByArtwork(ctx context.Context, artworkID snowflake.ID) ([]Bid, error)
	ListByBidder(ctx context.Context, bidderID snowflake.ID) ([]Bid, error)
}

type Repository interface {
	FindArtwork(ctx context.Context, db *gorm.DB, id snowflake.ID) (*artworkdomain.Artwork, error)
	InsertBid(ctx context.Context, db *gorm.DB, bid *Bid) error
	// RaiseHighestBid is a conditional update: it only writes when the
	// stored value is still lower, so concurrent bidders cannot lower
	// the displayed high bid.
	RaiseHighestBid(ctx context.Context, db *gorm.DB, artworkID snowflake.ID, amount float64) (bool, error)
	// MarkPendingPayment transitions ACTIVE to PENDING_PAYMENT and
	// reports whether the row was still ACTIVE, closing the race between
	// two concurrent threshold-meeting bids.
	MarkPendingPayment(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (bool, error)
	ListByArtwork(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) ([]Bid, error)
	ListByBidder(ctx context.Context, db *gorm.DB, bidderID snowflake.ID) ([]Bid, error)
}
