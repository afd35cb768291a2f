package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

// Payment tracks one attempt to settle a winning bid. ProviderReference is
// the provider-side intent id and the idempotency key for callbacks.
type Payment struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	ArtworkID         snowflake.ID      `gorm:"not null;index" json:"artwork_id"`
	BidID             snowflake.ID      `gorm:"not null;index" json:"bid_id"`
	PayerID           snowflake.ID      `gorm:"not null;index" json:"payer_id"`
	Amount            float64           `gorm:"not null" json:"amount"`
	Currency          string            `gorm:"not null;default:'USD'" json:"currency"`
	Status            Status            `gorm:"not null;default:'PENDING';index" json:"status"`
	ProviderReference string            `gorm:"not null;uniqueIndex" json:"provider_reference"`
	ChargeReference   *string           `json:"charge_reference,omitempty"`
	FailureReason     *string           `json:"failure_reason,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

var (
	ErrNotFound         = errors.New("payment_not_found")
	ErrNotAwaitingPayer = errors.New("payment_not_awaiting_payer")
	ErrNoWinningBid     = errors.New("payment_no_winning_bid")
	ErrAlreadySettled   = errors.New("payment_already_settled")
)

// ProviderIntent is what the upstream payment provider returns when an
// intent is opened.
type ProviderIntent struct {
	Reference    string
	ClientSecret string
}

// ProviderClient talks to the upstream payment provider.
type ProviderClient interface {
	CreateIntent(ctx context.Context, payment *Payment) (*ProviderIntent, error)
}

// Intent is the client-facing view of a created payment intent.
type Intent struct {
	Payment      Payment `json:"payment"`
	ClientSecret string  `json:"client_secret,omitempty"`
}

type Service interface {
	// CreateIntent opens (or returns the still-open) payment intent for the
	// identity's winning bid on the artwork.
	CreateIntent(ctx context.Context, identity identitydomain.Identity, artworkID snowflake.ID) (*Intent, error)
	// OnPaymentSucceeded settles the payment and marks the artwork SOLD.
	// Replaying a settled reference is a no-op.
	OnPaymentSucceeded(ctx context.Context, providerRef, chargeRef string) (*Payment, error)
	// OnPaymentFailed reverses the win: the payment is marked FAILED, the
	// artwork returns to ACTIVE and the bid loses its winning flag. The
	// recorded high bid is left untouched.
	OnPaymentFailed(ctx context.Context, providerRef, reason string) (*Payment, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Payment, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByProviderReference(ctx context.Context, db *gorm.DB, ref string) (*Payment, error)
	FindOpenByArtwork(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (*Payment, error)
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindArtwork(ctx context.Context, db *gorm.DB, id snowflake.ID) (*artworkdomain.Artwork, error)
	FindWinningBid(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (*biddingdomain.Bid, error)
	// SetArtworkStatus transitions the artwork only when it still holds the
	// expected status.
	SetArtworkStatus(ctx context.Context, db *gorm.DB, artworkID snowflake.ID, from, to artworkdomain.Status) (bool, error)
	ClearWinningFlag(ctx context.Context, db *gorm.DB, bidID snowflake.ID) error
}
