package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive         Status = "ACTIVE"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusSold           Status = "SOLD"
	StatusArchived       Status = "ARCHIVED"
)

// Artwork is the auctionable item and the auction itself. SecretThreshold
// is the seller's hidden reserve and is never serialized; CurrentHighestBid
// never decreases while the auction is ACTIVE.
type Artwork struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	SellerID          snowflake.ID `gorm:"not null;index" json:"seller_id"`
	Title             string       `gorm:"not null" json:"title"`
	Artist            string       `json:"artist,omitempty"`
	Category          string       `json:"category,omitempty"`
	Description       string       `json:"description,omitempty"`
	ImageURL          string       `json:"image_url,omitempty"`
	SecretThreshold   float64      `gorm:"not null" json:"-"`
	CurrentHighestBid float64      `gorm:"not null;default:0" json:"current_highest_bid"`
	Status            Status       `gorm:"not null;default:'ACTIVE';index" json:"status"`
	EndDate           *time.Time   `json:"end_date,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Artwork) TableName() string { return "artworks" }

var (
	ErrNotFound         = errors.New("artwork_not_found")
	ErrNotActive        = errors.New("artwork_not_active")
	ErrHasWinningBid    = errors.New("artwork_has_winning_bid")
	ErrNotOwner         = errors.New("artwork_not_owner")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrInvalidEndDate   = errors.New("invalid_end_date")
)

type CreateArtworkRequest struct {
	Title           string
	Artist          string
	Category        string
	Description     string
	ImageURL        string
	SecretThreshold float64
	EndDate         *time.Time
}

type ListArtworkRequest struct {
	Status   string
	Category string
	SellerID snowflake.ID
	Limit    int
	Offset   int
}

type Service interface {
	Create(ctx context.Context, identity identitydomain.Identity, req CreateArtworkRequest) (*Artwork, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Artwork, error)
	List(ctx context.Context, req ListArtworkRequest) ([]Artwork, error)
	// Delete removes a listing and its non-winning bids. Owner or admin
	// only; refused once any winning bid exists.
	Delete(ctx context.Context, identity identitydomain.Identity, id snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, artwork *Artwork) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Artwork, error)
	List(ctx context.Context, db *gorm.DB, req ListArtworkRequest) ([]Artwork, error)
	HasWinningBid(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	DeleteWithBids(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}
