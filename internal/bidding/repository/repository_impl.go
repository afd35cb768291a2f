package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	"github.com/gavelhq/gavel/internal/bidding/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindArtwork(ctx context.Context, db *gorm.DB, id snowflake.ID) (*artworkdomain.Artwork, error) {
	var artwork artworkdomain.Artwork
	err := db.WithContext(ctx).Where("id = ?", id).First(&artwork).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, artworkdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repo) InsertBid(ctx context.Context, db *gorm.DB, bid *domain.Bid) error {
	return db.WithContext(ctx).Create(bid).Error
}

func (r *repo) RaiseHighestBid(ctx context.Context, db *gorm.DB, artworkID snowflake.ID, amount float64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE artworks SET current_highest_bid = ?
		 WHERE id = ? AND current_highest_bid < ?`,
		amount, artworkID, amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkPendingPayment(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE artworks SET status = ? WHERE id = ? AND status = ?`,
		artworkdomain.StatusPendingPayment, artworkID, artworkdomain.StatusActive,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByArtwork(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := db.WithContext(ctx).
		Where("artwork_id = ?", artworkID).
		Order("created_at asc, id asc").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *repo) ListByBidder(ctx context.Context, db *gorm.DB, bidderID snowflake.ID) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := db.WithContext(ctx).
		Where("bidder_id = ?", bidderID).
		Order("created_at desc, id desc").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}
