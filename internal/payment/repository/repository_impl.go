package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	"github.com/gavelhq/gavel/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindByProviderReference(ctx context.Context, db *gorm.DB, ref string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Where("provider_reference = ?", ref).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindOpenByArtwork(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("artwork_id = ? AND status IN ?", artworkID,
			[]domain.Status{domain.StatusPending, domain.StatusProcessing}).
		Order("created_at desc").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Save(payment).Error
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

func (r *repo) FindWinningBid(ctx context.Context, db *gorm.DB, artworkID snowflake.ID) (*biddingdomain.Bid, error) {
	var bid biddingdomain.Bid
	err := db.WithContext(ctx).
		Where("artwork_id = ? AND is_winning = ?", artworkID, true).
		Order("created_at desc").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoWinningBid
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repo) SetArtworkStatus(ctx context.Context, db *gorm.DB, artworkID snowflake.ID, from, to artworkdomain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE artworks SET status = ? WHERE id = ? AND status = ?`,
		to, artworkID, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ClearWinningFlag(ctx context.Context, db *gorm.DB, bidID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bids SET is_winning = ? WHERE id = ?`, false, bidID,
	).Error
}
