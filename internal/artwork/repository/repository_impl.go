package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/artwork/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, artwork *domain.Artwork) error {
	return db.WithContext(ctx).Create(artwork).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Artwork, error) {
	var artwork domain.Artwork
	err := db.WithContext(ctx).Where("id = ?", id).First(&artwork).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListArtworkRequest) ([]domain.Artwork, error) {
	stmt := db.WithContext(ctx).Model(&domain.Artwork{})

	if status := strings.TrimSpace(req.Status); status != "" {
		stmt = stmt.Where("status = ?", strings.ToUpper(status))
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if req.SellerID != 0 {
		stmt = stmt.Where("seller_id = ?", req.SellerID)
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	stmt = stmt.Order("created_at desc, id desc").Limit(limit)
	if req.Offset > 0 {
		stmt = stmt.Offset(req.Offset)
	}

	var artworks []domain.Artwork
	if err := stmt.Find(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

func (r *repo) HasWinningBid(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Table("bids").
		Where("artwork_id = ? AND is_winning = ?", id, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) DeleteWithBids(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	if err := tx.WithContext(ctx).Exec(`DELETE FROM bids WHERE artwork_id = ?`, id).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Exec(`DELETE FROM artworks WHERE id = ?`, id).Error
}
