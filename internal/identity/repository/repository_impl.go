package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindBySubject(ctx context.Context, db *gorm.DB, subject string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

// DeleteCascade removes every row owned by the user, children first so
// foreign keys hold at each step. Audit rows keep their history with the
// user reference cleared.
func (r *repo) DeleteCascade(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	statements := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM payments WHERE bid_id IN (
			SELECT id FROM bids WHERE bidder_id = ?
			OR artwork_id IN (SELECT id FROM artworks WHERE seller_id = ?))`, []any{id, id}},
		{`DELETE FROM bids WHERE bidder_id = ?
			OR artwork_id IN (SELECT id FROM artworks WHERE seller_id = ?)`, []any{id, id}},
		{`DELETE FROM artworks WHERE seller_id = ?`, []any{id}},
		{`UPDATE audit_logs SET user_id = NULL WHERE user_id = ?`, []any{id}},
		{`DELETE FROM users WHERE id = ?`, []any{id}},
	}

	for _, stmt := range statements {
		if err := tx.WithContext(ctx).Exec(stmt.query, stmt.args...).Error; err != nil {
			return err
		}
	}
	return nil
}
