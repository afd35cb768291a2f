package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/authorization"
	"github.com/gavelhq/gavel/internal/events"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
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
	Dispatcher *events.Dispatcher `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	dispatcher *events.Dispatcher
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("artwork.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
	}
}

func (s *Service) Create(ctx context.Context, identity identitydomain.Identity, req domain.CreateArtworkRequest) (*domain.Artwork, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.SecretThreshold <= 0 {
		return nil, domain.ErrInvalidThreshold
	}
	if req.EndDate != nil && !req.EndDate.After(time.Now().UTC()) {
		return nil, domain.ErrInvalidEndDate
	}
	if !authorization.CanCreateListing(identity) {
		return nil, domain.ErrNotOwner
	}

	artwork := &domain.Artwork{
		ID:                s.genID.Generate(),
		SellerID:          identity.UserID,
		Title:             strings.TrimSpace(req.Title),
		Artist:            strings.TrimSpace(req.Artist),
		Category:          strings.TrimSpace(req.Category),
		Description:       strings.TrimSpace(req.Description),
		ImageURL:          strings.TrimSpace(req.ImageURL),
		SecretThreshold:   req.SecretThreshold,
		CurrentHighestBid: 0,
		Status:            domain.StatusActive,
		EndDate:           req.EndDate,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, artwork); err != nil {
		return nil, err
	}

	s.log.Info("artwork listed",
		zap.String("artwork_id", artwork.ID.String()),
		zap.String("seller_id", identity.UserID.String()),
	)
	sellerID := identity.UserID
	s.dispatcher.Record(ctx, &sellerID, auditdomain.ActionArtworkCreated, "artwork", &artwork.ID, map[string]any{
		"title": artwork.Title,
	})
	return artwork, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Artwork, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, req domain.ListArtworkRequest) ([]domain.Artwork, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) Delete(ctx context.Context, identity identitydomain.Identity, id snowflake.ID) error {
	artwork, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if artwork.SellerID != identity.UserID && !authorization.CanAdminister(identity) {
		return domain.ErrNotOwner
	}

	hasWinner, err := s.repo.HasWinningBid(ctx, s.db, id)
	if err != nil {
		return err
	}
	if hasWinner {
		return domain.ErrHasWinningBid
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteWithBids(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("artwork deleted", zap.String("artwork_id", id.String()))
	actorID := identity.UserID
	s.dispatcher.Record(ctx, &actorID, auditdomain.ActionArtworkDeleted, "artwork", &id, map[string]any{
		"seller_id": artwork.SellerID.String(),
	})
	return nil
}
