package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/events"
	"github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/pkg/db"
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
		log:        p.Log.Named("identity.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
	}
}

func (s *Service) Resolve(ctx context.Context, subject string, role domain.Role) (*domain.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, domain.ErrInvalidSubject
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}

	user, err := s.repo.FindBySubject(ctx, s.db, subject)
	if err == nil {
		// The role claim is authoritative; pick up provider-side changes.
		if user.Role != role {
			if err := s.db.WithContext(ctx).Model(&domain.User{}).
				Where("id = ?", user.ID).
				Update("role", role).Error; err != nil {
				return nil, err
			}
			user.Role = role
		}
		return user, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}

	user = &domain.User{
		ID:        s.genID.Generate(),
		Subject:   subject,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		// Two first requests for the same subject can race; the loser
		// re-reads the winner's row.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindBySubject(ctx, s.db, subject)
		}
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteCascade(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id.String()))
	s.dispatcher.Record(ctx, nil, auditdomain.ActionUserDeleted, "user", &id, map[string]any{
		"subject": user.Subject,
	})
	return nil
}
