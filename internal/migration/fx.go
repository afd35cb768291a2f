package migration

import (
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	paymentdomain "github.com/gavelhq/gavel/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(Run),
)

// Run applies the schema on startup. Ordering follows foreign key
// dependencies, parents first.
func Run(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&identitydomain.User{},
		&artworkdomain.Artwork{},
		&biddingdomain.Bid{},
		&paymentdomain.Payment{},
		&auditdomain.AuditLog{},
	)
	if err != nil {
		log.Error("schema migration failed", zap.Error(err))
		return err
	}
	log.Info("schema migration applied")
	return nil
}
