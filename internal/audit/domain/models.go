package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a security or business relevant
// action. Rows are never updated or deleted.
type AuditLog struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID       *snowflake.ID     `gorm:"index" json:"user_id,omitempty"`
	Action       string            `gorm:"not null;index" json:"action"`
	ResourceType string            `gorm:"not null" json:"resource_type"`
	ResourceID   *snowflake.ID     `json:"resource_id,omitempty"`
	Details      datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress    *string           `json:"ip_address,omitempty"`
	UserAgent    *string           `json:"user_agent,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActionBidPlaced        = "bid_placed"
	ActionWinningBidPlaced = "winning_bid_placed"
	ActionAuctionsSwept    = "auctions_swept"
	ActionPaymentSucceeded = "payment_succeeded"
	ActionPaymentFailed    = "payment_failed"
	ActionArtworkCreated   = "artwork_created"
	ActionArtworkDeleted   = "artwork_deleted"
	ActionUserDeleted      = "user_deleted"
)

var (
	ErrInvalidAction = errors.New("invalid_action")
)

type ListAuditLogRequest struct {
	Action       string
	ResourceType string
	Limit        int
	Offset       int
}

type Service interface {
	// Record writes one audit row. Callers that must never fail on audit
	// problems go through the events dispatcher instead of calling this
	// directly.
	Record(ctx context.Context, userID *snowflake.ID, action, resourceType string, resourceID *snowflake.ID, details map[string]any) (*AuditLog, error)
	List(ctx context.Context, req ListAuditLogRequest) ([]AuditLog, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListAuditLogRequest) ([]AuditLog, error)
}
