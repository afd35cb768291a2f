package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Role is the closed set of marketplace roles. It is resolved from the
// identity provider's token, never from client input.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleSeller:
		return RoleSeller, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User is a local reference to an identity-provider subject.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Subject   string       `gorm:"uniqueIndex;not null" json:"subject"`
	Role      Role         `gorm:"not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

// Identity is the authenticated caller passed explicitly into every core
// operation.
type Identity struct {
	UserID  snowflake.ID
	Subject string
	Role    Role
}

var (
	ErrNotFound       = errors.New("user_not_found")
	ErrInvalidRole    = errors.New("invalid_role")
	ErrInvalidSubject = errors.New("invalid_subject")
)

type Service interface {
	// Resolve returns the local user row for a verified token subject,
	// creating it on first sight.
	Resolve(ctx context.Context, subject string, role Role) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	// Delete removes the user and, by explicit cascade, their artworks,
	// all bids referencing those artworks, their own bids, and payments
	// tied to the removed bids. Audit rows are kept with the user
	// reference cleared.
	Delete(ctx context.Context, id snowflake.ID) error
}

type Repository interface {
	FindBySubject(ctx context.Context, db *gorm.DB, subject string) (*User, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	DeleteCascade(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}
