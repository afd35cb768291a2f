package repository

import (
	"context"
	"strings"

	"github.com/gavelhq/gavel/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListAuditLogRequest) ([]domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})

	if action := strings.TrimSpace(req.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if resourceType := strings.TrimSpace(req.ResourceType); resourceType != "" {
		stmt = stmt.Where("resource_type = ?", resourceType)
	}

	limit := req.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	stmt = stmt.Order("created_at desc, id desc").Limit(limit)
	if req.Offset > 0 {
		stmt = stmt.Offset(req.Offset)
	}

	var logs []domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
