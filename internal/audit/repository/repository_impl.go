package repository

import (
	"context"

	auditdomain "github.com/careloop/clinicore/internal/audit/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() auditdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, entry *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByTarget(ctx context.Context, db *gorm.DB, targetType, targetID string) ([]auditdomain.AuditLog, error) {
	var logs []auditdomain.AuditLog
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
