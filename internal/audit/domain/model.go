package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records one sensitive action against a billing entity.
type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	Actor      string            `json:"actor" gorm:"type:text;not null"`
	Action     string            `json:"action" gorm:"type:text;not null;index"`
	TargetType string            `json:"target_type" gorm:"type:text;not null"`
	TargetID   string            `json:"target_id" gorm:"type:text;not null;index"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	Log(ctx context.Context, actor, action, targetType, targetID string, metadata map[string]any) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]AuditLog, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	FindByTarget(ctx context.Context, db *gorm.DB, targetType, targetID string) ([]AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidTarget = errors.New("invalid_target")
)
