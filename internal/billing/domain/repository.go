package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists billable records and installments. UpdateVersioned is
// a conditional write: it only applies when the stored version matches the
// one the caller read, and reports ErrStaleRecord otherwise.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *BillableRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillableRecord, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]BillableRecord, error)
	UpdateVersioned(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, fields map[string]interface{}) error
	InsertInstallment(ctx context.Context, db *gorm.DB, installment *Installment) error
	DeleteInstallment(ctx context.Context, db *gorm.DB, recordID snowflake.ID, installmentID string) error
}
