package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
)

type repository struct{}

func Provide() billingdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, record *billingdomain.BillableRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.BillableRecord, error) {
	var record billingdomain.BillableRecord
	err := db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billingdomain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) ([]billingdomain.BillableRecord, error) {
	stmt := db.WithContext(ctx).
		Model(&billingdomain.BillableRecord{}).
		Preload("Installments")

	if filter.RecordType != "" {
		stmt = stmt.Where("record_type = ?", filter.RecordType)
	}
	if filter.PatientID != "" {
		stmt = stmt.Where("patient_id = ?", filter.PatientID)
	}
	if filter.LockedOnly {
		stmt = stmt.Where("price_locked = ?", true)
	}
	if filter.OutstandingOnly {
		stmt = stmt.Where("balance > 0")
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	var records []billingdomain.BillableRecord
	if err := stmt.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateVersioned applies the fields only when the stored version still
// matches. The version bump rides in the same statement so concurrent
// writers cannot both succeed.
func (r *repository) UpdateVersioned(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, fields map[string]interface{}) error {
	fields["version"] = version + 1
	result := db.WithContext(ctx).
		Model(&billingdomain.BillableRecord{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return billingdomain.ErrStaleRecord
	}
	return nil
}

func (r *repository) InsertInstallment(ctx context.Context, db *gorm.DB, installment *billingdomain.Installment) error {
	return db.WithContext(ctx).Create(installment).Error
}

func (r *repository) DeleteInstallment(ctx context.Context, db *gorm.DB, recordID snowflake.ID, installmentID string) error {
	result := db.WithContext(ctx).
		Where("record_id = ? AND id = ?", recordID, installmentID).
		Delete(&billingdomain.Installment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return billingdomain.ErrInstallmentNotFound
	}
	return nil
}
