package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrRecordNotFound       = errors.New("record_not_found")
	ErrRecordLocked         = errors.New("record_locked")
	ErrStaleRecord          = errors.New("stale_record")
	ErrInvalidRecordType    = errors.New("invalid_record_type")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidComponent     = errors.New("invalid_component")
	ErrUnknownMethod        = errors.New("unknown_payment_method")
	ErrEmptyPatch           = errors.New("empty_patch")
	ErrDuplicateInstallment = errors.New("duplicate_installment")
	ErrInvalidInstallmentID = errors.New("invalid_installment_id")
	ErrInstallmentNotFound  = errors.New("installment_not_found")
	ErrInvalidPatient       = errors.New("invalid_patient")
)

// CreateRecordInput opens a new billable record. Cost components may be
// zero at creation and filled in later, as long as the record stays
// unlocked.
type CreateRecordInput struct {
	RecordType RecordType              `json:"record_type"`
	PatientID  string                  `json:"patient_id"`
	AttendedBy string                  `json:"attended_by,omitempty"`
	Components map[CostComponent]int64 `json:"components,omitempty"`
}

// ListFilter narrows record listings.
type ListFilter struct {
	RecordType      RecordType
	PatientID       string
	LockedOnly      bool
	OutstandingOnly bool
	Limit           int
	Offset          int
}

// Service is the payment ledger: the single write path for billable
// records and their installments.
type Service interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (*BillableRecord, error)
	GetRecord(ctx context.Context, id snowflake.ID) (*BillableRecord, error)
	ListRecords(ctx context.Context, filter ListFilter) ([]BillableRecord, error)
	// ApplyUpdate merges a patch into the record identified by id, enforcing
	// the price-lock guard, the balance invariant and optimistic versioning.
	ApplyUpdate(ctx context.Context, id snowflake.ID, patch UpdatePatch) (*BillableRecord, error)
}
