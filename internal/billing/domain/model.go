package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordType identifies which department owns a billable record.
type RecordType string

const (
	RecordTypeTreatment RecordType = "treatment"
	RecordTypeOptical   RecordType = "optical"
	RecordTypeLab       RecordType = "lab"
	RecordTypeSale      RecordType = "sale"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeTreatment, RecordTypeOptical, RecordTypeLab, RecordTypeSale:
		return true
	default:
		return false
	}
}

// PaymentMethod is the closed set of installment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCard         PaymentMethod = "card"
	MethodInsurance    PaymentMethod = "insurance"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodMobileMoney, MethodCard, MethodInsurance, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// BillableRecord is one patient treatment episode, optical order, lab order
// or sale. All monetary fields are integer cents. Mutated only through the
// payment ledger service.
type BillableRecord struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	RecordType RecordType   `json:"record_type" gorm:"type:text;not null;index"`
	PatientID  string       `json:"patient_id" gorm:"type:text;not null;index"`
	AttendedBy string       `json:"attended_by" gorm:"type:text"`

	ServiceAmount int64 `json:"service_amount" gorm:"not null;default:0"`
	LabAmount     int64 `json:"lab_amount" gorm:"not null;default:0"`
	FrameAmount   int64 `json:"frame_amount" gorm:"not null;default:0"`
	LensAmount    int64 `json:"lens_amount" gorm:"not null;default:0"`

	InsuranceAmount int64 `json:"insurance_amount" gorm:"not null;default:0"`
	CashAmount      int64 `json:"cash_amount" gorm:"not null;default:0"`

	// Balance is derived from the invariant formula and persisted for query
	// convenience; readers that need a trustworthy figure recompute it.
	Balance int64 `json:"balance" gorm:"not null;default:0"`

	PriceLocked   bool       `json:"price_locked" gorm:"not null;default:false"`
	PriceLockedAt *time.Time `json:"price_locked_at,omitempty"`
	PriceLockedBy string     `json:"price_locked_by,omitempty" gorm:"type:text"`

	// Version guards the read-merge-write cycle; every write is conditional
	// on the version observed at read time.
	Version int64 `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	Installments []Installment `json:"installments" gorm:"foreignKey:RecordID"`
}

func (BillableRecord) TableName() string { return "billable_records" }

// Installment is one discrete, dated, method-tagged partial payment.
type Installment struct {
	ID         string        `json:"id" gorm:"type:text;primaryKey"`
	RecordID   snowflake.ID  `json:"record_id" gorm:"not null;index"`
	Amount     int64         `json:"amount" gorm:"not null"`
	Method     PaymentMethod `json:"method" gorm:"type:text;not null"`
	PaidAt     time.Time     `json:"paid_at" gorm:"not null"`
	ReceiptRef string        `json:"receipt_ref,omitempty" gorm:"type:text"`
	Note       string        `json:"note,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at" gorm:"not null"`
}

func (Installment) TableName() string { return "installments" }

// TotalCost sums the record's cost components.
func (r *BillableRecord) TotalCost() int64 {
	return r.ServiceAmount + r.LabAmount + r.FrameAmount + r.LensAmount
}

// InstallmentTotal sums the posted installment amounts.
func (r *BillableRecord) InstallmentTotal() int64 {
	var total int64
	for _, installment := range r.Installments {
		total += installment.Amount
	}
	return total
}

// PaidTotal sums all payment channels.
func (r *BillableRecord) PaidTotal() int64 {
	return r.InsuranceAmount + r.CashAmount + r.InstallmentTotal()
}

// ComputeBalance derives the balance from current field values. It does not
// trust the persisted Balance column.
func (r *BillableRecord) ComputeBalance() int64 {
	return r.TotalCost() - r.PaidTotal()
}

// HasPayment reports whether any payment has been recorded on the record.
func (r *BillableRecord) HasPayment() bool {
	return r.InsuranceAmount > 0 || r.CashAmount > 0 || len(r.Installments) > 0
}
