package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/careloop/clinicore/internal/audit/domain"
	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/clock"
	"github.com/careloop/clinicore/internal/observability/metrics"
	"github.com/careloop/clinicore/internal/observability/obscontext"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    billingdomain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

// Service is the payment ledger. Every mutation of a billable record goes
// through ApplyUpdate, which validates first and only then writes, inside
// one transaction guarded by the record's version.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    billingdomain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) CreateRecord(ctx context.Context, input billingdomain.CreateRecordInput) (*billingdomain.BillableRecord, error) {
	if !input.RecordType.Valid() {
		return nil, billingdomain.ErrInvalidRecordType
	}
	if strings.TrimSpace(input.PatientID) == "" {
		return nil, billingdomain.ErrInvalidPatient
	}
	for component, amount := range input.Components {
		if !component.Valid() {
			return nil, billingdomain.ErrInvalidComponent
		}
		if amount < 0 {
			return nil, billingdomain.ErrInvalidAmount
		}
	}

	now := s.clock.Now()
	record := billingdomain.BillableRecord{
		ID:         s.genID.Generate(),
		RecordType: input.RecordType,
		PatientID:  strings.TrimSpace(input.PatientID),
		AttendedBy: strings.TrimSpace(input.AttendedBy),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyComponents(&record, input.Components)
	record.Balance = record.ComputeBalance()

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return nil, err
	}

	s.auditLog(ctx, "billing.record_created", record.ID, map[string]any{
		"record_type": string(record.RecordType),
		"patient_id":  record.PatientID,
		"total_cost":  record.TotalCost(),
	})
	return &record, nil
}

func (s *Service) GetRecord(ctx context.Context, id snowflake.ID) (*billingdomain.BillableRecord, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) ListRecords(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.BillableRecord, error) {
	if filter.RecordType != "" && !filter.RecordType.Valid() {
		return nil, billingdomain.ErrInvalidRecordType
	}
	return s.repo.List(ctx, s.db, filter)
}

// ApplyUpdate is the ledger's single merge step: guard, validate, merge,
// recompute, then one conditional write. A guard or validation failure
// leaves the stored record byte-for-byte unchanged.
func (s *Service) ApplyUpdate(ctx context.Context, id snowflake.ID, patch billingdomain.UpdatePatch) (*billingdomain.BillableRecord, error) {
	if patch.Empty() {
		return nil, billingdomain.ErrEmptyPatch
	}

	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	guard := billingdomain.NewLockGuard(record)
	if err := guard.Allow(patch); err != nil {
		s.log.Warn("patch rejected by price lock",
			zap.Int64("record_id", int64(record.ID)),
			zap.Time("locked_at", derefTime(record.PriceLockedAt)),
		)
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	merged := *record
	merged.Installments = append([]billingdomain.Installment(nil), record.Installments...)

	applyComponents(&merged, patch.Components)
	if patch.InsuranceAmount != nil {
		merged.InsuranceAmount = *patch.InsuranceAmount
	}
	if patch.CashAmount != nil {
		merged.CashAmount = *patch.CashAmount
	}

	var added *billingdomain.Installment
	if patch.AddInstallment != nil {
		added, err = s.buildInstallment(record, patch.AddInstallment)
		if err != nil {
			return nil, err
		}
		merged.Installments = append(merged.Installments, *added)
	}

	var removed *billingdomain.Installment
	if patch.RemoveInstallmentID != "" {
		merged.Installments, removed = dropInstallment(merged.Installments, patch.RemoveInstallmentID)
		if removed == nil {
			return nil, billingdomain.ErrInstallmentNotFound
		}
	}

	merged.Balance = merged.ComputeBalance()
	merged.UpdatedAt = s.clock.Now()

	locking := guard.ShouldLock(&merged)
	if locking {
		now := s.clock.Now()
		merged.PriceLocked = true
		merged.PriceLockedAt = &now
		merged.PriceLockedBy = actorFrom(ctx)
	}

	fields := map[string]interface{}{
		"service_amount":   merged.ServiceAmount,
		"lab_amount":       merged.LabAmount,
		"frame_amount":     merged.FrameAmount,
		"lens_amount":      merged.LensAmount,
		"insurance_amount": merged.InsuranceAmount,
		"cash_amount":      merged.CashAmount,
		"balance":          merged.Balance,
		"updated_at":       merged.UpdatedAt,
	}
	if locking {
		fields["price_locked"] = true
		fields["price_locked_at"] = merged.PriceLockedAt
		fields["price_locked_by"] = merged.PriceLockedBy
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateVersioned(ctx, tx, record.ID, record.Version, fields); err != nil {
			return err
		}
		if added != nil {
			if err := s.repo.InsertInstallment(ctx, tx, added); err != nil {
				return err
			}
		}
		if removed != nil {
			if err := s.repo.DeleteInstallment(ctx, tx, record.ID, removed.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged.Version = record.Version + 1
	s.emitUpdateEvents(ctx, &merged, patch, added, removed, locking)
	return &merged, nil
}

func (s *Service) buildInstallment(record *billingdomain.BillableRecord, entry *billingdomain.InstallmentEntry) (*billingdomain.Installment, error) {
	if entry.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}
	if !entry.Method.Valid() {
		return nil, billingdomain.ErrUnknownMethod
	}

	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	} else {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, billingdomain.ErrInvalidInstallmentID
		}
		id = parsed.String()
		for _, existing := range record.Installments {
			if existing.ID == id {
				return nil, billingdomain.ErrDuplicateInstallment
			}
		}
	}

	receiptRef := strings.TrimSpace(entry.ReceiptRef)
	if receiptRef == "" {
		receiptRef = ulid.Make().String()
	}

	now := s.clock.Now()
	return &billingdomain.Installment{
		ID:         id,
		RecordID:   record.ID,
		Amount:     entry.Amount,
		Method:     entry.Method,
		PaidAt:     now,
		ReceiptRef: receiptRef,
		Note:       strings.TrimSpace(entry.Note),
		CreatedAt:  now,
	}, nil
}

func (s *Service) emitUpdateEvents(ctx context.Context, record *billingdomain.BillableRecord, patch billingdomain.UpdatePatch, added, removed *billingdomain.Installment, locked bool) {
	recordType := string(record.RecordType)

	if added != nil {
		s.metrics.RecordPaymentPosted(ctx, recordType, string(added.Method))
		s.auditLog(ctx, "billing.installment_added", record.ID, map[string]any{
			"installment_id": added.ID,
			"amount":         added.Amount,
			"method":         string(added.Method),
			"receipt_ref":    added.ReceiptRef,
		})
	}
	if removed != nil {
		s.auditLog(ctx, "billing.installment_removed", record.ID, map[string]any{
			"installment_id": removed.ID,
			"amount":         removed.Amount,
		})
	}
	if patch.InsuranceAmount != nil {
		s.metrics.RecordPaymentPosted(ctx, recordType, "insurance")
	}
	if patch.CashAmount != nil {
		s.metrics.RecordPaymentPosted(ctx, recordType, "cash")
	}
	if locked {
		s.metrics.RecordPriceLock(ctx, recordType)
		s.auditLog(ctx, "billing.price_locked", record.ID, map[string]any{
			"locked_by": record.PriceLockedBy,
			"locked_at": record.PriceLockedAt,
			"balance":   record.Balance,
		})
		s.log.Info("record price locked",
			zap.Int64("record_id", int64(record.ID)),
			zap.String("locked_by", record.PriceLockedBy),
		)
	}
}

func (s *Service) auditLog(ctx context.Context, action string, recordID snowflake.ID, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, actorFrom(ctx), action, "billable_record", recordID.String(), metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func validatePatch(patch billingdomain.UpdatePatch) error {
	for component, amount := range patch.Components {
		if !component.Valid() {
			return billingdomain.ErrInvalidComponent
		}
		if amount < 0 {
			return billingdomain.ErrInvalidAmount
		}
	}
	if patch.InsuranceAmount != nil && *patch.InsuranceAmount < 0 {
		return billingdomain.ErrInvalidAmount
	}
	if patch.CashAmount != nil && *patch.CashAmount < 0 {
		return billingdomain.ErrInvalidAmount
	}
	return nil
}

func applyComponents(record *billingdomain.BillableRecord, components map[billingdomain.CostComponent]int64) {
	for component, amount := range components {
		switch component {
		case billingdomain.ComponentService:
			record.ServiceAmount = amount
		case billingdomain.ComponentLab:
			record.LabAmount = amount
		case billingdomain.ComponentFrame:
			record.FrameAmount = amount
		case billingdomain.ComponentLens:
			record.LensAmount = amount
		}
	}
}

func dropInstallment(installments []billingdomain.Installment, id string) ([]billingdomain.Installment, *billingdomain.Installment) {
	for i := range installments {
		if installments[i].ID == id {
			removed := installments[i]
			return append(installments[:i:i], installments[i+1:]...), &removed
		}
	}
	return installments, nil
}

func actorFrom(ctx context.Context) string {
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return "system"
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
