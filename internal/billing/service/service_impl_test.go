package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/billing/repository"
	"github.com/careloop/clinicore/internal/clock"
	"github.com/careloop/clinicore/internal/observability/obscontext"
)

func newTestLedger(t *testing.T) (billingdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite keeps one database per connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&billingdomain.BillableRecord{}, &billingdomain.Installment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, db, fake
}

func createTreatment(t *testing.T, svc billingdomain.Service, serviceCost int64) *billingdomain.BillableRecord {
	t.Helper()
	record, err := svc.CreateRecord(context.Background(), billingdomain.CreateRecordInput{
		RecordType: billingdomain.RecordTypeTreatment,
		PatientID:  "P-1001",
		Components: map[billingdomain.CostComponent]int64{
			billingdomain.ComponentService: serviceCost,
		},
	})
	require.NoError(t, err)
	return record
}

func amount(v int64) *int64 { return &v }

func TestCreateRecord_StartsUnlockedWithDerivedBalance(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	record := createTreatment(t, svc, 50_00)
	assert.False(t, record.PriceLocked)
	assert.Nil(t, record.PriceLockedAt)
	assert.Equal(t, int64(50_00), record.Balance)
	assert.Equal(t, int64(1), record.Version)
}

func TestCreateRecord_Validation(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, billingdomain.CreateRecordInput{
		RecordType: "pharmacy",
		PatientID:  "P-1",
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidRecordType)

	_, err = svc.CreateRecord(ctx, billingdomain.CreateRecordInput{
		RecordType: billingdomain.RecordTypeTreatment,
		PatientID:  " ",
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPatient)

	_, err = svc.CreateRecord(ctx, billingdomain.CreateRecordInput{
		RecordType: billingdomain.RecordTypeTreatment,
		PatientID:  "P-1",
		Components: map[billingdomain.CostComponent]int64{billingdomain.ComponentService: -1},
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)
}

func TestApplyUpdate_FirstPaymentLocksRecord(t *testing.T) {
	svc, _, fake := newTestLedger(t)
	ctx := obscontext.WithActor(context.Background(), "dr.mensah")
	record := createTreatment(t, svc, 50_00)

	updated, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		CashAmount: amount(20_00),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30_00), updated.Balance)
	assert.True(t, updated.PriceLocked)
	require.NotNil(t, updated.PriceLockedAt)
	assert.Equal(t, fake.Now(), updated.PriceLockedAt.UTC())
	assert.Equal(t, "dr.mensah", updated.PriceLockedBy)
	assert.Equal(t, int64(2), updated.Version)
}

func TestApplyUpdate_LockedRecordRejectsCostChanges(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	locked, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		CashAmount: amount(20_00),
	})
	require.NoError(t, err)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		Components: map[billingdomain.CostComponent]int64{billingdomain.ComponentService: 90_00},
	})
	assert.ErrorIs(t, err, billingdomain.ErrRecordLocked)

	// Rejection leaves the stored record untouched.
	stored, err := svc.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, locked.Balance, stored.Balance)
	assert.Equal(t, int64(50_00), stored.ServiceAmount)
	assert.Equal(t, locked.Version, stored.Version)
}

func TestApplyUpdate_LockedRecordStillAcceptsInstallments(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	_, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		CashAmount: amount(20_00),
	})
	require.NoError(t, err)

	updated, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{
			Amount: 10_00,
			Method: billingdomain.MethodCash,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20_00), updated.Balance)
	assert.Len(t, updated.Installments, 1)
	assert.NotEmpty(t, updated.Installments[0].ReceiptRef)
}

func TestApplyUpdate_LockedRecordRejectsInstallmentRemoval(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	updated, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{
			Amount: 15_00,
			Method: billingdomain.MethodMobileMoney,
		},
	})
	require.NoError(t, err)
	require.True(t, updated.PriceLocked)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		RemoveInstallmentID: updated.Installments[0].ID,
	})
	assert.ErrorIs(t, err, billingdomain.ErrRecordLocked)

	stored, err := svc.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Installments, 1)
}

func TestApplyUpdate_InstallmentValidation(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	_, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{Amount: 0, Method: billingdomain.MethodCash},
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{Amount: -50_00, Method: billingdomain.MethodCash},
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	// Rejected patches leave the record unlocked and unchanged.
	stored, err := svc.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, stored.PriceLocked)
	assert.Empty(t, stored.Installments)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{Amount: 10_00, Method: "cheque"},
	})
	assert.ErrorIs(t, err, billingdomain.ErrUnknownMethod)
}

func TestApplyUpdate_DuplicateClientInstallmentID(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	clientID := uuid.NewString()
	_, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{
			ID:     clientID,
			Amount: 10_00,
			Method: billingdomain.MethodCash,
		},
	})
	require.NoError(t, err)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		AddInstallment: &billingdomain.InstallmentEntry{
			ID:     clientID,
			Amount: 5_00,
			Method: billingdomain.MethodCash,
		},
	})
	assert.ErrorIs(t, err, billingdomain.ErrDuplicateInstallment)
}

func TestApplyUpdate_UnlockedRecordAllowsCostAndRemoval(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	updated, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		Components: map[billingdomain.CostComponent]int64{
			billingdomain.ComponentService: 70_00,
			billingdomain.ComponentLab:     30_00,
		},
	})
	require.NoError(t, err)
	assert.False(t, updated.PriceLocked)
	assert.Equal(t, int64(100_00), updated.Balance)

	_, err = svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		RemoveInstallmentID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, billingdomain.ErrInstallmentNotFound)
}

func TestApplyUpdate_StaleVersionRejected(t *testing.T) {
	svc, db, _ := newTestLedger(t)
	ctx := context.Background()
	record := createTreatment(t, svc, 50_00)

	// Another session wins the race after our read.
	require.NoError(t, db.Model(&billingdomain.BillableRecord{}).
		Where("id = ?", record.ID).
		Update("version", record.Version+1).Error)

	repo := repository.Provide()
	err := repo.UpdateVersioned(ctx, db, record.ID, record.Version, map[string]interface{}{
		"cash_amount": int64(10_00),
	})
	assert.ErrorIs(t, err, billingdomain.ErrStaleRecord)
}

func TestApplyUpdate_EmptyPatchAndMissingRecord(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.ApplyUpdate(ctx, snowflake.ID(42), billingdomain.UpdatePatch{})
	assert.ErrorIs(t, err, billingdomain.ErrEmptyPatch)

	_, err = svc.ApplyUpdate(ctx, snowflake.ID(42), billingdomain.UpdatePatch{
		CashAmount: amount(10_00),
	})
	assert.ErrorIs(t, err, billingdomain.ErrRecordNotFound)
}

func TestApplyUpdate_BalanceInvariantAcrossChannels(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	record, err := svc.CreateRecord(ctx, billingdomain.CreateRecordInput{
		RecordType: billingdomain.RecordTypeOptical,
		PatientID:  "P-2002",
		Components: map[billingdomain.CostComponent]int64{
			billingdomain.ComponentFrame: 300_00,
			billingdomain.ComponentLens:  500_00,
		},
	})
	require.NoError(t, err)

	updated, err := svc.ApplyUpdate(ctx, record.ID, billingdomain.UpdatePatch{
		InsuranceAmount: amount(400_00),
		CashAmount:      amount(100_00),
		AddInstallment: &billingdomain.InstallmentEntry{
			Amount: 50_00,
			Method: billingdomain.MethodCard,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(800_00), updated.TotalCost())
	assert.Equal(t, int64(550_00), updated.PaidTotal())
	assert.Equal(t, int64(250_00), updated.Balance)
	assert.True(t, updated.PriceLocked)
}
