package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/clock"
	revenuedomain "github.com/careloop/clinicore/internal/revenue/domain"
)

func newTestRevenue(t *testing.T) (revenuedomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite keeps one database per connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&billingdomain.BillableRecord{}, &billingdomain.Installment{}))

	fake := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
	})
	return svc, db, fake
}

func seedRecord(t *testing.T, db *gorm.DB, node *snowflake.Node, serviceCost, cash int64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&billingdomain.BillableRecord{
		ID:            node.Generate(),
		RecordType:    billingdomain.RecordTypeTreatment,
		PatientID:     "P-1",
		ServiceAmount: serviceCost,
		CashAmount:    cash,
		Balance:       serviceCost - cash,
		Version:       1,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}).Error)
}

func TestSummarize_FiltersByWindow(t *testing.T) {
	svc, db, fake := newTestRevenue(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	today := fake.Now().Add(-2 * time.Hour)
	lastWeek := fake.Now().AddDate(0, 0, -6)
	lastMonth := fake.Now().AddDate(0, 0, -25)
	longAgo := fake.Now().AddDate(0, 0, -200)

	seedRecord(t, db, node, 100_00, 40_00, today)
	seedRecord(t, db, node, 200_00, 0, lastWeek)
	seedRecord(t, db, node, 300_00, 300_00, lastMonth)
	seedRecord(t, db, node, 400_00, 0, longAgo)

	ctx := context.Background()

	daily, err := svc.Summarize(ctx, revenuedomain.WindowToday)
	require.NoError(t, err)
	assert.Equal(t, int64(1), daily.RecordCount)
	assert.Equal(t, int64(100_00), daily.TotalBilled)

	weekly, err := svc.Summarize(ctx, revenuedomain.WindowWeekly)
	require.NoError(t, err)
	assert.Equal(t, int64(2), weekly.RecordCount)
	assert.Equal(t, int64(300_00), weekly.TotalBilled)

	monthly, err := svc.Summarize(ctx, revenuedomain.WindowMonthly)
	require.NoError(t, err)
	assert.Equal(t, int64(3), monthly.RecordCount)
	assert.Equal(t, int64(260_00), monthly.Outstanding)

	all, err := svc.Summarize(ctx, revenuedomain.WindowAll)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.RecordCount)
	assert.Equal(t, int64(1000_00), all.TotalBilled)
}

func TestSummarize_InvalidWindow(t *testing.T) {
	svc, _, _ := newTestRevenue(t)

	_, err := svc.Summarize(context.Background(), revenuedomain.Window("fortnight"))
	assert.ErrorIs(t, err, revenuedomain.ErrInvalidWindow)
}

func TestSummarize_ReadOnly(t *testing.T) {
	svc, db, fake := newTestRevenue(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	seedRecord(t, db, node, 100_00, 40_00, fake.Now())

	_, err = svc.Summarize(context.Background(), revenuedomain.WindowAll)
	require.NoError(t, err)

	var record billingdomain.BillableRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, int64(1), record.Version)
	assert.Equal(t, int64(60_00), record.Balance)
}
