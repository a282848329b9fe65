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

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
	"github.com/careloop/clinicore/internal/catalog/repository"
	"github.com/careloop/clinicore/internal/clock"
)

func newTestService(t *testing.T) (catalogdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite keeps one database per connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&catalogdomain.CostLine{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db
}

// A single shared node: a freshly created node restarts its step sequence,
// so two nodes generating in the same millisecond produce colliding IDs.
var seedNode, seedNodeErr = snowflake.NewNode(2)

func seedLine(t *testing.T, db *gorm.DB, line catalogdomain.CostLine) {
	t.Helper()
	if line.ID == 0 {
		require.NoError(t, seedNodeErr)
		line.ID = seedNode.Generate()
	}
	line.Active = true
	require.NoError(t, db.Create(&line).Error)
}

func TestComputeTotal_SumsSelections(t *testing.T) {
	svc, db := newTestService(t)
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentClinical, Code: "consultation", Name: "Consultation", UnitAmount: 150_00})
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentClinical, Code: "refraction", Name: "Refraction", UnitAmount: 100_00})

	quote, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentClinical, []catalogdomain.Selection{
		{Code: "consultation"},
		{Code: "refraction"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250_00), quote.Total)
	assert.Len(t, quote.Lines, 2)
}

func TestComputeTotal_PairDoublesEligibleLines(t *testing.T) {
	svc, db := newTestService(t)
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentOptical, Code: "single-vision-lens", Name: "Single vision lens", UnitAmount: 250_00, AllowPair: true})
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentOptical, Code: "standard-frame", Name: "Standard frame", UnitAmount: 300_00})

	quote, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentOptical, []catalogdomain.Selection{
		{Code: "single-vision-lens", Pair: true},
		{Code: "standard-frame", Pair: true},
	})
	require.NoError(t, err)
	// Pair doubles the lens, never the frame.
	assert.Equal(t, int64(500_00), quote.Lines[0].Amount)
	assert.Equal(t, int64(300_00), quote.Lines[1].Amount)
	assert.Equal(t, int64(800_00), quote.Total)
}

func TestComputeTotal_QuantityRules(t *testing.T) {
	svc, db := newTestService(t)
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentLab, Code: "blood-sugar", Name: "Blood sugar", UnitAmount: 60_00, AllowQuantity: true})
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentLab, Code: "culture", Name: "Culture", UnitAmount: 90_00})

	quote, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentLab, []catalogdomain.Selection{
		{Code: "blood-sugar", Quantity: 3},
		{Code: "blood-sugar", Quantity: 0},
		{Code: "culture", Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(180_00), quote.Lines[0].Amount)
	// Zero quantity falls back to one.
	assert.Equal(t, int64(60_00), quote.Lines[1].Amount)
	// Quantity is ignored for lines that do not allow it.
	assert.Equal(t, int64(90_00), quote.Lines[2].Amount)
}

func TestComputeTotal_LabelNeverChangesAmount(t *testing.T) {
	svc, db := newTestService(t)
	seedLine(t, db, catalogdomain.CostLine{Department: catalogdomain.DepartmentClinical, Code: "consultation", Name: "Consultation", UnitAmount: 150_00})

	plain, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentClinical, []catalogdomain.Selection{
		{Code: "consultation"},
	})
	require.NoError(t, err)

	labelled, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentClinical, []catalogdomain.Selection{
		{Code: "consultation", Label: "Extended consultation with specialist"},
	})
	require.NoError(t, err)

	assert.Equal(t, plain.Total, labelled.Total)
	assert.Equal(t, "Extended consultation with specialist", labelled.Lines[0].Label)
}

func TestComputeTotal_UnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ComputeTotal(context.Background(), catalogdomain.DepartmentClinical, []catalogdomain.Selection{
		{Code: "no-such-line"},
	})
	assert.ErrorIs(t, err, catalogdomain.ErrUnknownCostLine)
}

func TestComputeTotal_InvalidDepartment(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ComputeTotal(context.Background(), catalogdomain.Department("pharmacy"), nil)
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidDepartment)
}

func TestCreate_SlugsAndRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)

	line, err := svc.Create(context.Background(), catalogdomain.CreateCostLineInput{
		Department: catalogdomain.DepartmentLab,
		Name:       "Full Blood Count",
		UnitAmount: 120_00,
	})
	require.NoError(t, err)
	assert.Equal(t, "full-blood-count", line.Code)

	_, err = svc.Create(context.Background(), catalogdomain.CreateCostLineInput{
		Department: catalogdomain.DepartmentLab,
		Name:       "Full Blood Count",
		UnitAmount: 130_00,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrDuplicateCostLine)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), catalogdomain.CreateCostLineInput{
		Department: catalogdomain.DepartmentLab,
		Name:       "  ",
		UnitAmount: 100_00,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCostLine)

	_, err = svc.Create(context.Background(), catalogdomain.CreateCostLineInput{
		Department: catalogdomain.DepartmentLab,
		Name:       "Urinalysis",
		UnitAmount: 0,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCostLine)
}
