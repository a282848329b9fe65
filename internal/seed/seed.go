package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
)

type defaultLine struct {
	department    catalogdomain.Department
	code          string
	name          string
	unitAmount    int64
	allowQuantity bool
	allowPair     bool
}

var defaultLines = []defaultLine{
	{catalogdomain.DepartmentClinical, "consultation", "Consultation", 150_00, false, false},
	{catalogdomain.DepartmentClinical, "review", "Review visit", 80_00, false, false},
	{catalogdomain.DepartmentClinical, "refraction", "Refraction", 100_00, false, false},
	{catalogdomain.DepartmentLab, "full-blood-count", "Full blood count", 120_00, true, false},
	{catalogdomain.DepartmentLab, "blood-sugar", "Blood sugar", 60_00, true, false},
	{catalogdomain.DepartmentOptical, "single-vision-lens", "Single vision lens", 250_00, false, true},
	{catalogdomain.DepartmentOptical, "bifocal-lens", "Bifocal lens", 400_00, false, true},
	{catalogdomain.DepartmentOptical, "standard-frame", "Standard frame", 300_00, false, false},
	{catalogdomain.DepartmentSale, "lens-solution", "Lens solution", 45_00, true, false},
}

// EnsureDefaultCatalog seeds a starter cost catalog so a fresh deployment
// can quote and bill without manual setup. Existing lines are left alone.
func EnsureDefaultCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range defaultLines {
			if err := ensureCostLineTx(ctx, tx, node, line); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureCostLineTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, line defaultLine) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&catalogdomain.CostLine{}).
		Where("department = ? AND code = ?", line.department, line.code).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&catalogdomain.CostLine{
		ID:            node.Generate(),
		Department:    line.department,
		Code:          line.code,
		Name:          line.name,
		UnitAmount:    line.unitAmount,
		AllowQuantity: line.allowQuantity,
		AllowPair:     line.allowPair,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error
}
