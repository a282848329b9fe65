package migration

import (
	"github.com/careloop/clinicore/internal/config"
	"github.com/careloop/clinicore/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"

	auditdomain "github.com/careloop/clinicore/internal/audit/domain"
	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres deployments (tests, sqlite dev setups) build
			// the schema from the models directly.
			if err := conn.AutoMigrate(
				&billingdomain.BillableRecord{},
				&billingdomain.Installment{},
				&catalogdomain.CostLine{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedCatalog {
			return seed.EnsureDefaultCatalog(conn)
		}
		return nil
	}),
)
