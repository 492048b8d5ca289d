package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/brookejlacey/flowback/internal/config"
	connectiondomain "github.com/brookejlacey/flowback/internal/connection/domain"
	engagementdomain "github.com/brookejlacey/flowback/internal/engagement/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
)

// Postgres deployments run the embedded SQL migrations; other dialects
// (sqlite in development and tests, mysql) fall back to schema sync.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&connectiondomain.PlatformConnection{},
			&submissiondomain.Submission{},
			&engagementdomain.MetricSnapshot{},
		)
	}),
)
