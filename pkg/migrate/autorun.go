package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/logger"
)

// MaybeRunDev migrates the schema automatically when the app is running in dev
// mode and the feature flag is enabled. Postgres runs the embedded goose files;
// SQLite gets the schema from the models and the same role seed.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "running model auto-migration (dev auto-run)")
		if err := AutoMigrateModels(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "model auto-migration completed")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	migrator, err := NewMigrator(sqlDB, "", logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "running embedded goose migrations (dev auto-run)")
	if err := migrator.Up(ctx); err != nil {
		return err
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrateModels creates the schema from the gorm models and seeds the
// built-in roles. Used for SQLite, where the goose SQL does not apply.
func AutoMigrateModels(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, name := range []enums.RoleName{enums.RoleAdmin, enums.RoleUser} {
		role := models.Role{Name: name.String()}
		if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
