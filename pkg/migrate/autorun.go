package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderbot/pkg/config"
	"github.com/angelmondragon/orderbot/pkg/db"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

// MaybeRunDev applies pending migrations at startup when AutoMigrate is set
// and the target is disposable: a dev environment or a SQLite file.
// Production Postgres is migrated with cmd/migrate only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	disposable := cfg.App.IsDev() || client.Driver() == config.DriverSQLite
	if !cfg.FeatureFlags.AutoMigrate || !disposable {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("migrate: pool: %w", err)
	}

	ctx = logg.WithField(ctx, "driver", client.Driver())
	started := time.Now()
	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("migrate: auto up: %w", err)
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds()), "migrate.auto_up.done")
	return nil
}
