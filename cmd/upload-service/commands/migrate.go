package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/config"
	"github.com/reelverse/upload-service/pkg/upload/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending database migrations for the configured session store.

PostgreSQL deployments apply the versioned SQL migrations under
pkg/upload/store/migrations via golang-migrate. SQLite deployments use
GORM's AutoMigrate, which this command also triggers.

Examples:
  # Run migrations with default config
  upload-service migrate

  # Run migrations with custom config
  upload-service migrate --config /etc/upload-service/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("running database migrations", "driver", cfg.Database.Driver)

	if err := store.RunMigrations(context.Background(), store.Config{
		Driver:       store.Driver(cfg.Database.Driver),
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("migrations completed successfully (driver: %s)\n", cfg.Database.Driver)
	return nil
}
