package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/studyshare/backend/internal/config"
	"github.com/studyshare/backend/internal/db"
	"github.com/studyshare/backend/internal/logger"
)

type migrateFunc func(ctx context.Context, db *sql.DB, driver string) error

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(migrateSubCmd("up", "Apply all pending migrations", db.RunMigrations))
	cmd.AddCommand(migrateSubCmd("down", "Roll back the most recent migration", db.MigrateDown))
	cmd.AddCommand(migrateSubCmd("status", "Show the state of every migration", db.MigrationStatus))
	return cmd
}

func migrateSubCmd(use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), run)
		},
	}
}

func runMigrate(ctx context.Context, run migrateFunc) error {
	cfg := setup()

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection, db.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	return run(ctx, database.DB, cfg.DBDriver)
}

// setup loads configuration and installs the shared logger
func setup() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, "do")
	return cfg
}
