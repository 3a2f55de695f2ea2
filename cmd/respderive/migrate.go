package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/oncoresp/internal/db"
	"github.com/gyeh/oncoresp/internal/exitcode"
	"github.com/gyeh/oncoresp/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if code := migrateMain(); code != exitcode.Success {
		os.Exit(code)
	}
	return nil
}

func migrateMain() int {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or RESPDERIVE_DB_URL is required")
		return exitcode.UsageError
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return exitcode.DBConnError
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return exitcode.DeriveError
	}

	log.Info().Msg("all migrations applied successfully")
	return exitcode.Success
}
