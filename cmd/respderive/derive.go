package main

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gyeh/oncoresp/internal/db"
	"github.com/gyeh/oncoresp/internal/derive"
	"github.com/gyeh/oncoresp/internal/exitcode"
	"github.com/gyeh/oncoresp/internal/logging"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive responses and endpoints, write outputs and persist them",
	RunE:  runDerive,
}

func init() {
	addInputFlags(deriveCmd)
	f := deriveCmd.Flags()
	f.StringVar(&cfg.OutDir, "out-dir", "", "Directory for Parquet outputs and the review workbook")
	f.BoolVar(&cfg.Force, "force", false, "Re-derive even if an identical input was already persisted")
	rootCmd.AddCommand(deriveCmd)
}

func runDerive(cmd *cobra.Command, args []string) error {
	if code := deriveMain(); code != exitcode.Success {
		os.Exit(code)
	}
	return nil
}

// deriveMain runs the pipeline and returns the process exit code, so that the
// pool is closed before the process exits.
func deriveMain() int {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := loadDerivation(); err != nil {
		log.Error().Err(err).Msg("derivation config invalid")
		return exitcode.UsageError
	}
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return exitcode.UsageError
	}

	var pool *pgxpool.Pool
	if cfg.DSN != "" {
		var err error
		pool, err = db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			return exitcode.DBConnError
		}
		defer pool.Close()
	}

	rep, err := derive.Run(ctx, pool, log, &cfg)
	if err != nil {
		var pe *derive.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("derive failed")
		} else {
			log.Error().Err(err).Msg("derive failed")
		}
		return failureCode(err)
	}

	printReport(os.Stdout, "derive", rep)
	if rep.Summary.SubjectsRejected > 0 || rep.Summary.Errors > 0 {
		return exitcode.PartialSuccess
	}
	return exitcode.Success
}

// failureCode maps a pipeline error to its exit code by phase.
func failureCode(err error) int {
	var pe *derive.PipelineError
	if !errors.As(err, &pe) {
		return exitcode.DeriveError
	}
	switch pe.Phase {
	case derive.PhasePreflight, derive.PhaseRead:
		return exitcode.ValidationError
	case derive.PhasePersist:
		return exitcode.CopyError
	default:
		return exitcode.DeriveError
	}
}
