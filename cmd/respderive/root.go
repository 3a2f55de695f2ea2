package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/exitcode"
)

var (
	cfg            config.Config
	derivationPath string
)

var rootCmd = &cobra.Command{
	Use:   "respderive",
	Short: "Tumor and hematologic response derivation",
	Long: "Derives RECIST 1.1, iRECIST and IMWG responses, best overall response and " +
		"progression-free survival from assessment data, and persists them to Postgres via COPY.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file in the working directory may supply the DSN.
		if cfg.DSN == "" {
			_ = godotenv.Load()
			cfg.DSN = os.Getenv("RESPDERIVE_DB_URL")
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("RESPDERIVE_DB_URL"), "Postgres connection string (or set RESPDERIVE_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

// addInputFlags registers the flags shared by derive and plan.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.AssessmentsPath, "assessments", "", "Assessment file: .parquet, .xlsx or .csv (required)")
	f.StringVar(&cfg.SubjectsPath, "subjects", "", "Subject file: .parquet, .xlsx or .csv")
	f.StringVar(&derivationPath, "config", "", "YAML derivation config (defaults apply to unset keys)")
	f.StringVar(&cfg.StudyID, "study-id", "STUDY", "Study identifier written to RS records")
	f.IntVar(&cfg.Derivation.Workers, "workers", 0, "Parallel subject workers (0: from config)")
	_ = cmd.MarkFlagRequired("assessments")
}

// loadDerivation resolves the derivation config, letting --workers override it.
func loadDerivation() error {
	workers := cfg.Derivation.Workers
	d := config.DefaultDerivation()
	if derivationPath != "" {
		var err error
		if d, err = config.LoadDerivation(derivationPath); err != nil {
			return err
		}
	}
	if workers > 0 {
		d.Workers = workers
	}
	cfg.Derivation = d
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.UsageError)
	}
}
