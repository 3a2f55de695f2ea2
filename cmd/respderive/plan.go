package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/oncoresp/internal/derive"
	"github.com/gyeh/oncoresp/internal/exitcode"
	"github.com/gyeh/oncoresp/internal/logging"
	"github.com/gyeh/oncoresp/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run derivation and report (no writes)",
	RunE:  runPlan,
}

func init() {
	addInputFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := loadDerivation(); err != nil {
		log.Error().Err(err).Msg("derivation config invalid")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	rep, err := derive.Plan(context.Background(), log, &cfg)
	if err != nil {
		var pe *derive.PipelineError
		if errors.As(err, &pe) && (pe.Phase == derive.PhasePreflight || pe.Phase == derive.PhaseRead) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("plan failed")
			os.Exit(exitcode.ValidationError)
		}
		log.Error().Err(err).Msg("plan failed")
		os.Exit(exitcode.DeriveError)
	}

	printReport(os.Stdout, "plan", rep)
	return nil
}

func printReport(w io.Writer, command string, rep *derive.Report) {
	s := rep.Summary
	fmt.Fprintf(w, "=== respderive %s ===\n", command)
	fmt.Fprintf(w, "Assessments:  %s\n", s.AssessmentsPath)
	if s.SubjectsPath != "" {
		fmt.Fprintf(w, "Subjects:     %s\n", s.SubjectsPath)
	}
	fmt.Fprintf(w, "Input SHA:    %s\n", s.InputSHA256)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:       %s\n", s.RunID)
	}
	if s.AlreadyPersisted {
		fmt.Fprintln(w, "Already persisted; nothing to do (use --force to re-derive).")
		return
	}
	fmt.Fprintf(w, "Output SHA:   %s\n", s.OutputSHA256)
	fmt.Fprintf(w, "Rows:         %d read, %d rejected\n", s.RowsRead, s.RowsRejected)
	fmt.Fprintf(w, "Subjects:     %d (%d rejected)\n", s.Subjects, s.SubjectsRejected)
	fmt.Fprintf(w, "Records:      %d responses, %d best responses, %d events\n", s.ResponseRecords, s.BORRecords, s.EventRecords)
	if s.RowsPersisted > 0 {
		fmt.Fprintf(w, "Persisted:    %d rows\n", s.RowsPersisted)
	}
	fmt.Fprintf(w, "Findings:     %d warnings, %d errors\n", s.Warnings, s.Errors)
	codes := make([]string, 0, len(s.FindingsByCode))
	for c := range s.FindingsByCode {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	for _, c := range codes {
		fmt.Fprintf(w, "  %-22s %d\n", c, s.FindingsByCode[model.FindingCode(c)])
	}
	fmt.Fprintf(w, "Duration:     %.1fs\n", s.DurationTotal.Seconds())
	if rep.Cohort != nil {
		fmt.Fprintln(w)
		rep.Cohort.Write(w)
	}
}
