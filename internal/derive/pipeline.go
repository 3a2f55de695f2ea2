// Package derive runs a derivation: preflight, read, per-subject derivation,
// output files and persistence.
package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/report"
)

// Pipeline phases.
const (
	PhasePreflight = "preflight"
	PhaseRead      = "read"
	PhaseDerive    = "derive"
	PhaseWrite     = "write"
	PhasePersist   = "persist"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Report is what a run hands back to the caller.
type Report struct {
	Summary *model.RunSummary
	// Output and Cohort are nil when the run was skipped as already persisted.
	Output *Output
	Cohort *report.Cohort
}

// Run executes the full pipeline. pool may be nil, in which case nothing is
// registered or persisted; outputs are written only when cfg.OutDir is set.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*Report, error) {
	totalStart := time.Now()

	log.Info().Str("assessments", cfg.AssessmentsPath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}

	summary := &model.RunSummary{
		AssessmentsPath: cfg.AssessmentsPath,
		SubjectsPath:    cfg.SubjectsPath,
		InputSHA256:     pf.InputSHA256,
		FindingsByCode:  make(map[model.FindingCode]int),
	}
	if pool != nil {
		summary.RunID = pf.RunID.String()
	}
	if pf.AlreadyPersisted {
		log.Info().
			Str("run_id", summary.RunID).
			Str("sha256", pf.InputSHA256).
			Msg("input already derived and persisted, skipping (use --force to re-derive)")
		summary.AlreadyPersisted = true
		summary.DurationTotal = time.Since(totalStart)
		return &Report{Summary: summary}, nil
	}

	fail := func(phase string, err error) (*Report, error) {
		if pool != nil {
			if uerr := UpdateStatus(ctx, pool, pf.RunID, StatusFailed); uerr != nil {
				log.Warn().Err(uerr).Msg("could not mark run failed")
			}
		}
		return nil, &PipelineError{Phase: phase, Err: err}
	}
	setStatus := func(status string) error {
		if pool == nil {
			return nil
		}
		return UpdateStatus(ctx, pool, pf.RunID, status)
	}

	if err := setStatus(StatusDeriving); err != nil {
		return fail(PhaseRead, err)
	}
	start := time.Now()
	in, err := ReadInputs(cfg.AssessmentsPath, cfg.SubjectsPath)
	if err != nil {
		return fail(PhaseRead, err)
	}
	summary.DurationRead = time.Since(start)
	log.Info().
		Int("assessment_rows", len(in.Assessments)).
		Int("subject_rows", len(in.Subjects)).
		Dur("duration", summary.DurationRead).
		Msg("inputs read")

	start = time.Now()
	out, err := Derive(ctx, log, cfg, in)
	if err != nil {
		return fail(PhaseDerive, err)
	}
	summary.DurationDerive = time.Since(start)
	cohort, err := report.Build(out.BORs, out.Responses, out.Events)
	if err != nil {
		return fail(PhaseDerive, err)
	}
	fillSummary(summary, out)
	log.Info().
		Int("subjects", out.Subjects).
		Int("subjects_rejected", out.SubjectsRejected).
		Int("responses", len(out.Responses)).
		Int("warnings", summary.Warnings).
		Int("errors", summary.Errors).
		Str("output_sha256", out.Digest).
		Dur("duration", summary.DurationDerive).
		Msg("derivation complete")

	if cfg.OutDir != "" {
		dur, err := WriteOutputs(log, cfg.OutDir, cfg.StudyID, out)
		if err != nil {
			return fail(PhaseWrite, err)
		}
		summary.DurationWrite = dur
	}

	if pool != nil {
		if err := setStatus(StatusPersisting); err != nil {
			return fail(PhasePersist, err)
		}
		pr, err := Persist(ctx, pool, log, pf.RunID, out)
		if err != nil {
			return fail(PhasePersist, err)
		}
		summary.RowsPersisted = pr.RowsPersisted
		summary.DurationPersist = pr.Duration
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_rejected", summary.RowsRejected).
		Int64("rows_persisted", summary.RowsPersisted).
		Dur("total_duration", summary.DurationTotal).
		Msg("derive pipeline complete")

	return &Report{Summary: summary, Output: out, Cohort: cohort}, nil
}

// Plan derives everything in memory without writing files or touching a
// database.
func Plan(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*Report, error) {
	dry := *cfg
	dry.OutDir = ""
	return Run(ctx, nil, log, &dry)
}

func fillSummary(s *model.RunSummary, out *Output) {
	s.OutputSHA256 = out.Digest
	s.RowsRead = out.RowsRead
	s.RowsRejected = out.RowsRejected
	s.Subjects = out.Subjects
	s.SubjectsRejected = out.SubjectsRejected
	s.ResponseRecords = len(out.Responses)
	s.BORRecords = len(out.BORs)
	s.EventRecords = len(out.Events)
	for _, f := range out.Findings {
		s.FindingsByCode[f.Code]++
		if f.Severity == model.SeverityError {
			s.Errors++
		} else {
			s.Warnings++
		}
	}
}
