package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
)

// PreflightResult holds all context resolved before derivation starts.
type PreflightResult struct {
	// InputSHA256 covers both input files and the derivation config, so a
	// change to any of them is a new run.
	InputSHA256    string
	AssessmentRows int64
	SubjectRows    int64
	// RunID is uuid.Nil when the run is not persisted.
	RunID uuid.UUID
	// AlreadyPersisted is true when an identical input was persisted before
	// and force mode is off.
	AlreadyPersisted bool
}

// Preflight hashes the inputs, checks their columns and, when pool is
// non-nil, registers the run.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.InputHash(cfg.Derivation, cfg.AssessmentsPath, cfg.SubjectsPath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	pf := &PreflightResult{InputSHA256: sha}
	if pf.AssessmentRows, err = checkInput[model.AssessmentRow](cfg.AssessmentsPath, model.AssessmentColumns()); err != nil {
		return nil, fmt.Errorf("preflight assessments: %w", err)
	}
	if cfg.SubjectsPath != "" {
		if pf.SubjectRows, err = checkInput[model.SubjectRow](cfg.SubjectsPath, model.SubjectColumns()); err != nil {
			return nil, fmt.Errorf("preflight subjects: %w", err)
		}
	}

	log.Info().
		Str("assessments", cfg.AssessmentsPath).
		Str("subjects", cfg.SubjectsPath).
		Str("sha256", sha).
		Int64("assessment_rows", pf.AssessmentRows).
		Int64("subject_rows", pf.SubjectRows).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	if pool == nil {
		return pf, nil
	}
	pf.RunID, pf.AlreadyPersisted, err = registerRun(ctx, pool, sha, cfg.AssessmentsPath, cfg.SubjectsPath, cfg.Force)
	if err != nil {
		return nil, fmt.Errorf("preflight register run: %w", err)
	}
	return pf, nil
}
