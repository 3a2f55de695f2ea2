package derive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	embedsql "github.com/gyeh/oncoresp/internal/sql"
)

// Run registry statuses.
const (
	StatusPending    = "pending"
	StatusDeriving   = "deriving"
	StatusPersisting = "persisting"
	StatusPersisted  = "persisted"
	StatusFailed     = "failed"
)

// registerRun records a run keyed by its input digest. An identical input
// that was already persisted is reported as such unless force is set, in
// which case the earlier run and its records are replaced.
func registerRun(ctx context.Context, pool *pgxpool.Pool, inputSHA, assessmentsPath, subjectsPath string, force bool) (uuid.UUID, bool, error) {
	id := uuid.New()
	assessments := filepath.Base(assessmentsPath)
	subjects := nilIfEmpty(subjectsPath)
	if subjects != nil {
		base := filepath.Base(*subjects)
		subjects = &base
	}

	var got uuid.UUID
	err := pool.QueryRow(ctx, embedsql.RegisterRun, id, inputSHA, assessments, subjects).Scan(&got)
	if err == nil {
		return got, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, fmt.Errorf("register run: %w", err)
	}

	// ON CONFLICT DO NOTHING returned no row: the input was seen before.
	var (
		existing uuid.UUID
		status   string
		output   *string
	)
	if err := pool.QueryRow(ctx, embedsql.LookupRun, inputSHA).Scan(&existing, &status, &output); err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup existing run: %w", err)
	}
	if !force && status == StatusPersisted {
		return existing, true, nil
	}

	if _, err := pool.Exec(ctx, embedsql.DeleteRun, existing); err != nil {
		return uuid.Nil, false, fmt.Errorf("delete earlier run %s: %w", existing, err)
	}
	if err := pool.QueryRow(ctx, embedsql.RegisterRun, id, inputSHA, assessments, subjects).Scan(&got); err != nil {
		return uuid.Nil, false, fmt.Errorf("re-register run: %w", err)
	}
	return got, false, nil
}

// UpdateStatus sets the status of a registered run.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, status string) error {
	if _, err := pool.Exec(ctx, embedsql.UpdateRunStatus, runID, status); err != nil {
		return fmt.Errorf("update run %s to %s: %w", runID, status, err)
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
