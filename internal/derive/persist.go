package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/oncoresp/internal/db"
	"github.com/gyeh/oncoresp/internal/model"
	embedsql "github.com/gyeh/oncoresp/internal/sql"
)

// PersistResult holds metrics from the persist phase.
type PersistResult struct {
	RowsPersisted int64
	Duration      time.Duration
}

// Persist COPY-loads every output record stamped with runID in a single
// transaction and marks the run persisted.
func Persist(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, runID uuid.UUID, out *Output) (*PersistResult, error) {
	start := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	responses := stamp(out.Responses, func(r *model.ResponseRecord) { r.RunID = runID })
	bors := stamp(out.BORs, func(r *model.BORRecord) { r.RunID = runID })
	events := stamp(out.Events, func(r *model.EventRecord) { r.RunID = runID })
	findings := stamp(out.FindingRecords(), func(r *model.FindingRecord) { r.RunID = runID })

	var total int64
	copies := []func() (int64, error){
		func() (int64, error) {
			return db.CopyRows(ctx, tx, pgx.Identifier{"resp", "response_records"}, model.ResponseColumns(), responses)
		},
		func() (int64, error) {
			return db.CopyRows(ctx, tx, pgx.Identifier{"resp", "bor_records"}, model.BORColumns(), bors)
		},
		func() (int64, error) {
			return db.CopyRows(ctx, tx, pgx.Identifier{"resp", "event_records"}, model.EventColumns(), events)
		},
		func() (int64, error) {
			return db.CopyRows(ctx, tx, pgx.Identifier{"resp", "findings"}, model.FindingColumns(), findings)
		},
	}
	for _, c := range copies {
		n, err := c()
		if err != nil {
			return nil, err
		}
		total += n
	}

	if _, err := tx.Exec(ctx, embedsql.CompleteRun, runID, out.Digest); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if _, err := pool.Exec(ctx, embedsql.AnalyzeRecords); err != nil {
		log.Warn().Err(err).Msg("analyze failed (non-fatal)")
	}

	dur := time.Since(start)
	log.Info().
		Str("run_id", runID.String()).
		Int64("rows_persisted", total).
		Dur("duration", dur).
		Float64("rows_per_sec", float64(total)/dur.Seconds()).
		Msg("persist complete")

	return &PersistResult{RowsPersisted: total, Duration: dur}, nil
}

// stamp copies rows into a pointer slice, applying set to each copy.
func stamp[T any](rows []T, set func(*T)) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		r := rows[i]
		set(&r)
		out[i] = &r
	}
	return out
}
