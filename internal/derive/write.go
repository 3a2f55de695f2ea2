package derive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/oncoresp/internal/conform"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/parquetio"
	"github.com/gyeh/oncoresp/internal/sheetio"
)

// Files written to the output directory.
const (
	ResponsesFile = "responses.parquet"
	BORFile       = "bor.parquet"
	EventsFile    = "events.parquet"
	FindingsFile  = "findings.parquet"
	ReviewFile    = "review.xlsx"
)

// WriteOutputs writes the run's records as Parquet files, plus an xlsx
// review workbook holding the RS listing, best responses and findings.
func WriteOutputs(log zerolog.Logger, dir, studyID string, out *Output) (time.Duration, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	if err := parquetio.WriteFile(filepath.Join(dir, ResponsesFile), out.Responses); err != nil {
		return 0, fmt.Errorf("write responses: %w", err)
	}
	if err := parquetio.WriteFile(filepath.Join(dir, BORFile), out.BORs); err != nil {
		return 0, fmt.Errorf("write best responses: %w", err)
	}
	if err := parquetio.WriteFile(filepath.Join(dir, EventsFile), out.Events); err != nil {
		return 0, fmt.Errorf("write events: %w", err)
	}
	if err := parquetio.WriteFile(filepath.Join(dir, FindingsFile), out.FindingRecords()); err != nil {
		return 0, fmt.Errorf("write findings: %w", err)
	}
	if err := sheetio.WriteWorkbook(filepath.Join(dir, ReviewFile), reviewSheets(studyID, out)...); err != nil {
		return 0, fmt.Errorf("write review workbook: %w", err)
	}

	dur := time.Since(start)
	log.Info().
		Str("dir", dir).
		Int("responses", len(out.Responses)).
		Int("bor", len(out.BORs)).
		Int("events", len(out.Events)).
		Int("findings", len(out.Findings)).
		Dur("duration", dur).
		Msg("outputs written")
	return dur, nil
}

func reviewSheets(studyID string, out *Output) []sheetio.Sheet {
	rs := sheetio.Sheet{Name: conform.Domain, Header: conform.Names()}
	for _, r := range conform.FromResponses(studyID, out.Responses) {
		rs.Rows = append(rs.Rows, r.Values())
	}

	bor := sheetio.Sheet{
		Name:   "BOR",
		Header: []string{"subject_id", "parameter_code", "bor_code", "bor_date", "confirmed", "confirmation_date", "basis_description"},
	}
	for _, b := range out.BORs {
		bor.Rows = append(bor.Rows, []any{b.SubjectID, b.ParameterCode, b.BORCode, deref(b.BORDate), b.Confirmed, deref(b.ConfirmationDate), b.Basis})
	}

	events := sheetio.Sheet{
		Name:   "Events",
		Header: []string{"subject_id", "endpoint_code", "event_indicator", "event_date", "study_day", "censoring_reason_code", "censoring_timing_category"},
	}
	for _, e := range out.Events {
		events.Rows = append(events.Rows, []any{e.SubjectID, e.EndpointCode, e.EventIndicator, e.EventDate, e.StudyDay, e.CensorReason, e.TimingCategory})
	}

	findings := sheetio.Sheet{
		Name:   "Findings",
		Header: []string{"subject_id", "parameter_code", "finding_date", "severity", "code", "message"},
	}
	for _, f := range out.Findings {
		findings.Rows = append(findings.Rows, []any{f.SubjectID, string(f.ParameterCode), deref(model.FormatDatePtr(f.Date)), string(f.Severity), string(f.Code), f.Message})
	}
	return []sheetio.Sheet{rs, bor, events, findings}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
