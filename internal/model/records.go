package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO 8601 calendar date layout used on every output record.
const DateLayout = "2006-01-02"

// ResponseRecord is one derived response per subject, parameter and visit.
// Numeric derivations are nil when undefined (for example when the baseline is
// missing); they are never defaulted to zero.
type ResponseRecord struct {
	RunID uuid.UUID `parquet:"-" json:"-"`

	SubjectID     string `parquet:"subject_id"`
	ParameterCode string `parquet:"parameter_code"`
	Seq           int32  `parquet:"seq"`
	Visit         string `parquet:"visit"`
	VisitDate     string `parquet:"visit_date"`
	StudyDay      int32  `parquet:"study_day"`

	ResponseCode      string `parquet:"response_code"`
	TargetResponse    string `parquet:"target_response"`
	NonTargetResponse string `parquet:"non_target_response"`
	NewLesion         bool   `parquet:"new_lesion"`

	CritTargetPD     bool   `parquet:"crit_target_pd"`
	CritTargetPD25mm bool   `parquet:"crit_target_pd_25mm"`
	CritNonTargetPD  bool   `parquet:"crit_non_target_pd"`
	CritNewLesionPD  bool   `parquet:"crit_new_lesion_pd"`
	Justification    string `parquet:"justification"`

	Value                     *float64 `parquet:"value,optional"`
	BaselineValue             *float64 `parquet:"baseline_value,optional"`
	NadirValue                *float64 `parquet:"nadir_value,optional"`
	ChangeFromBaseline        *float64 `parquet:"change_from_baseline,optional"`
	PercentChangeFromBaseline *float64 `parquet:"percent_change_from_baseline,optional"`
	ChangeFromNadir           *float64 `parquet:"change_from_nadir,optional"`
	PercentChangeFromNadir    *float64 `parquet:"percent_change_from_nadir,optional"`

	Confirmed         bool    `parquet:"confirmed"`
	ConfirmationDate  *string `parquet:"confirmation_date,optional"`
	Pseudoprogression bool    `parquet:"pseudoprogression"`
	Violation         *string `parquet:"violation,optional"`
}

// ResponseColumns returns the ordered column names for COPY into resp.response_records.
func ResponseColumns() []string {
	return []string{
		"run_id", "subject_id", "parameter_code", "seq", "visit", "visit_date", "study_day",
		"response_code", "target_response", "non_target_response", "new_lesion",
		"crit_target_pd", "crit_target_pd_25mm", "crit_non_target_pd", "crit_new_lesion_pd", "justification",
		"value", "baseline_value", "nadir_value", "change_from_baseline", "percent_change_from_baseline",
		"change_from_nadir", "percent_change_from_nadir",
		"confirmed", "confirmation_date", "pseudoprogression", "violation",
	}
}

// CopyValues returns the row values in the same order as ResponseColumns().
func (r *ResponseRecord) CopyValues() []any {
	return []any{
		r.RunID, r.SubjectID, r.ParameterCode, r.Seq, r.Visit, copyDate(r.VisitDate), r.StudyDay,
		r.ResponseCode, r.TargetResponse, r.NonTargetResponse, r.NewLesion,
		r.CritTargetPD, r.CritTargetPD25mm, r.CritNonTargetPD, r.CritNewLesionPD, r.Justification,
		r.Value, r.BaselineValue, r.NadirValue, r.ChangeFromBaseline, r.PercentChangeFromBaseline,
		r.ChangeFromNadir, r.PercentChangeFromNadir,
		r.Confirmed, copyDatePtr(r.ConfirmationDate), r.Pseudoprogression, r.Violation,
	}
}

// AnyPDCriterion reports whether any progression criterion flag is set.
func (r *ResponseRecord) AnyPDCriterion() bool {
	return r.CritTargetPD || r.CritNonTargetPD || r.CritNewLesionPD
}

// BORRecord is the best response resolved for one subject.
type BORRecord struct {
	RunID uuid.UUID `parquet:"-" json:"-"`

	SubjectID        string  `parquet:"subject_id"`
	ParameterCode    string  `parquet:"parameter_code"`
	BORCode          string  `parquet:"bor_code"`
	BORDate          *string `parquet:"bor_date,optional"`
	StudyDay         *int32  `parquet:"study_day,optional"`
	Confirmed        bool    `parquet:"confirmed"`
	ConfirmationDate *string `parquet:"confirmation_date,optional"`
	Basis            string  `parquet:"basis_description"`
}

// BORColumns returns the ordered column names for COPY into resp.bor_records.
func BORColumns() []string {
	return []string{
		"run_id", "subject_id", "parameter_code", "bor_code", "bor_date", "study_day",
		"confirmed", "confirmation_date", "basis_description",
	}
}

// CopyValues returns the row values in the same order as BORColumns().
func (r *BORRecord) CopyValues() []any {
	return []any{
		r.RunID, r.SubjectID, r.ParameterCode, r.BORCode, copyDatePtr(r.BORDate), r.StudyDay,
		r.Confirmed, copyDatePtr(r.ConfirmationDate), r.Basis,
	}
}

// EventRecord is one time-to-event outcome per subject and endpoint.
// EventIndicator follows the CNSR convention: 0 = event, 1 = censored.
type EventRecord struct {
	RunID uuid.UUID `parquet:"-" json:"-"`

	SubjectID      string `parquet:"subject_id"`
	EndpointCode   string `parquet:"endpoint_code"`
	EventIndicator int32  `parquet:"event_indicator"`
	StartDate      string `parquet:"start_date"`
	EventDate      string `parquet:"event_date"`
	StudyDay       int32  `parquet:"study_day"`
	CensorReason   string `parquet:"censoring_reason_code"`
	TimingCategory string `parquet:"censoring_timing_category"`
	Description    string `parquet:"description"`
}

// EventColumns returns the ordered column names for COPY into resp.event_records.
func EventColumns() []string {
	return []string{
		"run_id", "subject_id", "endpoint_code", "event_indicator", "start_date", "event_date",
		"study_day", "censoring_reason_code", "censoring_timing_category", "description",
	}
}

// CopyValues returns the row values in the same order as EventColumns().
func (r *EventRecord) CopyValues() []any {
	return []any{
		r.RunID, r.SubjectID, r.EndpointCode, r.EventIndicator, copyDate(r.StartDate), copyDate(r.EventDate),
		r.StudyDay, r.CensorReason, r.TimingCategory, r.Description,
	}
}

// FindingRecord is the persisted form of a Finding.
type FindingRecord struct {
	RunID uuid.UUID `parquet:"-" json:"-"`

	SubjectID     string  `parquet:"subject_id"`
	ParameterCode string  `parquet:"parameter_code"`
	FindingDate   *string `parquet:"finding_date,optional"`
	Severity      string  `parquet:"severity"`
	Code          string  `parquet:"code"`
	Message       string  `parquet:"message"`
}

// FindingColumns returns the ordered column names for COPY into resp.findings.
func FindingColumns() []string {
	return []string{"run_id", "subject_id", "parameter_code", "finding_date", "severity", "code", "message"}
}

// CopyValues returns the row values in the same order as FindingColumns().
func (r *FindingRecord) CopyValues() []any {
	return []any{r.RunID, r.SubjectID, r.ParameterCode, copyDatePtr(r.FindingDate), r.Severity, r.Code, r.Message}
}

// Record converts a Finding into its persisted form.
func (f Finding) Record() FindingRecord {
	return FindingRecord{
		SubjectID:     f.SubjectID,
		ParameterCode: string(f.ParameterCode),
		FindingDate:   FormatDatePtr(f.Date),
		Severity:      string(f.Severity),
		Code:          string(f.Code),
		Message:       f.Message,
	}
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDatePtr renders t in DateLayout, or nil when t is nil.
func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// copyDate converts an ISO date for a COPY into a date column. Unparseable
// text becomes NULL.
func copyDate(s string) any {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

func copyDatePtr(s *string) any {
	if s == nil {
		return nil
	}
	return copyDate(*s)
}
