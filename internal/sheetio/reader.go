// Package sheetio reads the assessment and subject inputs from xlsx or CSV
// files and writes review listings as xlsx.
package sheetio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/oncoresp/internal/model"
)

// Table is a header row plus data rows, with columns addressed by name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ReadTable reads the first sheet of an xlsx file or a CSV file, chosen by extension.
func ReadTable(path string) (*Table, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no header row", path)
	}

	t := &Table{Header: rows[0], Rows: rows[1:], index: make(map[string]int)}
	for i, h := range t.Header {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return t, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}
	return rows, nil
}

// Validate checks that the required columns exist.
func (t *Table) Validate(required []string) error {
	var missing []string
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value of a named column, or "" when the column
// is absent or the row is short.
func (t *Table) cell(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *Table) optional(row []string, col string) *string {
	if v := t.cell(row, col); v != "" {
		return &v
	}
	return nil
}

// AssessmentRows converts the table into assessment rows.
func (t *Table) AssessmentRows() ([]model.AssessmentRow, error) {
	if err := t.Validate(model.AssessmentColumns()); err != nil {
		return nil, err
	}
	out := make([]model.AssessmentRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		line := i + 2
		r := model.AssessmentRow{
			SubjectID:        t.cell(row, "subject_id"),
			ParameterCode:    t.cell(row, "parameter_code"),
			LesionID:         t.optional(row, "lesion_id"),
			Visit:            t.optional(row, "visit"),
			VisitDate:        t.cell(row, "visit_date"),
			QualitativeValue: t.optional(row, "qualitative_value"),
		}
		if s := t.cell(row, "study_day"); s != "" {
			d, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("row %d: study_day %q: %w", line, s, err)
			}
			day := int32(d)
			r.StudyDay = &day
		}
		if s := t.cell(row, "value"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: value %q: %w", line, s, err)
			}
			r.Value = &v
		}
		if s := t.cell(row, "is_new_lesion"); s != "" {
			b, err := parseBool(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: is_new_lesion: %w", line, err)
			}
			r.IsNewLesion = &b
		}
		out = append(out, r)
	}
	return out, nil
}

// SubjectRows converts the table into subject rows.
func (t *Table) SubjectRows() ([]model.SubjectRow, error) {
	if err := t.Validate(model.SubjectColumns()); err != nil {
		return nil, err
	}
	out := make([]model.SubjectRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.SubjectRow{
			SubjectID:             t.cell(row, "subject_id"),
			FirstDoseDate:         t.cell(row, "first_dose_date"),
			DeathDate:             t.optional(row, "death_date"),
			NewTherapyDate:        t.optional(row, "new_therapy_date"),
			DiscontinuationDate:   t.optional(row, "discontinuation_date"),
			DiscontinuationReason: t.optional(row, "discontinuation_reason"),
		})
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "Y", "YES", "TRUE", "1":
		return true, nil
	case "N", "NO", "FALSE", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
