package derive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/parquetio"
	"github.com/gyeh/oncoresp/internal/sheetio"
)

// Inputs are the raw rows of one run.
type Inputs struct {
	Assessments []model.AssessmentRow
	Subjects    []model.SubjectRow
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

// ReadInputs reads the assessment file and, when given, the subject file.
// Parquet, xlsx and CSV are accepted.
func ReadInputs(assessmentsPath, subjectsPath string) (*Inputs, error) {
	in := &Inputs{}
	var err error
	if isParquet(assessmentsPath) {
		in.Assessments, err = parquetio.ReadAll[model.AssessmentRow](assessmentsPath, model.AssessmentColumns())
	} else {
		in.Assessments, err = readSheet(assessmentsPath, (*sheetio.Table).AssessmentRows)
	}
	if err != nil {
		return nil, fmt.Errorf("read assessments: %w", err)
	}

	if subjectsPath == "" {
		return in, nil
	}
	if isParquet(subjectsPath) {
		in.Subjects, err = parquetio.ReadAll[model.SubjectRow](subjectsPath, model.SubjectColumns())
	} else {
		in.Subjects, err = readSheet(subjectsPath, (*sheetio.Table).SubjectRows)
	}
	if err != nil {
		return nil, fmt.Errorf("read subjects: %w", err)
	}
	return in, nil
}

func readSheet[T any](path string, convert func(*sheetio.Table) ([]T, error)) ([]T, error) {
	t, err := sheetio.ReadTable(path)
	if err != nil {
		return nil, err
	}
	rows, err := convert(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// checkInput verifies the required columns of one input and returns its row count.
func checkInput[T any](path string, required []string) (int64, error) {
	if isParquet(path) {
		r, err := parquetio.Open[T](path)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		if err := parquetio.ValidateSchema(r.Schema(), required); err != nil {
			return 0, err
		}
		return r.NumRows(), nil
	}
	t, err := sheetio.ReadTable(path)
	if err != nil {
		return 0, err
	}
	if err := t.Validate(required); err != nil {
		return 0, err
	}
	return int64(len(t.Rows)), nil
}
