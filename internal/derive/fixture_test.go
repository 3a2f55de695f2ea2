package derive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/parquetio"
)

func ptr[T any](v T) *T { return &v }

// fixtureRows is a three-subject cohort: S1 responds then progresses, S2 has
// no assessments and S3 has no subject record. One row is malformed.
func fixtureRows() []model.AssessmentRow {
	tl := func(subj, visit, date, lesion string, v float64) model.AssessmentRow {
		return model.AssessmentRow{SubjectID: subj, ParameterCode: "TL", LesionID: ptr(lesion), Visit: ptr(visit), VisitDate: date, Value: ptr(v)}
	}
	ntl := func(visit, date string) model.AssessmentRow {
		return model.AssessmentRow{SubjectID: "S1", ParameterCode: "NTL", LesionID: ptr("N1"), Visit: ptr(visit), VisitDate: date, QualitativeValue: ptr("PRESENT")}
	}
	s3 := func(visit, date string, day int32, v float64) model.AssessmentRow {
		r := tl("S3", visit, date, "L1", v)
		r.StudyDay = ptr(day)
		return r
	}
	return []model.AssessmentRow{
		tl("S1", "BASELINE", "2024-01-05", "L1", 30), tl("S1", "BASELINE", "2024-01-05", "L2", 20), ntl("BASELINE", "2024-01-05"),
		tl("S1", "WEEK 6", "2024-02-21", "L1", 20), tl("S1", "WEEK 6", "2024-02-21", "L2", 10), ntl("WEEK 6", "2024-02-21"),
		tl("S1", "WEEK 12", "2024-04-03", "L1", 18), tl("S1", "WEEK 12", "2024-04-03", "L2", 10), ntl("WEEK 12", "2024-04-03"),
		tl("S1", "WEEK 18", "2024-05-15", "L1", 25), tl("S1", "WEEK 18", "2024-05-15", "L2", 15), ntl("WEEK 18", "2024-05-15"),
		s3("SCREENING", "2024-02-01", -3, 40),
		s3("WEEK 6", "2024-03-19", 43, 40),
		{SubjectID: "S3", ParameterCode: "XYZ", VisitDate: "2024-03-19", StudyDay: ptr(int32(43))},
	}
}

const fixtureSubjects = "subject_id,first_dose_date,death_date,new_therapy_date,discontinuation_date,discontinuation_reason\n" +
	"S1,2024-01-10,,,,\n" +
	"S2,2024-01-12,,,2024-03-01,WITHDREW CONSENT\n"

// writeFixture writes the cohort to a temp dir and returns a run config for it.
func writeFixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	assessments := filepath.Join(dir, "assessments.parquet")
	require.NoError(t, parquetio.WriteFile(assessments, fixtureRows()))
	subjects := filepath.Join(dir, "subjects.csv")
	require.NoError(t, os.WriteFile(subjects, []byte(fixtureSubjects), 0o644))

	return &config.Config{
		AssessmentsPath: assessments,
		SubjectsPath:    subjects,
		StudyID:         "ONC-001",
		LogFormat:       "text",
		Derivation:      config.DefaultDerivation(),
	}
}
