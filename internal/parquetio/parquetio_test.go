package parquetio

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/model"
)

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(parquet.SchemaOf(model.AssessmentRow{}), model.AssessmentColumns()))
	assert.NoError(t, ValidateSchema(parquet.SchemaOf(model.SubjectRow{}), model.SubjectColumns()))

	err := ValidateSchema(parquet.SchemaOf(model.SubjectRow{}), model.AssessmentColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter_code")
	assert.Contains(t, err.Error(), "visit_date")
}

func TestWriteThenReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessments.parquet")
	v := 42.5
	lesion := "L1"
	rows := []model.AssessmentRow{
		{SubjectID: "S1", ParameterCode: "TL", LesionID: &lesion, VisitDate: "2024-01-05", Value: &v},
		{SubjectID: "S1", ParameterCode: "NTL", VisitDate: "2024-01-05"},
	}
	require.NoError(t, WriteFile(path, rows))

	got, err := ReadAll[model.AssessmentRow](path, model.AssessmentColumns())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Value)
	assert.Equal(t, 42.5, *got[0].Value)
	assert.Nil(t, got[1].Value, "missing values stay missing")
	assert.Nil(t, got[1].StudyDay)
}

func TestReadAll_MissingFile(t *testing.T) {
	_, err := ReadAll[model.SubjectRow](filepath.Join(t.TempDir(), "nope.parquet"), model.SubjectColumns())
	assert.Error(t, err)
}
