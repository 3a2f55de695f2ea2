package model

// AssessmentRow mirrors the Parquet schema for one subject-parameter-visit
// measurement. Optional columns map to pointers so that a missing value is
// never confused with zero.
type AssessmentRow struct {
	SubjectID        string   `parquet:"subject_id"`
	ParameterCode    string   `parquet:"parameter_code"`
	LesionID         *string  `parquet:"lesion_id,optional"`
	Visit            *string  `parquet:"visit,optional"`
	VisitDate        string   `parquet:"visit_date"`
	StudyDay         *int32   `parquet:"study_day,optional"`
	Value            *float64 `parquet:"value,optional"`
	QualitativeValue *string  `parquet:"qualitative_value,optional"`
	IsNewLesion      *bool    `parquet:"is_new_lesion,optional"`
}

// SubjectRow carries the subject-level dates needed for censoring.
type SubjectRow struct {
	SubjectID             string  `parquet:"subject_id"`
	FirstDoseDate         string  `parquet:"first_dose_date"`
	DeathDate             *string `parquet:"death_date,optional"`
	NewTherapyDate        *string `parquet:"new_therapy_date,optional"`
	DiscontinuationDate   *string `parquet:"discontinuation_date,optional"`
	DiscontinuationReason *string `parquet:"discontinuation_reason,optional"`
}

// AssessmentColumns lists the required input columns.
func AssessmentColumns() []string {
	return []string{"subject_id", "parameter_code", "visit_date"}
}

// SubjectColumns lists the required subject columns.
func SubjectColumns() []string {
	return []string{"subject_id", "first_dose_date"}
}
