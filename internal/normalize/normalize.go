package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
)

// ToAssessment converts an input AssessmentRow into a normalized Assessment.
// refStart is the subject's first-dose date and is only needed when the row
// carries no study day; it may be nil otherwise.
func ToAssessment(row *model.AssessmentRow, rowNum int64, refStart *time.Time) (model.Assessment, error) {
	a := model.Assessment{
		SubjectID: NormalizeSubjectID(row.SubjectID),
		LesionID:  strings.TrimSpace(derefStr(row.LesionID)),
		Visit:     strings.TrimSpace(derefStr(row.Visit)),
		Value:     row.Value,
		SourceRow: rowNum,
	}
	if a.SubjectID == "" {
		return a, fmt.Errorf("row %d: subject_id is empty", rowNum)
	}

	param, ok := model.ParameterByCode(row.ParameterCode)
	if !ok {
		return a, fmt.Errorf("row %d: unknown parameter_code %q", rowNum, row.ParameterCode)
	}
	a.Param = param.Code

	date := ParseDate(row.VisitDate)
	if date == nil {
		return a, fmt.Errorf("row %d: unparseable visit_date %q", rowNum, row.VisitDate)
	}
	a.Date = *date

	switch {
	case row.StudyDay != nil:
		if *row.StudyDay == 0 {
			return a, fmt.Errorf("row %d: study_day 0 is not a valid study day", rowNum)
		}
		a.StudyDay = int(*row.StudyDay)
	case refStart != nil:
		a.StudyDay = StudyDay(a.Date, *refStart)
	default:
		return a, fmt.Errorf("row %d: study_day missing and no reference start date for subject %s", rowNum, a.SubjectID)
	}

	if a.Value != nil && !param.Quantitative && a.Param != model.ParamNonTargetLesion {
		return a, fmt.Errorf("row %d: parameter %s does not accept a numeric value", rowNum, a.Param)
	}

	q, ok := ParseQualitative(row.QualitativeValue)
	if !ok {
		return a, fmt.Errorf("row %d: unknown qualitative_value %q", rowNum, derefStr(row.QualitativeValue))
	}
	a.Qualitative = q

	if row.IsNewLesion != nil {
		a.NewLesion = *row.IsNewLesion
	}
	if a.Param == model.ParamNewLesion && q == model.QualYes {
		a.NewLesion = true
	}
	return a, nil
}

// ToSubject converts an input SubjectRow into a normalized Subject.
func ToSubject(row *model.SubjectRow) (model.Subject, error) {
	s := model.Subject{
		SubjectID:             NormalizeSubjectID(row.SubjectID),
		Death:                 ParseDatePtr(row.DeathDate),
		NewTherapy:            ParseDatePtr(row.NewTherapyDate),
		Discontinued:          ParseDatePtr(row.DiscontinuationDate),
		DiscontinuationReason: strings.ToUpper(strings.TrimSpace(derefStr(row.DiscontinuationReason))),
	}
	if s.SubjectID == "" {
		return s, fmt.Errorf("subject_id is empty")
	}
	first := ParseDate(row.FirstDoseDate)
	if first == nil {
		return s, fmt.Errorf("subject %s: unparseable first_dose_date %q", s.SubjectID, row.FirstDoseDate)
	}
	s.FirstDose = *first
	for name, v := range map[string]*string{
		"death_date":           row.DeathDate,
		"new_therapy_date":     row.NewTherapyDate,
		"discontinuation_date": row.DiscontinuationDate,
	} {
		if v != nil && strings.TrimSpace(*v) != "" && ParseDate(*v) == nil {
			return s, fmt.Errorf("subject %s: unparseable %s %q", s.SubjectID, name, *v)
		}
	}
	return s, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
