package normalize

import (
	"regexp"
	"strings"

	"github.com/gyeh/oncoresp/internal/model"
)

var multiSpace = regexp.MustCompile(`\s+`)

// qualitativeValues maps upper-cased, whitespace-collapsed input text to its code.
var qualitativeValues = map[string]model.Qualitative{
	"ABSENT":                  model.QualAbsent,
	"NOT PRESENT":             model.QualAbsent,
	"PRESENT":                 model.QualPresent,
	"STABLE":                  model.QualPresent,
	"NON-CR/NON-PD":           model.QualPresent,
	"PROGRESSION":             model.QualProgression,
	"UNEQUIVOCAL PROGRESSION": model.QualProgression,
	"PD":                      model.QualProgression,
	"NOT EVALUABLE":           model.QualNotEvaluable,
	"NOT ASSESSED":            model.QualNotEvaluable,
	"NE":                      model.QualNotEvaluable,
	"EQUIVOCAL":               model.QualEquivocal,
	"Y":                       model.QualYes,
	"YES":                     model.QualYes,
	"N":                       model.QualNo,
	"NO":                      model.QualNo,
	"NEGATIVE":                model.QualNegative,
	"NEG":                     model.QualNegative,
	"POSITIVE":                model.QualPositive,
	"POS":                     model.QualPositive,
}

// ParseQualitative trims, uppercases and collapses whitespace, then maps the
// text onto the closed qualitative enumeration. Unknown text returns ok=false.
func ParseQualitative(v *string) (model.Qualitative, bool) {
	if v == nil {
		return model.QualMissing, true
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return model.QualMissing, true
	}
	s = multiSpace.ReplaceAllString(strings.ToUpper(s), " ")
	q, ok := qualitativeValues[s]
	return q, ok
}

// NormalizeSubjectID trims and collapses internal whitespace.
func NormalizeSubjectID(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}
