package recist

import "github.com/gyeh/oncoresp/internal/model"

// ClassifyNonTarget aggregates the qualitative assessments of all non-target
// lesions at one visit. Only explicit progression calls yield PD.
func ClassifyNonTarget(values []model.Qualitative) (model.NonTargetResponse, string) {
	if len(values) == 0 {
		return model.NonTargetNotAssessed, "no non-target lesions"
	}
	var present, missing bool
	for _, v := range values {
		switch v {
		case model.QualProgression:
			return model.NonTargetPD, "unequivocal progression of non-target disease"
		case model.QualPresent:
			present = true
		case model.QualAbsent:
		default:
			missing = true
		}
	}
	switch {
	case missing:
		return model.NonTargetNE, "non-target lesions not all evaluated"
	case present:
		return model.NonTargetNonCRNonPD, "persistence of non-target lesions"
	default:
		return model.NonTargetCR, "all non-target lesions absent"
	}
}
