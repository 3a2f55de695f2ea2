package recist

import "fmt"

// DetectNewLesion reports whether an unequivocal new lesion was recorded at the visit.
func DetectNewLesion(m VisitMeasure) (bool, string) {
	switch {
	case m.NewLesion:
		return true, fmt.Sprintf("new lesion on day %d", m.StudyDay)
	case m.EquivocalNewLesion:
		return false, "equivocal new lesion"
	}
	return false, ""
}
