package recist

import (
	"fmt"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
)

// BOR is the best overall response of one subject.
type BOR struct {
	Response         model.OverallResponse
	Confirmed        bool
	Date             *time.Time
	StudyDay         *int
	ConfirmationDate *time.Time
	Basis            string
}

// borClass is one rank of the best-response ordering.
type borClass struct {
	name      string
	outcome   model.OverallResponse
	confirmed bool
	qualifies func(a Assessed, c Confirmation, sdMinDays int) bool
}

// borClasses are listed best first; the earliest qualifying visit of the
// first class with any qualifying visit is the best response.
var borClasses = []borClass{
	{
		name:      "confirmed CR",
		outcome:   model.OverallCR,
		confirmed: true,
		qualifies: func(a Assessed, c Confirmation, _ int) bool { return a.Response == model.OverallCR && c.Confirmed },
	},
	{
		name:      "unconfirmed CR",
		outcome:   model.OverallCR,
		qualifies: func(a Assessed, _ Confirmation, _ int) bool { return a.Response == model.OverallCR },
	},
	{
		name:      "confirmed PR",
		outcome:   model.OverallPR,
		confirmed: true,
		qualifies: func(a Assessed, c Confirmation, _ int) bool { return a.Response == model.OverallPR && c.Confirmed },
	},
	{
		name:      "unconfirmed PR",
		outcome:   model.OverallPR,
		qualifies: func(a Assessed, _ Confirmation, _ int) bool { return a.Response == model.OverallPR },
	},
	{
		name:    "SD meeting minimum duration",
		outcome: model.OverallSD,
		qualifies: func(a Assessed, _ Confirmation, sdMinDays int) bool {
			return a.Response == model.OverallSD && a.SinceBaseline >= sdMinDays
		},
	},
	{
		name:      "PD",
		outcome:   model.OverallPD,
		qualifies: func(a Assessed, _ Confirmation, _ int) bool { return a.Response == model.OverallPD },
	},
	{
		name:      "not evaluable",
		outcome:   model.OverallNE,
		qualifies: func(Assessed, Confirmation, int) bool { return true },
	},
}

// BestOverall resolves the best overall response from a subject's
// post-baseline responses. Assessments after newTherapy and after the first
// PD are not considered. SD qualifies once sdMinDays have elapsed since the
// baseline assessment.
func BestOverall(seq []Assessed, newTherapy *time.Time, confirmLo, confirmHi, sdMinDays int) BOR {
	var eligible []Assessed
	for _, a := range seq {
		if newTherapy != nil && a.Date.After(*newTherapy) {
			break
		}
		eligible = append(eligible, a)
		if a.Response == model.OverallPD {
			break
		}
	}
	if len(eligible) == 0 {
		basis := "no post-baseline assessments"
		if len(seq) > 0 {
			basis = "no assessments before subsequent therapy"
		}
		return BOR{Response: model.OverallNE, Basis: basis}
	}

	conf := Confirm(eligible, confirmLo, confirmHi)
	for _, class := range borClasses {
		for i, a := range eligible {
			if !class.qualifies(a, conf[i], sdMinDays) {
				continue
			}
			date := a.Date
			day := a.StudyDay
			bor := BOR{
				Response:  class.outcome,
				Confirmed: class.confirmed,
				Date:      &date,
				StudyDay:  &day,
				Basis:     fmt.Sprintf("%s on day %d", class.name, a.StudyDay),
			}
			if class.confirmed {
				bor.ConfirmationDate = conf[i].Date
				bor.Basis += fmt.Sprintf(", confirmed on %s", model.FormatDate(*conf[i].Date))
			}
			if class.outcome == model.OverallNE {
				bor.Date, bor.StudyDay = nil, nil
				bor.Basis = notEvaluableBasis(eligible, sdMinDays)
			}
			return bor
		}
	}
	return BOR{Response: model.OverallNE, Basis: "no qualifying assessments"}
}

func notEvaluableBasis(eligible []Assessed, sdMinDays int) string {
	for _, a := range eligible {
		if a.Response == model.OverallSD {
			return fmt.Sprintf("SD less than %d days after baseline does not meet the minimum duration", sdMinDays)
		}
	}
	return "all post-baseline assessments not evaluable"
}
