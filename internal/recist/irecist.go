package recist

import (
	"fmt"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
)

// ImmuneAssessment is the iRECIST reading of one visit.
type ImmuneAssessment struct {
	Response model.ImmuneResponse
	// Pseudoprogression marks an iUPD later superseded by CR/PR/SD.
	Pseudoprogression bool
	// ConfirmedBy is the date of the visit that confirmed an iUPD as iCPD.
	ConfirmedBy   *time.Time
	Justification string
}

var immuneOf = map[model.OverallResponse]model.ImmuneResponse{
	model.OverallCR: model.ImmuneCR,
	model.OverallPR: model.ImmunePR,
	model.OverallSD: model.ImmuneSD,
	model.OverallNE: model.ImmuneNE,
}

// immuneState is threaded through the iRECIST scan.
type immuneState struct {
	pending   int // index of the open iUPD, -1 when none
	confirmed bool
}

// ApplyIRECIST re-reads a subject's overall responses under iRECIST. A first
// PD opens an unconfirmed progression (iUPD). The first evaluable assessment
// lo..hi days later either confirms it (iCPD) or, when it shows CR/PR/SD,
// marks the iUPD visit as pseudoprogression and resets the state.
func ApplyIRECIST(seq []Assessed, lo, hi int) []ImmuneAssessment {
	out := make([]ImmuneAssessment, len(seq))
	st := immuneState{pending: -1}
	for i, a := range seq {
		if st.pending >= 0 {
			p := seq[st.pending]
			gap := normalize.DaysBetween(p.Date, a.Date)
			if gap > hi {
				out[st.pending].Justification += fmt.Sprintf("; not confirmed within %d days", hi)
				st.pending = -1
			} else if gap >= lo && a.Response != model.OverallNE {
				if a.Response == model.OverallPD {
					d := a.Date
					out[st.pending].ConfirmedBy = &d
					out[i] = ImmuneAssessment{
						Response:      model.ImmuneCPD,
						Justification: fmt.Sprintf("PD %d days after iUPD on %s confirms progression", gap, model.FormatDate(p.Date)),
					}
					st.pending = -1
					st.confirmed = true
					continue
				}
				out[st.pending].Pseudoprogression = true
				out[st.pending].Justification += fmt.Sprintf("; pseudoprogression, superseded on %s", model.FormatDate(a.Date))
				out[i] = ImmuneAssessment{
					Response:      immuneOf[a.Response],
					Justification: fmt.Sprintf("%s %d days after iUPD on %s resets progression", a.Response, gap, model.FormatDate(p.Date)),
				}
				st.pending = -1
				continue
			}
		}

		switch {
		case a.Response != model.OverallPD:
			out[i] = ImmuneAssessment{Response: immuneOf[a.Response], Justification: a.Response.String() + " under RECIST 1.1"}
		case st.confirmed:
			out[i] = ImmuneAssessment{Response: model.ImmuneCPD, Justification: "progression after confirmed iCPD"}
		case st.pending >= 0:
			out[i] = ImmuneAssessment{Response: model.ImmuneUPD, Justification: "PD before the confirmation window opens"}
		default:
			out[i] = ImmuneAssessment{Response: model.ImmuneUPD, Justification: "first PD, unconfirmed progression"}
			st.pending = i
		}
	}
	return out
}
