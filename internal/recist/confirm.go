package recist

import (
	"time"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
)

// Assessed is one post-baseline overall response in date order.
type Assessed struct {
	Date     time.Time
	StudyDay int
	// SinceBaseline is the number of days elapsed since the baseline assessment.
	SinceBaseline int
	Response      model.OverallResponse
}

// Confirmation records whether a provisional CR/PR was confirmed and when.
type Confirmation struct {
	Confirmed bool
	Date      *time.Time
}

// Confirm scans the sequence forward and confirms each CR/PR by a later
// response of the same or better class falling lo..hi days after it. A PD in
// between drops every pending confirmation.
func Confirm(seq []Assessed, lo, hi int) []Confirmation {
	out := make([]Confirmation, len(seq))
	var pending []int
	for i, a := range seq {
		if a.Response == model.OverallPD {
			pending = pending[:0]
			continue
		}
		keep := pending[:0]
		for _, p := range pending {
			gap := normalize.DaysBetween(seq[p].Date, a.Date)
			switch {
			case gap > hi:
			case gap >= lo && a.Response >= seq[p].Response:
				d := a.Date
				out[p] = Confirmation{Confirmed: true, Date: &d}
			default:
				keep = append(keep, p)
			}
		}
		pending = keep
		if a.Response.Responder() {
			pending = append(pending, i)
		}
	}
	return out
}
