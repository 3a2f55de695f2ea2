// Package tte derives time-to-event outcomes (PFS, DOR) with a first-match
// censoring hierarchy.
package tte

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
)

// Endpoint codes.
const (
	EndpointPFS = "PFS"
	EndpointDOR = "DOR"
)

// Assessment is one post-baseline overall response.
type Assessment struct {
	Date     time.Time
	Response model.OverallResponse
}

// facts are the dated signals the censoring rules look at.
type facts struct {
	subject   model.Subject
	start     time.Time
	responses []Assessment
}

func (f *facts) firstPD() *time.Time {
	for _, a := range f.responses {
		if a.Response == model.OverallPD {
			d := a.Date
			return &d
		}
	}
	return nil
}

// lastAdequate returns the last CR/PR/SD on or before limit (nil: no limit).
func (f *facts) lastAdequate(limit *time.Time) *time.Time {
	var last *time.Time
	for _, a := range f.responses {
		if limit != nil && a.Date.After(*limit) {
			break
		}
		if a.Response == model.OverallPD {
			break
		}
		if a.Response.Evaluable() {
			d := a.Date
			last = &d
		}
	}
	return last
}

// beforeTherapy caps limit at the start of subsequent therapy; assessments
// taken on a new therapy are not adequate for the endpoint.
func (f *facts) beforeTherapy(limit *time.Time) *time.Time {
	nt := f.subject.NewTherapy
	if nt == nil || (limit != nil && limit.Before(*nt)) {
		return limit
	}
	return nt
}

// Rule is one level of the censoring hierarchy.
type Rule struct {
	Name   string
	Reason model.CensorReason
	// Resolve returns the event or censoring date when the rule applies.
	Resolve func(f *facts) (time.Time, string, bool)
}

// Rules is evaluated top-down; the first matching rule wins. Events always
// precede censoring regardless of how the dates are ordered.
var Rules = []Rule{
	{
		Name:   "progression",
		Reason: model.ReasonProgression,
		Resolve: func(f *facts) (time.Time, string, bool) {
			pd := f.firstPD()
			if pd == nil {
				return time.Time{}, "", false
			}
			if d := f.subject.Death; d != nil && pd.After(*d) {
				return time.Time{}, "", false
			}
			return *pd, "progressive disease", true
		},
	},
	{
		Name:   "death",
		Reason: model.ReasonDeath,
		Resolve: func(f *facts) (time.Time, string, bool) {
			if f.subject.Death == nil {
				return time.Time{}, "", false
			}
			return *f.subject.Death, "death without prior progression", true
		},
	},
	{
		Name:   "subsequent-therapy",
		Reason: model.ReasonSubsequentTx,
		Resolve: func(f *facts) (time.Time, string, bool) {
			nt := f.subject.NewTherapy
			if nt == nil {
				return time.Time{}, "", false
			}
			last := f.lastAdequate(nt)
			if last == nil || !nt.After(*last) {
				return time.Time{}, "", false
			}
			return *last, fmt.Sprintf("new anti-cancer therapy on %s", model.FormatDate(*nt)), true
		},
	},
	{
		Name:   "discontinuation",
		Reason: model.ReasonDiscontinuation,
		Resolve: func(f *facts) (time.Time, string, bool) {
			dc := f.subject.Discontinued
			if dc == nil || progressionOrDeath(f.subject.DiscontinuationReason) {
				return time.Time{}, "", false
			}
			last := f.lastAdequate(f.beforeTherapy(dc))
			if last == nil || !dc.After(*last) {
				return time.Time{}, "", false
			}
			reason := f.subject.DiscontinuationReason
			if reason == "" {
				reason = "unspecified reason"
			}
			return *last, fmt.Sprintf("discontinued on %s (%s)", model.FormatDate(*dc), reason), true
		},
	},
	{
		Name:   "last-assessment",
		Reason: model.ReasonLastAssessment,
		Resolve: func(f *facts) (time.Time, string, bool) {
			last := f.lastAdequate(f.beforeTherapy(nil))
			if last == nil {
				return time.Time{}, "", false
			}
			return *last, "last evaluable assessment", true
		},
	},
	{
		Name:   "no-post-baseline",
		Reason: model.ReasonNoPostBaseline,
		Resolve: func(f *facts) (time.Time, string, bool) {
			return f.start, "no evaluable post-baseline assessment", true
		},
	},
}

// Outcome is the resolved event or censoring of one endpoint.
type Outcome struct {
	Rule        string
	Reason      model.CensorReason
	Date        time.Time
	Description string
}

func resolve(f *facts) Outcome {
	for _, r := range Rules {
		if d, why, ok := r.Resolve(f); ok {
			return Outcome{Rule: r.Name, Reason: r.Reason, Date: d, Description: why}
		}
	}
	last := Rules[len(Rules)-1]
	return Outcome{Rule: last.Name, Reason: last.Reason, Date: f.start}
}

// PFS derives progression-free survival from first dose.
func PFS(s model.Subject, responses []Assessment, cfg config.Derivation) model.EventRecord {
	f := &facts{subject: s, start: s.FirstDose, responses: responses}
	return record(EndpointPFS, s, resolve(f), s.FirstDose, cfg)
}

// DOR derives duration of response for a confirmed responder from the onset
// of response. Only assessments on or after onset are considered.
func DOR(s model.Subject, responses []Assessment, onset time.Time, cfg config.Derivation) model.EventRecord {
	var after []Assessment
	for _, a := range responses {
		if !a.Date.Before(onset) {
			after = append(after, a)
		}
	}
	f := &facts{subject: s, start: onset, responses: after}
	return record(EndpointDOR, s, resolve(f), onset, cfg)
}

func record(endpoint string, s model.Subject, o Outcome, start time.Time, cfg config.Derivation) model.EventRecord {
	day := normalize.StudyDay(o.Date, s.FirstDose)
	indicator := int32(1)
	if o.Reason.IsEvent() {
		indicator = 0
	}
	return model.EventRecord{
		SubjectID:      s.SubjectID,
		EndpointCode:   endpoint,
		EventIndicator: indicator,
		StartDate:      model.FormatDate(start),
		EventDate:      model.FormatDate(o.Date),
		StudyDay:       int32(day),
		CensorReason:   o.Reason.String(),
		TimingCategory: Timing(normalize.DaysBetween(start, o.Date)+1, cfg).String(),
		Description:    fmt.Sprintf("%s: %s", o.Rule, o.Description),
	}
}

// Timing buckets the days from start to event or censoring. It is reporting
// only and never changes the outcome.
func Timing(days int, cfg config.Derivation) model.CensorTiming {
	switch {
	case days < cfg.EarlyCensorDays:
		return model.TimingEarly
	case days <= cfg.LateCensorDays:
		return model.TimingMid
	default:
		return model.TimingLate
	}
}

func progressionOrDeath(reason string) bool {
	u := strings.ToUpper(strings.TrimSpace(reason))
	return u == "PD" || strings.Contains(u, "PROGRESS") || strings.Contains(u, "DEATH") || strings.Contains(u, "DIED")
}
