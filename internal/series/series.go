// Package series tracks the baseline and running nadir of one
// subject-parameter value series and derives the change-from-reference
// fields carried on every response record.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
)

// ErrTiedBaseline is returned when several baseline candidates share the
// selected date with different values and the method cannot pick one.
var ErrTiedBaseline = errors.New("tied baseline candidates")

// Point is one dated value of a subject-parameter series. A nil Value is a
// missing measurement.
type Point struct {
	Date     time.Time
	StudyDay int
	Value    *float64
}

// Methods selects the baseline and nadir policies.
type Methods struct {
	Baseline model.BaselineMethod
	Nadir    model.NadirMethod
}

// Tracked is a point annotated with its baseline and nadir state.
type Tracked struct {
	Point
	IsBaseline   bool
	PostBaseline bool

	// Baseline is the series baseline, nil when no baseline exists.
	Baseline *float64
	// Nadir is the running minimum as of this point, including this point.
	Nadir *float64
	// ReferenceNadir is the running minimum before this point; progression is
	// measured against it. Falls back to Baseline when no earlier value is
	// eligible for the nadir.
	ReferenceNadir *float64

	ChangeFromBaseline        *float64
	PercentChangeFromBaseline *float64
	ChangeFromNadir           *float64
	PercentChangeFromNadir    *float64
}

// Series is the tracked output for one subject-parameter.
type Series struct {
	Points       []Tracked
	Baseline     *float64
	BaselineDate *time.Time
	Findings     []model.Finding
}

// state is threaded through the fold over the sorted points.
type state struct {
	baseline *float64
	nadir    *float64
	seenBase bool
}

// Track folds over points sorted by date and returns the baseline and, for
// each point, the nadir valid as of that point. Points must share a
// subject-parameter; subjectID and param only label findings.
func Track(subjectID string, param model.ParameterCode, points []Point, m Methods) (*Series, error) {
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) }) {
		return nil, fmt.Errorf("%s/%s: points are not sorted by date", subjectID, param)
	}

	out := &Series{Points: make([]Tracked, len(points))}
	baseIdx, findings, err := selectBaseline(subjectID, param, points, m.Baseline)
	out.Findings = append(out.Findings, findings...)
	if err != nil {
		return out, err
	}
	if baseIdx < 0 {
		out.Findings = append(out.Findings, model.Warn(subjectID, param, model.FindingMissingBaseline,
			"no %s baseline value; baseline-relative derivations are undefined", m.Baseline))
	} else {
		v := *points[baseIdx].Value
		d := points[baseIdx].Date
		out.Baseline = &v
		out.BaselineDate = &d
	}

	var st state
	st.baseline = out.Baseline
	postCount := 0
	for i, p := range points {
		t := Tracked{Point: p, Baseline: st.baseline}
		switch {
		case i == baseIdx:
			t.IsBaseline = true
			st.seenBase = true
			if eligibleForNadir(p, m.Nadir) {
				st.nadir = minPtr(st.nadir, p.Value)
			}
			t.Nadir = st.nadir
		case baseIdx >= 0 && !st.seenBase:
			// Pre-baseline screening values take no part in the nadir.
		case m.Baseline == model.BaselinePretreat && p.StudyDay < 1:
		default:
			t.PostBaseline = true
			if p.Value != nil {
				postCount++
			}
			t.ReferenceNadir = st.nadir
			if t.ReferenceNadir == nil {
				t.ReferenceNadir = st.baseline
			}
			if eligibleForNadir(p, m.Nadir) {
				st.nadir = minPtr(st.nadir, p.Value)
			}
			t.Nadir = st.nadir
			derive(&t)
		}
		out.Points[i] = t
	}

	if postCount == 0 {
		out.Findings = append(out.Findings, model.Warn(subjectID, param, model.FindingNoPostBaseline,
			"no post-baseline value"))
	}
	return out, nil
}

// selectBaseline returns the index of the baseline point or -1.
func selectBaseline(subjectID string, param model.ParameterCode, points []Point, method model.BaselineMethod) (int, []model.Finding, error) {
	var findings []model.Finding
	idx := -1
	switch method {
	case model.BaselineFirst:
		for i, p := range points {
			if p.Value != nil {
				idx = i
				break
			}
		}
	default:
		for i, p := range points {
			if p.StudyDay < 1 && p.Value != nil {
				idx = i
			}
		}
	}
	if idx < 0 {
		return -1, nil, nil
	}

	// Other candidates on the same date as the chosen baseline.
	chosen := points[idx]
	for i, p := range points {
		if i == idx || p.Value == nil || !p.Date.Equal(chosen.Date) {
			continue
		}
		if *p.Value != *chosen.Value {
			d := chosen.Date
			f := model.Fail(subjectID, param, model.FindingTiedBaseline,
				"baseline candidates on %s disagree (%v vs %v)", model.FormatDate(d), *chosen.Value, *p.Value)
			f.Date = &d
			return -1, append(findings, f), fmt.Errorf("%s/%s: %w", subjectID, param, ErrTiedBaseline)
		}
		d := chosen.Date
		f := model.Warn(subjectID, param, model.FindingDuplicateBaseline,
			"duplicate baseline records on %s with value %v", model.FormatDate(d), *p.Value)
		f.Date = &d
		findings = append(findings, f)
	}
	if method == model.BaselineFirst {
		// Duplicates resolve to the first record of the date.
		for i, p := range points {
			if p.Value != nil && p.Date.Equal(chosen.Date) {
				return i, findings, nil
			}
		}
	}
	// Duplicates resolve to the last record of the date.
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Value != nil && points[i].Date.Equal(chosen.Date) {
			return i, findings, nil
		}
	}
	return idx, findings, nil
}

func eligibleForNadir(p Point, method model.NadirMethod) bool {
	if p.Value == nil {
		return false
	}
	if method == model.NadirExcludeBaseline {
		return p.StudyDay >= 1
	}
	return true
}

func derive(t *Tracked) {
	if t.Value == nil {
		return
	}
	v := *t.Value
	if t.Baseline != nil {
		c := v - *t.Baseline
		t.ChangeFromBaseline = &c
		if *t.Baseline != 0 {
			pc := c / *t.Baseline * 100
			t.PercentChangeFromBaseline = &pc
		}
	}
	if t.ReferenceNadir != nil {
		c := v - *t.ReferenceNadir
		t.ChangeFromNadir = &c
		if *t.ReferenceNadir != 0 {
			pc := c / *t.ReferenceNadir * 100
			t.PercentChangeFromNadir = &pc
		}
	}
}

func minPtr(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v < *cur {
		x := *v
		return &x
	}
	return cur
}
