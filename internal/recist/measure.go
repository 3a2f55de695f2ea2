// Package recist derives RECIST 1.1 and iRECIST responses from per-visit
// lesion measurements of one subject.
package recist

import (
	"sort"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
)

// VisitMeasure aggregates one subject's lesion-level rows at one assessment date.
type VisitMeasure struct {
	Date     time.Time
	StudyDay int
	Visit    string

	// HasTarget is true when any target row exists at the visit.
	HasTarget bool
	// TargetSum is the sum of measured target diameters; with TargetComplete
	// false it is a partial sum (or nil when nothing was measured).
	TargetSum      *float64
	TargetComplete bool
	TargetMeasured int
	TargetExpected int
	// ConflictingSums is set when several SUMDIAM rows disagree at the visit.
	ConflictingSums bool

	NonTargetSum *float64
	NonTarget    []model.Qualitative

	NewLesion          bool
	EquivocalNewLesion bool
}

// isRECIST reports whether the row belongs to the solid-tumor assessment.
func isRECIST(a model.Assessment) bool {
	switch a.Param {
	case model.ParamTargetLesion, model.ParamTargetSum, model.ParamNonTargetLesion, model.ParamNewLesion:
		return true
	}
	return a.NewLesion
}

// Aggregate groups a subject's lesion rows by assessment date and sums the
// target and non-target diameters per visit. Target lesions are tracked
// against the lesion set of the first visit that carries target rows;
// lesion IDs outside that set are reported as orphans and excluded from the sum.
func Aggregate(subjectID string, rows []model.Assessment) ([]VisitMeasure, []model.Finding) {
	var findings []model.Finding
	byDate := make(map[time.Time][]model.Assessment)
	var dates []time.Time
	for _, r := range rows {
		if !isRECIST(r) {
			continue
		}
		if _, ok := byDate[r.Date]; !ok {
			dates = append(dates, r.Date)
		}
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	expected := expectedLesions(dates, byDate)
	orphans := make(map[string]bool)

	out := make([]VisitMeasure, 0, len(dates))
	for _, d := range dates {
		group := byDate[d]
		m := VisitMeasure{Date: d, StudyDay: group[0].StudyDay, TargetExpected: len(expected)}
		for _, r := range group {
			if m.Visit == "" {
				m.Visit = r.Visit
			}
		}

		aggregateTarget(subjectID, &m, group, expected, orphans, &findings)

		for _, r := range group {
			switch r.Param {
			case model.ParamNonTargetLesion:
				m.NonTarget = append(m.NonTarget, r.Qualitative)
				if r.Value != nil {
					m.NonTargetSum = addPtr(m.NonTargetSum, *r.Value)
				}
			case model.ParamNewLesion:
				if r.Qualitative == model.QualEquivocal {
					m.EquivocalNewLesion = true
				}
			}
			if r.NewLesion {
				m.NewLesion = true
			}
		}
		if m.EquivocalNewLesion && !m.NewLesion {
			f := model.Warn(subjectID, model.ParamNewLesion, model.FindingEquivocalNewLesion,
				"equivocal new lesion on %s is not counted as progression", model.FormatDate(d))
			f.Date = &d
			findings = append(findings, f)
		}
		out = append(out, m)
	}
	return out, findings
}

func aggregateTarget(subjectID string, m *VisitMeasure, group []model.Assessment, expected map[string]bool,
	orphans map[string]bool, findings *[]model.Finding) {
	// A pre-summed SUMDIAM row takes precedence over individual lesions; the
	// last non-missing one of the visit is used.
	for _, r := range group {
		if r.Param != model.ParamTargetSum {
			continue
		}
		m.HasTarget = true
		if r.Value == nil {
			continue
		}
		if m.TargetSum != nil && *m.TargetSum != *r.Value {
			m.ConflictingSums = true
		}
		v := *r.Value
		m.TargetSum = &v
		m.TargetComplete = true
	}
	if m.HasTarget {
		return
	}

	measured := make(map[string]bool)
	complete := true
	for _, r := range group {
		if r.Param != model.ParamTargetLesion {
			continue
		}
		m.HasTarget = true
		if r.LesionID != "" && len(expected) > 0 && !expected[r.LesionID] {
			if !orphans[r.LesionID] {
				orphans[r.LesionID] = true
				d := r.Date
				f := model.Warn(subjectID, model.ParamTargetLesion, model.FindingOrphanLesion,
					"target lesion %q has no baseline record and is excluded from the sum", r.LesionID)
				f.Date = &d
				*findings = append(*findings, f)
			}
			continue
		}
		if r.Value == nil {
			complete = false
			continue
		}
		m.TargetSum = addPtr(m.TargetSum, *r.Value)
		m.TargetMeasured++
		if r.LesionID != "" {
			measured[r.LesionID] = true
		}
	}
	if !m.HasTarget {
		return
	}
	for id := range expected {
		if !measured[id] {
			complete = false
		}
	}
	m.TargetComplete = complete && m.TargetSum != nil
	if !m.TargetComplete && m.TargetSum != nil {
		d := m.Date
		f := model.Warn(subjectID, model.ParamTargetLesion, model.FindingIncompleteTargetSum,
			"%d of %d target lesions measured on %s", m.TargetMeasured, m.TargetExpected, model.FormatDate(d))
		f.Date = &d
		*findings = append(*findings, f)
	}
}

// expectedLesions returns the lesion IDs of the first visit with target lesion rows.
func expectedLesions(dates []time.Time, byDate map[time.Time][]model.Assessment) map[string]bool {
	for _, d := range dates {
		ids := make(map[string]bool)
		for _, r := range byDate[d] {
			if r.Param == model.ParamTargetLesion && r.LesionID != "" {
				ids[r.LesionID] = true
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

func addPtr(cur *float64, v float64) *float64 {
	if cur == nil {
		return &v
	}
	s := *cur + v
	return &s
}
