package recist

import (
	"errors"
	"strings"
	"time"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
	"github.com/gyeh/oncoresp/internal/series"
)

// Result is the RECIST derivation of one subject.
type Result struct {
	// Responses holds one OVRLRESP record per post-baseline visit.
	Responses []model.ResponseRecord
	// Immune holds the matching IOVRLRSP records.
	Immune []model.ResponseRecord
	// BOR is nil when the subject was rejected.
	BOR *model.BORRecord
	// Assessed is the post-baseline overall response sequence.
	Assessed      []Assessed
	Confirmations []Confirmation
	Findings      []model.Finding
	Rejected      bool
}

// Evaluate derives the per-visit overall responses, their iRECIST readings
// and the best overall response of one subject. rows may contain any
// parameter; only lesion parameters are read. A subject is rejected, with an
// ERROR finding, on tied baselines or an inconsistent response record.
func Evaluate(subjectID string, rows []model.Assessment, newTherapy *time.Time, cfg config.Derivation) (*Result, error) {
	measures, findings := Aggregate(subjectID, rows)
	res := &Result{Findings: findings}
	if len(measures) == 0 {
		return res, nil
	}

	hasTarget := false
	for _, m := range measures {
		if m.HasTarget {
			hasTarget = true
			break
		}
	}

	var tracked *series.Series
	if hasTarget {
		points := make([]series.Point, len(measures))
		for i, m := range measures {
			points[i] = series.Point{Date: m.Date, StudyDay: m.StudyDay}
			if m.TargetComplete {
				points[i].Value = m.TargetSum
			}
		}
		s, err := series.Track(subjectID, model.ParamTargetSum, points,
			series.Methods{Baseline: cfg.BaselineMethod, Nadir: cfg.NadirMethod})
		if s != nil {
			res.Findings = append(res.Findings, s.Findings...)
		}
		if errors.Is(err, series.ErrTiedBaseline) {
			res.Rejected = true
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		for i, p := range s.Points {
			if p.IsBaseline && measures[i].ConflictingSums {
				d := p.Date
				f := model.Fail(subjectID, model.ParamTargetSum, model.FindingTiedBaseline,
					"baseline sums of diameters on %s disagree", model.FormatDate(d))
				f.Date = &d
				res.Findings = append(res.Findings, f)
				res.Rejected = true
				return res, nil
			}
		}
		tracked = s
	}

	anchor := baselineDate(measures, tracked, cfg.BaselineMethod)
	for i, m := range measures {
		var t series.Tracked
		if tracked != nil {
			t = tracked.Points[i]
			if !t.PostBaseline {
				continue
			}
		} else if !nonTargetPostBaseline(i, m, cfg.BaselineMethod) {
			continue
		}

		in := TargetInput{Current: m.TargetSum, Complete: m.TargetComplete}
		if tracked != nil {
			in.Baseline = tracked.Baseline
			in.Nadir = t.ReferenceNadir
		}
		tr := ClassifyTarget(in, cfg)
		nt, ntWhy := ClassifyNonTarget(m.NonTarget)
		nl, nlWhy := DetectNewLesion(m)
		overall, rule := Integrate(VisitSignals{Target: tr.Response, NonTarget: nt, NewLesion: nl})

		rec := model.ResponseRecord{
			SubjectID:         subjectID,
			ParameterCode:     string(model.ParamOverallResponse),
			Visit:             m.Visit,
			VisitDate:         model.FormatDate(m.Date),
			StudyDay:          int32(m.StudyDay),
			ResponseCode:      overall.String(),
			TargetResponse:    tr.Response.String(),
			NonTargetResponse: nt.String(),
			NewLesion:         nl,
			CritTargetPD:      tr.PDMet,
			CritTargetPD25mm:  tr.PD25mmMet,
			CritNonTargetPD:   nt == model.NonTargetPD,
			CritNewLesionPD:   nl,
			Justification:     justify(rule.Reason, "target "+tr.Response.String()+": "+tr.Justification, "non-target "+nt.String()+": "+ntWhy, nlWhy),

			Value:                     normalize.Round(t.Value, 4),
			BaselineValue:             normalize.Round(t.Baseline, 4),
			NadirValue:                normalize.Round(t.Nadir, 4),
			ChangeFromBaseline:        normalize.Round(t.ChangeFromBaseline, 4),
			PercentChangeFromBaseline: normalize.Round(t.PercentChangeFromBaseline, 4),
			ChangeFromNadir:           normalize.Round(t.ChangeFromNadir, 4),
			PercentChangeFromNadir:    normalize.Round(t.PercentChangeFromNadir, 4),
		}
		if v := CheckConsistency(&rec); v != nil {
			rec.Violation = v
			d := m.Date
			f := model.Fail(subjectID, model.ParamOverallResponse, model.FindingConsistency, "%s", *v)
			f.Date = &d
			res.Findings = append(res.Findings, f)
			res.Rejected = true
		}
		res.Responses = append(res.Responses, rec)
		res.Assessed = append(res.Assessed, Assessed{
			Date:          m.Date,
			StudyDay:      m.StudyDay,
			SinceBaseline: sinceBaseline(anchor, m),
			Response:      overall,
		})
	}

	res.Confirmations = Confirm(res.Assessed, cfg.ConfirmWindowLoDays, cfg.ConfirmWindowHiDays)
	for i, c := range res.Confirmations {
		res.Responses[i].Confirmed = c.Confirmed
		res.Responses[i].ConfirmationDate = model.FormatDatePtr(c.Date)
	}

	immune := ApplyIRECIST(res.Assessed, cfg.IRECISTConfirmLoDays, cfg.IRECISTConfirmHiDays)
	res.Immune = make([]model.ResponseRecord, len(immune))
	for i, ia := range immune {
		rec := res.Responses[i]
		rec.ParameterCode = string(model.ParamImmuneResponse)
		rec.ResponseCode = ia.Response.String()
		rec.Justification = ia.Justification
		rec.Pseudoprogression = ia.Pseudoprogression
		rec.Confirmed = ia.ConfirmedBy != nil
		rec.ConfirmationDate = model.FormatDatePtr(ia.ConfirmedBy)
		rec.Violation = nil
		res.Immune[i] = rec
	}

	if res.Rejected {
		return res, nil
	}
	bor := BestOverall(res.Assessed, newTherapy, cfg.ConfirmWindowLoDays, cfg.ConfirmWindowHiDays, cfg.SDMinDurationDays)
	res.BOR = &model.BORRecord{
		SubjectID:        subjectID,
		ParameterCode:    string(model.ParamBestResponse),
		BORCode:          bor.Response.String(),
		BORDate:          model.FormatDatePtr(bor.Date),
		Confirmed:        bor.Confirmed,
		ConfirmationDate: model.FormatDatePtr(bor.ConfirmationDate),
		Basis:            bor.Basis,
	}
	if bor.StudyDay != nil {
		d := int32(*bor.StudyDay)
		res.BOR.StudyDay = &d
	}
	return res, nil
}

// nonTargetPostBaseline decides post-baseline status for subjects without
// target disease, where no series is tracked.
func nonTargetPostBaseline(i int, m VisitMeasure, method model.BaselineMethod) bool {
	if method == model.BaselineFirst {
		return i > 0
	}
	return m.StudyDay >= 1
}

// baselineDate returns the date durations are measured from: the tracked
// target baseline, else the visit the non-target path treats as baseline.
func baselineDate(measures []VisitMeasure, tracked *series.Series, method model.BaselineMethod) *time.Time {
	if tracked != nil {
		return tracked.BaselineDate
	}
	if method == model.BaselineFirst {
		d := measures[0].Date
		return &d
	}
	var out *time.Time
	for _, m := range measures {
		if m.StudyDay < 1 {
			d := m.Date
			out = &d
		}
	}
	return out
}

// sinceBaseline counts days from anchor; without a baseline date it counts
// from study day 1.
func sinceBaseline(anchor *time.Time, m VisitMeasure) int {
	if anchor != nil {
		return normalize.DaysBetween(*anchor, m.Date)
	}
	if m.StudyDay < 1 {
		return 0
	}
	return m.StudyDay - 1
}

func justify(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" && !strings.HasSuffix(p, ":") {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
