package imwg

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
	"github.com/gyeh/oncoresp/internal/series"
)

// Result is the IMWG derivation of one subject.
type Result struct {
	// Responses holds one HEMRESP record per post-baseline visit.
	Responses []model.ResponseRecord
	// BOR is nil when the subject has no hematologic data or was rejected.
	BOR      *model.BORRecord
	Findings []model.Finding
	Rejected bool
}

type visit struct {
	date     time.Time
	studyDay int
	label    string
	dflc     []float64
	ife      model.Qualitative
	ratio    *float64
}

type assessed struct {
	date     time.Time
	studyDay int
	resp     model.HemeResponse
}

// Evaluate derives the per-visit IMWG responses and the best hematologic
// response of one subject. Only DFLC, IFE and FLCR rows are read.
// Assessments after newTherapy do not count toward the best response.
func Evaluate(subjectID string, rows []model.Assessment, newTherapy *time.Time, cfg config.Derivation) (*Result, error) {
	visits := group(rows)
	res := &Result{}
	if len(visits) == 0 {
		return res, nil
	}

	// Every distinct dFLC value is a point so that disagreeing baseline
	// candidates surface as a tie; the last point of a date represents it.
	var points []series.Point
	rep := make([]int, len(visits))
	for i, v := range visits {
		if len(v.dflc) == 0 {
			points = append(points, series.Point{Date: v.date, StudyDay: v.studyDay})
		}
		for _, x := range v.dflc {
			points = append(points, series.Point{Date: v.date, StudyDay: v.studyDay, Value: &x})
		}
		rep[i] = len(points) - 1
	}
	s, err := series.Track(subjectID, model.ParamDFLC, points,
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

	var seq []assessed
	for i, v := range visits {
		t := s.Points[rep[i]]
		if !t.PostBaseline {
			continue
		}
		in := VisitInput{DFLC: t.Value, Baseline: s.Baseline, Nadir: t.ReferenceNadir, IFE: v.ife, Ratio: v.ratio}
		resp, why := Classify(in, cfg.IMWG)
		res.Responses = append(res.Responses, model.ResponseRecord{
			SubjectID:                 subjectID,
			ParameterCode:             string(model.ParamHemeResponse),
			Visit:                     v.label,
			VisitDate:                 model.FormatDate(v.date),
			StudyDay:                  int32(v.studyDay),
			ResponseCode:              resp.String(),
			Justification:             why,
			Value:                     normalize.Round(t.Value, 4),
			BaselineValue:             normalize.Round(t.Baseline, 4),
			NadirValue:                normalize.Round(t.Nadir, 4),
			ChangeFromBaseline:        normalize.Round(t.ChangeFromBaseline, 4),
			PercentChangeFromBaseline: normalize.Round(t.PercentChangeFromBaseline, 4),
			ChangeFromNadir:           normalize.Round(t.ChangeFromNadir, 4),
			PercentChangeFromNadir:    normalize.Round(t.PercentChangeFromNadir, 4),
		})
		seq = append(seq, assessed{date: v.date, studyDay: v.studyDay, resp: resp})
	}

	conf := confirm(seq, cfg.IMWG.ConfirmMinDays)
	for i, c := range conf {
		res.Responses[i].Confirmed = c != nil
		res.Responses[i].ConfirmationDate = model.FormatDatePtr(c)
	}
	res.BOR = best(subjectID, seq, newTherapy, cfg.IMWG.ConfirmMinDays)
	return res, nil
}

// group collects hematologic rows by assessment date.
func group(rows []model.Assessment) []visit {
	byDate := make(map[time.Time]*visit)
	var out []*visit
	for _, r := range rows {
		switch r.Param {
		case model.ParamDFLC, model.ParamImmunofixation, model.ParamFLCRatio:
		default:
			continue
		}
		v, ok := byDate[r.Date]
		if !ok {
			v = &visit{date: r.Date, studyDay: r.StudyDay}
			byDate[r.Date] = v
			out = append(out, v)
		}
		if v.label == "" {
			v.label = r.Visit
		}
		switch r.Param {
		case model.ParamDFLC:
			if r.Value != nil && !contains(v.dflc, *r.Value) {
				v.dflc = append(v.dflc, *r.Value)
			}
		case model.ParamImmunofixation:
			if r.Qualitative != model.QualMissing {
				v.ife = r.Qualitative
			}
		case model.ParamFLCRatio:
			if r.Value != nil {
				x := *r.Value
				v.ratio = &x
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	visits := make([]visit, len(out))
	for i, v := range out {
		visits[i] = *v
	}
	return visits
}

// confirm returns, per visit, the date of the assessment that confirmed it.
// The first evaluable assessment at least minDays later decides: PD is
// confirmed only by PD, a response by the same or a better class.
func confirm(seq []assessed, minDays int) []*time.Time {
	out := make([]*time.Time, len(seq))
	for i, a := range seq {
		if a.resp != model.HemePD && a.resp < model.HemeMR {
			continue
		}
		for _, b := range seq[i+1:] {
			if b.resp == model.HemeNE {
				continue
			}
			if normalize.DaysBetween(a.date, b.date) < minDays {
				if b.resp == model.HemePD && a.resp != model.HemePD {
					break
				}
				continue
			}
			if (a.resp == model.HemePD && b.resp == model.HemePD) || (a.resp != model.HemePD && b.resp >= a.resp) {
				d := b.date
				out[i] = &d
			}
			break
		}
	}
	return out
}

// best resolves the best hematologic response over assessments up to the
// first PD and not after newTherapy; confirmation is re-run on that subset.
// Unconfirmed responses count as SD.
func best(subjectID string, seq []assessed, newTherapy *time.Time, minDays int) *model.BORRecord {
	rec := &model.BORRecord{SubjectID: subjectID, ParameterCode: string(model.ParamBestHemeResp)}
	var eligible []assessed
	for _, a := range seq {
		if newTherapy != nil && a.date.After(*newTherapy) {
			break
		}
		eligible = append(eligible, a)
		if a.resp == model.HemePD {
			break
		}
	}
	conf := confirm(eligible, minDays)

	set := func(i int, r model.HemeResponse, basis string) *model.BORRecord {
		a := eligible[i]
		rec.BORCode = r.String()
		rec.BORDate = model.FormatDatePtr(&a.date)
		day := int32(a.studyDay)
		rec.StudyDay = &day
		rec.Basis = basis
		if r != model.HemeSD && conf[i] != nil {
			rec.Confirmed = true
			rec.ConfirmationDate = model.FormatDatePtr(conf[i])
		}
		return rec
	}

	for r := model.HemeSCR; r >= model.HemeMR; r-- {
		for i, a := range eligible {
			if a.resp == r && conf[i] != nil {
				return set(i, r, fmt.Sprintf("confirmed %s on day %d", r, a.studyDay))
			}
		}
	}
	for i, a := range eligible {
		if a.resp == model.HemeSD || a.resp >= model.HemeMR {
			basis := fmt.Sprintf("SD on day %d", a.studyDay)
			if a.resp != model.HemeSD {
				basis = fmt.Sprintf("unconfirmed %s on day %d counted as SD", a.resp, a.studyDay)
			}
			return set(i, model.HemeSD, basis)
		}
	}
	for i, a := range eligible {
		if a.resp == model.HemePD {
			return set(i, model.HemePD, fmt.Sprintf("PD on day %d", a.studyDay))
		}
	}
	rec.BORCode = model.HemeNE.String()
	rec.Basis = "no evaluable hematologic assessments"
	if len(eligible) == 0 && len(seq) > 0 {
		rec.Basis = "no hematologic assessments before subsequent therapy"
	}
	return rec
}

func contains(xs []float64, v float64) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
