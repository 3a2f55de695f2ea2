package derive

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/conform"
	"github.com/gyeh/oncoresp/internal/imwg"
	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
	"github.com/gyeh/oncoresp/internal/recist"
	"github.com/gyeh/oncoresp/internal/tte"
)

// Output is the complete derivation of one run, ordered by subject.
type Output struct {
	Responses []model.ResponseRecord
	BORs      []model.BORRecord
	Events    []model.EventRecord
	Findings  []model.Finding

	Subjects         int
	SubjectsRejected int
	RowsRead         int64
	RowsRejected     int64

	// Digest is the SHA-256 of the canonical JSON of every output record.
	Digest string
}

// FindingRecords returns the findings in persisted form.
func (o *Output) FindingRecords() []model.FindingRecord {
	out := make([]model.FindingRecord, len(o.Findings))
	for i, f := range o.Findings {
		out[i] = f.Record()
	}
	return out
}

type subjectResult struct {
	responses []model.ResponseRecord
	bors      []model.BORRecord
	events    []model.EventRecord
	findings  []model.Finding
	rejected  bool
}

// Derive normalizes the input rows and runs every subject's derivation,
// bounded by cfg.Derivation.Workers. Rows that cannot be normalized are
// rejected with a warning; a failing subject never aborts the others.
func Derive(ctx context.Context, log zerolog.Logger, cfg *config.Config, in *Inputs) (*Output, error) {
	out := &Output{RowsRead: int64(len(in.Assessments) + len(in.Subjects))}

	subjects := make(map[string]*model.Subject, len(in.Subjects))
	for i := range in.Subjects {
		s, err := normalize.ToSubject(&in.Subjects[i])
		if err != nil {
			out.RowsRejected++
			log.Warn().Err(err).Int("row", i+1).Msg("subject row rejected")
			continue
		}
		if _, dup := subjects[s.SubjectID]; dup {
			out.RowsRejected++
			log.Warn().Str("subject_id", s.SubjectID).Int("row", i+1).Msg("duplicate subject row rejected")
			continue
		}
		subjects[s.SubjectID] = &s
	}

	bySubject := make(map[string][]model.Assessment)
	for i := range in.Assessments {
		row := &in.Assessments[i]
		var ref *time.Time
		if s, ok := subjects[normalize.NormalizeSubjectID(row.SubjectID)]; ok {
			ref = &s.FirstDose
		}
		a, err := normalize.ToAssessment(row, int64(i+1), ref)
		if err != nil {
			out.RowsRejected++
			log.Warn().Err(err).Int("row", i+1).Msg("assessment row rejected")
			continue
		}
		bySubject[a.SubjectID] = append(bySubject[a.SubjectID], a)
	}

	ids := make([]string, 0, len(subjects)+len(bySubject))
	for id := range subjects {
		ids = append(ids, id)
	}
	for id := range bySubject {
		if _, ok := subjects[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	results := make([]*subjectResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Derivation.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := deriveSubject(id, bySubject[id], subjects[id], cfg.Derivation)
			if err != nil {
				return fmt.Errorf("subject %s: %w", id, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		for i := range r.responses {
			r.responses[i].Seq = int32(i + 1)
		}
		out.Responses = append(out.Responses, r.responses...)
		out.BORs = append(out.BORs, r.bors...)
		out.Events = append(out.Events, r.events...)
		out.Findings = append(out.Findings, r.findings...)
		if r.rejected {
			out.SubjectsRejected++
		}
	}
	out.Subjects = len(ids)
	out.Findings = append(out.Findings, conform.Check(conform.FromResponses(cfg.StudyID, out.Responses))...)

	for _, f := range out.Findings {
		logFinding(log, f)
	}

	var err error
	out.Digest, err = normalize.DigestJSON(out.Responses, out.BORs, out.Events, out.FindingRecords())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// deriveSubject runs the RECIST, IMWG and time-to-event derivations of one
// subject. subj is nil when the subject has assessments but no subject row.
func deriveSubject(id string, rows []model.Assessment, subj *model.Subject, cfg config.Derivation) (*subjectResult, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].SourceRow < rows[j].SourceRow
	})

	var newTherapy *time.Time
	if subj != nil {
		newTherapy = subj.NewTherapy
	}

	res := &subjectResult{}
	rec, err := recist.Evaluate(id, rows, newTherapy, cfg)
	if err != nil {
		return nil, err
	}
	res.findings = append(res.findings, rec.Findings...)
	res.responses = append(res.responses, rec.Responses...)
	res.responses = append(res.responses, rec.Immune...)
	if rec.BOR != nil {
		res.bors = append(res.bors, *rec.BOR)
	}

	heme, err := imwg.Evaluate(id, rows, newTherapy, cfg)
	if err != nil {
		return nil, err
	}
	res.findings = append(res.findings, heme.Findings...)
	res.responses = append(res.responses, heme.Responses...)
	if heme.BOR != nil {
		res.bors = append(res.bors, *heme.BOR)
	}
	res.rejected = rec.Rejected || heme.Rejected

	if subj == nil {
		res.findings = append(res.findings, model.Warn(id, model.ParameterCode(tte.EndpointPFS), model.FindingMissingSubject,
			"no subject record, time-to-event endpoints not derived"))
		return res, nil
	}

	seq, bor, ok := timeline(rec, heme)
	if !ok {
		return res, nil
	}
	res.events = append(res.events, tte.PFS(*subj, seq, cfg))
	if onset := responseOnset(seq, newTherapy); onset != nil && confirmedResponder(bor) {
		res.events = append(res.events, tte.DOR(*subj, seq, *onset, cfg))
	}
	return res, nil
}

// timeline picks the response sequence the time-to-event endpoints follow:
// RECIST when the subject has solid-tumor assessments, IMWG otherwise. ok is
// false when the chosen derivation was rejected.
func timeline(rec *recist.Result, heme *imwg.Result) ([]tte.Assessment, *model.BORRecord, bool) {
	if len(rec.Assessed) > 0 || len(heme.Responses) == 0 {
		if rec.Rejected {
			return nil, nil, false
		}
		seq := make([]tte.Assessment, len(rec.Assessed))
		for i, a := range rec.Assessed {
			seq[i] = tte.Assessment{Date: a.Date, Response: a.Response}
		}
		return seq, rec.BOR, true
	}
	if heme.Rejected {
		return nil, nil, false
	}
	var seq []tte.Assessment
	for _, r := range heme.Responses {
		h, err := model.ParseHemeResponse(r.ResponseCode)
		d := normalize.ParseDate(r.VisitDate)
		if err != nil || d == nil {
			continue
		}
		seq = append(seq, tte.Assessment{Date: *d, Response: overallFromHeme(h)})
	}
	return seq, heme.BOR, true
}

// overallFromHeme places a hematologic response on the overall scale used by
// the censoring rules. MR is not a response there.
func overallFromHeme(h model.HemeResponse) model.OverallResponse {
	switch {
	case h == model.HemeNE:
		return model.OverallNE
	case h == model.HemePD:
		return model.OverallPD
	case h >= model.HemeCR:
		return model.OverallCR
	case h.CountsTowardORR():
		return model.OverallPR
	}
	return model.OverallSD
}

// responseOnset returns the first CR/PR before any PD and not after the
// start of subsequent therapy.
func responseOnset(seq []tte.Assessment, newTherapy *time.Time) *time.Time {
	for _, a := range seq {
		if newTherapy != nil && a.Date.After(*newTherapy) {
			return nil
		}
		if a.Response == model.OverallPD {
			return nil
		}
		if a.Response.Responder() {
			d := a.Date
			return &d
		}
	}
	return nil
}

func confirmedResponder(bor *model.BORRecord) bool {
	if bor == nil || !bor.Confirmed {
		return false
	}
	if r, err := model.ParseOverallResponse(bor.BORCode); err == nil && model.ParameterCode(bor.ParameterCode) == model.ParamBestResponse {
		return r.Responder()
	}
	h, err := model.ParseHemeResponse(bor.BORCode)
	return err == nil && h.CountsTowardORR()
}

func logFinding(log zerolog.Logger, f model.Finding) {
	ev := log.Warn()
	if f.Severity == model.SeverityError {
		ev = log.Error()
	}
	if f.Date != nil {
		ev = ev.Str("date", model.FormatDate(*f.Date))
	}
	ev.Str("subject_id", f.SubjectID).
		Str("parameter_code", string(f.ParameterCode)).
		Str("code", string(f.Code)).
		Msg(f.Message)
}
