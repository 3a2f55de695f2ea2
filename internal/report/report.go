// Package report summarizes a derivation run at cohort level.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/tte"
)

// Confidence is the two-sided confidence level of reported rate intervals.
const Confidence = 0.95

// Rate is a proportion with its exact (Clopper-Pearson) confidence interval.
type Rate struct {
	Numerator   int
	Denominator int
	Estimate    float64
	Lower       float64
	Upper       float64
}

// Summary describes a distribution of per-subject values.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Cohort is the cohort-level summary of one run.
type Cohort struct {
	Subjects int
	// ORR counts confirmed CR and PR best responses.
	ORR Rate
	// DCR counts CR, PR and SD meeting the minimum duration.
	DCR       Rate
	BORCounts map[string]int
	// HemeORR counts hematologic best responses of PR or better; MR is excluded.
	HemeORR       Rate
	HemeBORCounts map[string]int
	// BestPercentChange is the per-subject minimum percent change of the
	// target sum from baseline.
	BestPercentChange Summary
	PFSEvents         int
	CensorReasons     map[string]int
}

// Build computes the cohort summary from a run's output records.
func Build(bors []model.BORRecord, responses []model.ResponseRecord, events []model.EventRecord) (*Cohort, error) {
	c := &Cohort{
		BORCounts:     make(map[string]int),
		HemeBORCounts: make(map[string]int),
		CensorReasons: make(map[string]int),
	}
	subjects := make(map[string]bool)

	var recist, heme, responders, controlled, hemeResponders int
	for _, b := range bors {
		subjects[b.SubjectID] = true
		switch model.ParameterCode(b.ParameterCode) {
		case model.ParamBestResponse:
			recist++
			c.BORCounts[b.BORCode]++
			r, err := model.ParseOverallResponse(b.BORCode)
			if err != nil {
				return nil, fmt.Errorf("subject %s: %w", b.SubjectID, err)
			}
			if r.Responder() && b.Confirmed {
				responders++
			}
			if r.Responder() || r == model.OverallSD {
				controlled++
			}
		case model.ParamBestHemeResp:
			heme++
			c.HemeBORCounts[b.BORCode]++
			r, err := model.ParseHemeResponse(b.BORCode)
			if err != nil {
				return nil, fmt.Errorf("subject %s: %w", b.SubjectID, err)
			}
			if r.CountsTowardORR() {
				hemeResponders++
			}
		}
	}

	var err error
	if c.ORR, err = NewRate(responders, recist); err != nil {
		return nil, err
	}
	if c.DCR, err = NewRate(controlled, recist); err != nil {
		return nil, err
	}
	if c.HemeORR, err = NewRate(hemeResponders, heme); err != nil {
		return nil, err
	}

	best := make(map[string]float64)
	for _, r := range responses {
		subjects[r.SubjectID] = true
		if model.ParameterCode(r.ParameterCode) != model.ParamOverallResponse || r.PercentChangeFromBaseline == nil {
			continue
		}
		if v, ok := best[r.SubjectID]; !ok || *r.PercentChangeFromBaseline < v {
			best[r.SubjectID] = *r.PercentChangeFromBaseline
		}
	}
	values := make([]float64, 0, len(best))
	for _, v := range best {
		values = append(values, v)
	}
	sort.Float64s(values)
	if c.BestPercentChange, err = Summarize(values); err != nil {
		return nil, err
	}

	for _, e := range events {
		subjects[e.SubjectID] = true
		if e.EndpointCode != tte.EndpointPFS {
			continue
		}
		c.CensorReasons[e.CensorReason]++
		if e.EventIndicator == 0 {
			c.PFSEvents++
		}
	}
	c.Subjects = len(subjects)
	return c, nil
}

// NewRate builds a proportion with its exact confidence interval.
func NewRate(x, n int) (Rate, error) {
	if x < 0 || n < 0 || x > n {
		return Rate{}, fmt.Errorf("invalid proportion %d/%d", x, n)
	}
	r := Rate{Numerator: x, Denominator: n}
	if n == 0 {
		return r, nil
	}
	alpha := 1 - Confidence
	r.Estimate = float64(x) / float64(n)
	if x > 0 {
		r.Lower = distuv.Beta{Alpha: float64(x), Beta: float64(n - x + 1)}.Quantile(alpha / 2)
	}
	r.Upper = 1
	if x < n {
		r.Upper = distuv.Beta{Alpha: float64(x + 1), Beta: float64(n - x)}.Quantile(1 - alpha/2)
	}
	return r, nil
}

// Summarize returns the distribution summary of values; empty input yields N=0.
func Summarize(values []float64) (Summary, error) {
	s := Summary{N: len(values)}
	if len(values) == 0 {
		return s, nil
	}
	var err error
	if s.Mean, err = stats.Mean(values); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(values); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(values); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(values); err != nil {
		return s, err
	}
	return s, nil
}

// Write prints the cohort summary as plain text.
func (c *Cohort) Write(w io.Writer) {
	fmt.Fprintf(w, "Subjects:        %d\n", c.Subjects)
	fmt.Fprintf(w, "ORR (confirmed): %s\n", c.ORR)
	fmt.Fprintf(w, "DCR:             %s\n", c.DCR)
	writeCounts(w, "BOR", c.BORCounts)
	if c.HemeORR.Denominator > 0 {
		fmt.Fprintf(w, "IMWG ORR:        %s\n", c.HemeORR)
		writeCounts(w, "IMWG BOR", c.HemeBORCounts)
	}
	if c.BestPercentChange.N > 0 {
		s := c.BestPercentChange
		fmt.Fprintf(w, "Best %% change:   n=%d median %.1f%% min %.1f%% max %.1f%%\n", s.N, s.Median, s.Min, s.Max)
	}
	fmt.Fprintf(w, "PFS events:      %d\n", c.PFSEvents)
	writeCounts(w, "PFS reasons", c.CensorReasons)
}

func (r Rate) String() string {
	if r.Denominator == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d %.1f%% (95%% CI %.1f-%.1f%%)", r.Numerator, r.Denominator, r.Estimate*100, r.Lower*100, r.Upper*100)
}

func writeCounts(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", label)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %d\n", k, counts[k])
	}
}
