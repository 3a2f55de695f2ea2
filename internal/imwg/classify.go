// Package imwg derives IMWG hematologic responses from serum free light
// chain and immunofixation assessments.
package imwg

import (
	"fmt"
	"math"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
)

const eps = 1e-9

// VisitInput is the hematologic state of one post-baseline visit.
type VisitInput struct {
	DFLC     *float64
	Baseline *float64
	// Nadir is the smallest dFLC before this visit, baseline included.
	Nadir *float64
	IFE   model.Qualitative
	Ratio *float64
}

func (in VisitInput) reduction() (float64, bool) {
	if in.DFLC == nil || in.Baseline == nil || *in.Baseline <= eps {
		return 0, false
	}
	return (*in.Baseline - *in.DFLC) / *in.Baseline, true
}

func (in VisitInput) normalRatio(cfg config.IMWG) bool {
	return in.Ratio != nil && *in.Ratio >= cfg.RatioLow-eps && *in.Ratio <= cfg.RatioHigh+eps
}

// Rule is one level of the IMWG hierarchy.
type Rule struct {
	Outcome model.HemeResponse
	Match   func(VisitInput, config.IMWG) bool
	Reason  func(VisitInput) string
}

// Rules is evaluated top-down; the first matching rule wins.
var Rules = []Rule{
	{
		Outcome: model.HemePD,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			if in.DFLC == nil || in.Nadir == nil {
				return false
			}
			inc := *in.DFLC - *in.Nadir
			return inc >= cfg.PDAbsoluteIncrease-eps && relative(inc, *in.Nadir) >= cfg.PDRelativeIncrease-eps
		},
		Reason: func(in VisitInput) string {
			return fmt.Sprintf("dFLC %.1f mg/L vs nadir %.1f mg/L", *in.DFLC, *in.Nadir)
		},
	},
	{
		Outcome: model.HemeSCR,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			return in.IFE == model.QualNegative && in.normalRatio(cfg) &&
				(in.DFLC == nil || *in.DFLC < cfg.CRMaxDFLC)
		},
		Reason: func(in VisitInput) string {
			return fmt.Sprintf("negative immunofixation, FLC ratio %.2f", *in.Ratio)
		},
	},
	{
		Outcome: model.HemeCR,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			return in.IFE == model.QualNegative && in.DFLC != nil && *in.DFLC < cfg.CRMaxDFLC
		},
		Reason: func(in VisitInput) string {
			return fmt.Sprintf("negative immunofixation, dFLC %.1f mg/L", *in.DFLC)
		},
	},
	{
		Outcome: model.HemeVGPR,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			if in.DFLC == nil {
				return false
			}
			red, ok := in.reduction()
			return *in.DFLC < cfg.VGPRMaxDFLC || (ok && red >= cfg.VGPRReduction-eps)
		},
		Reason: reductionReason,
	},
	{
		Outcome: model.HemePR,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			red, ok := in.reduction()
			return ok && red >= cfg.PRReduction-eps && *in.Baseline-*in.DFLC >= cfg.PRAbsoluteDecrease-eps
		},
		Reason: reductionReason,
	},
	{
		Outcome: model.HemeMR,
		Match: func(in VisitInput, cfg config.IMWG) bool {
			red, ok := in.reduction()
			return ok && red >= cfg.MRReduction-eps
		},
		Reason: reductionReason,
	},
	{
		Outcome: model.HemeSD,
		Match:   func(in VisitInput, _ config.IMWG) bool { return in.DFLC != nil },
		Reason:  reductionReason,
	},
	{
		Outcome: model.HemeNE,
		Match:   func(VisitInput, config.IMWG) bool { return true },
		Reason:  func(VisitInput) string { return "dFLC not assessed" },
	},
}

// Classify resolves the hematologic response of one visit.
func Classify(in VisitInput, cfg config.IMWG) (model.HemeResponse, string) {
	for _, r := range Rules {
		if r.Match(in, cfg) {
			return r.Outcome, r.Reason(in)
		}
	}
	return model.HemeNE, "no rule matched"
}

func reductionReason(in VisitInput) string {
	if red, ok := in.reduction(); ok {
		return fmt.Sprintf("dFLC %.1f mg/L, %.1f%% reduction from baseline %.1f mg/L", *in.DFLC, red*100, *in.Baseline)
	}
	return fmt.Sprintf("dFLC %.1f mg/L, no baseline", *in.DFLC)
}

func relative(delta, ref float64) float64 {
	if ref > eps {
		return delta / ref
	}
	if delta > eps {
		return math.Inf(1)
	}
	return 0
}
