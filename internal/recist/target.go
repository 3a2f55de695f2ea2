package recist

import (
	"fmt"
	"math"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
)

const eps = 1e-9

// TargetInput is the target-lesion state at one post-baseline visit.
type TargetInput struct {
	// Current is the visit's sum of diameters; partial when Complete is false.
	Current  *float64
	Complete bool
	Baseline *float64
	// Nadir is the smallest sum before this visit, baseline included.
	Nadir *float64
}

// TargetResult is the classification plus the criterion flags that produced it.
type TargetResult struct {
	Response model.TargetResponse
	// PDMet is the standard rule: +20% relative and +5 mm absolute over nadir.
	PDMet bool
	// PD25mmMet is the alternative 25 mm rule, reported independently.
	PD25mmMet     bool
	Justification string
}

// ClassifyTarget applies the RECIST 1.1 target-lesion thresholds.
func ClassifyTarget(in TargetInput, cfg config.Derivation) TargetResult {
	if in.Baseline == nil {
		if in.Current == nil {
			return TargetResult{Response: model.TargetNotAssessed, Justification: "no target lesions"}
		}
		return TargetResult{Response: model.TargetNE, Justification: "no baseline sum of diameters"}
	}
	base := *in.Baseline
	if base <= eps {
		return TargetResult{Response: model.TargetNotAssessed, Justification: "no measurable target disease at baseline"}
	}
	if in.Current == nil {
		return TargetResult{Response: model.TargetNE, Justification: "target sum not assessed"}
	}

	cur := *in.Current
	nadir := base
	if in.Nadir != nil {
		nadir = *in.Nadir
	}
	increase := cur - nadir
	rel := relativeChange(increase, nadir)

	res := TargetResult{
		PDMet: increase >= cfg.PDAbsoluteThresholdMM-eps && rel >= cfg.PDRelativeThreshold-eps,
	}
	if cfg.Enaworu25mmRule {
		if nadir >= cfg.Enaworu25mmCutoffMM-eps {
			res.PD25mmMet = rel >= cfg.PDRelativeThreshold-eps
		} else {
			res.PD25mmMet = increase >= cfg.PDAbsoluteThresholdMM-eps
		}
	}

	fromNadir := fmt.Sprintf("SLD %.1f mm vs nadir %.1f mm (%+.1f mm, %+.1f%%)", cur, nadir, increase, pct(rel))
	if !in.Complete {
		if res.PDMet {
			res.Response = model.TargetPD
			res.Justification = "partial " + fromNadir + " already meets progression"
			return res
		}
		res.PDMet = false
		res.PD25mmMet = false
		res.Response = model.TargetNE
		res.Justification = "incomplete target measurements; partial " + fromNadir
		return res
	}

	fromBase := (cur - base) / base
	switch {
	case math.Abs(cur) <= eps:
		res.Response = model.TargetCR
		res.Justification = "all target lesions disappeared"
	case res.PDMet:
		res.Response = model.TargetPD
		res.Justification = fromNadir + " meets progression"
	case fromBase <= -cfg.PRRelativeThreshold+eps:
		res.Response = model.TargetPR
		res.Justification = fmt.Sprintf("SLD %.1f mm vs baseline %.1f mm (%+.1f%%)", cur, base, fromBase*100)
	default:
		res.Response = model.TargetSD
		res.Justification = fmt.Sprintf("SLD %.1f mm: %+.1f%% from baseline, %+.1f%% from nadir", cur, fromBase*100, pct(rel))
	}
	return res
}

// relativeChange is delta/ref; growth from a zero nadir counts as infinite.
func relativeChange(delta, ref float64) float64 {
	if ref > eps {
		return delta / ref
	}
	if delta > eps {
		return math.Inf(1)
	}
	return 0
}

func pct(rel float64) float64 {
	if math.IsInf(rel, 0) {
		return 0
	}
	return rel * 100
}
