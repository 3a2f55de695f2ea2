package recist

import "github.com/gyeh/oncoresp/internal/model"

// VisitSignals are the three inputs of the overall response at one visit.
type VisitSignals struct {
	Target    model.TargetResponse
	NonTarget model.NonTargetResponse
	NewLesion bool
}

// nonTarget returns the non-target response with NE folded into not assessed.
func (s VisitSignals) nonTarget() model.NonTargetResponse {
	if s.NonTarget == model.NonTargetNE {
		return model.NonTargetNotAssessed
	}
	return s.NonTarget
}

func (s VisitSignals) nonTargetIn(set ...model.NonTargetResponse) bool {
	nt := s.nonTarget()
	for _, r := range set {
		if nt == r {
			return true
		}
	}
	return false
}

// OverallRule is one row of the priority table.
type OverallRule struct {
	Name    string
	Match   func(VisitSignals) bool
	Outcome model.OverallResponse
	Reason  string
}

// OverallRules is evaluated top-down; the first matching rule wins.
var OverallRules = []OverallRule{
	{
		Name:    "new-lesion",
		Match:   func(s VisitSignals) bool { return s.NewLesion },
		Outcome: model.OverallPD,
		Reason:  "new lesion present",
	},
	{
		Name: "lesion-progression",
		Match: func(s VisitSignals) bool {
			return s.Target == model.TargetPD || s.NonTarget == model.NonTargetPD
		},
		Outcome: model.OverallPD,
		Reason:  "target or non-target progression",
	},
	{
		Name: "complete-response",
		Match: func(s VisitSignals) bool {
			return s.Target == model.TargetCR && s.nonTargetIn(model.NonTargetCR, model.NonTargetNotAssessed)
		},
		Outcome: model.OverallCR,
		Reason:  "target CR with non-target CR or not assessed",
	},
	{
		Name: "partial-response",
		Match: func(s VisitSignals) bool {
			return (s.Target == model.TargetCR || s.Target == model.TargetPR) &&
				s.nonTargetIn(model.NonTargetCR, model.NonTargetNonCRNonPD, model.NonTargetNotAssessed)
		},
		Outcome: model.OverallPR,
		Reason:  "target CR/PR without non-target progression",
	},
	{
		Name: "stable-disease",
		Match: func(s VisitSignals) bool {
			return s.Target == model.TargetSD &&
				s.nonTargetIn(model.NonTargetCR, model.NonTargetNonCRNonPD, model.NonTargetNotAssessed)
		},
		Outcome: model.OverallSD,
		Reason:  "target SD without non-target progression",
	},
	{
		Name: "non-target-only-cr",
		Match: func(s VisitSignals) bool {
			return s.Target == model.TargetNotAssessed && s.NonTarget == model.NonTargetCR
		},
		Outcome: model.OverallCR,
		Reason:  "non-target disease only, all lesions absent",
	},
	{
		Name: "non-target-only-stable",
		Match: func(s VisitSignals) bool {
			return s.Target == model.TargetNotAssessed && s.NonTarget == model.NonTargetNonCRNonPD
		},
		Outcome: model.OverallSD,
		Reason:  "non-target disease only, NON-CR/NON-PD",
	},
	{
		Name:    "not-evaluable",
		Match:   func(VisitSignals) bool { return true },
		Outcome: model.OverallNE,
		Reason:  "insufficient assessments",
	},
}

// Integrate resolves the overall response and returns the matching rule.
func Integrate(s VisitSignals) (model.OverallResponse, OverallRule) {
	for _, r := range OverallRules {
		if r.Match(s) {
			return r.Outcome, r
		}
	}
	last := OverallRules[len(OverallRules)-1]
	return last.Outcome, last
}
