package model

import (
	"fmt"
	"strings"
)

// TargetResponse is the per-visit classification of target lesions.
type TargetResponse uint8

const (
	TargetNotAssessed TargetResponse = iota
	TargetCR
	TargetPR
	TargetSD
	TargetPD
	TargetNE
)

var targetNames = [...]string{"NA", "CR", "PR", "SD", "PD", "NE"}

func (r TargetResponse) String() string {
	if int(r) < len(targetNames) {
		return targetNames[r]
	}
	return fmt.Sprintf("TargetResponse(%d)", r)
}

// NonTargetResponse is the per-visit classification of non-target lesions.
type NonTargetResponse uint8

const (
	NonTargetNotAssessed NonTargetResponse = iota
	NonTargetCR
	NonTargetNonCRNonPD
	NonTargetPD
	NonTargetNE
)

var nonTargetNames = [...]string{"NA", "CR", "NON-CR/NON-PD", "PD", "NE"}

func (r NonTargetResponse) String() string {
	if int(r) < len(nonTargetNames) {
		return nonTargetNames[r]
	}
	return fmt.Sprintf("NonTargetResponse(%d)", r)
}

// OverallResponse is the integrated RECIST 1.1 response at a visit.
type OverallResponse uint8

const (
	OverallNE OverallResponse = iota
	OverallPD
	OverallSD
	OverallPR
	OverallCR
)

var overallNames = [...]string{"NE", "PD", "SD", "PR", "CR"}

func (r OverallResponse) String() string {
	if int(r) < len(overallNames) {
		return overallNames[r]
	}
	return fmt.Sprintf("OverallResponse(%d)", r)
}

// Evaluable reports whether the response is an adequate, non-NE assessment.
func (r OverallResponse) Evaluable() bool {
	return r != OverallNE
}

// Responder reports whether the response is CR or PR.
func (r OverallResponse) Responder() bool {
	return r == OverallCR || r == OverallPR
}

// ParseOverallResponse maps a response code back to its enumeration value.
func ParseOverallResponse(s string) (OverallResponse, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range overallNames {
		if n == s {
			return OverallResponse(i), nil
		}
	}
	return OverallNE, fmt.Errorf("unknown overall response %q", s)
}

// ImmuneResponse is the iRECIST response at a visit.
type ImmuneResponse uint8

const (
	ImmuneNE ImmuneResponse = iota
	ImmuneCPD
	ImmuneUPD
	ImmuneSD
	ImmunePR
	ImmuneCR
)

var immuneNames = [...]string{"NE", "iCPD", "iUPD", "iSD", "iPR", "iCR"}

func (r ImmuneResponse) String() string {
	if int(r) < len(immuneNames) {
		return immuneNames[r]
	}
	return fmt.Sprintf("ImmuneResponse(%d)", r)
}

// HemeResponse is the IMWG hematologic response at a visit.
type HemeResponse uint8

const (
	HemeNE HemeResponse = iota
	HemePD
	HemeSD
	HemeMR
	HemePR
	HemeVGPR
	HemeCR
	HemeSCR
)

var hemeNames = [...]string{"NE", "PD", "SD", "MR", "PR", "VGPR", "CR", "sCR"}

func (r HemeResponse) String() string {
	if int(r) < len(hemeNames) {
		return hemeNames[r]
	}
	return fmt.Sprintf("HemeResponse(%d)", r)
}

// ParseHemeResponse maps a hematologic response code back to its enumeration value.
func ParseHemeResponse(s string) (HemeResponse, error) {
	s = strings.TrimSpace(s)
	for i, n := range hemeNames {
		if strings.EqualFold(n, s) {
			return HemeResponse(i), nil
		}
	}
	return HemeNE, fmt.Errorf("unknown hematologic response %q", s)
}

// CountsTowardORR reports whether the response is included in overall
// response rate aggregates. MR is explicitly excluded.
func (r HemeResponse) CountsTowardORR() bool {
	return r >= HemePR
}

// CensorReason is the reason attached to a time-to-event outcome.
type CensorReason uint8

const (
	ReasonProgression CensorReason = iota
	ReasonDeath
	ReasonSubsequentTx
	ReasonDiscontinuation
	ReasonLastAssessment
	ReasonNoPostBaseline
)

var censorNames = [...]string{"PD", "DEATH", "SUBSEQUENT_TX", "DISCONTINUATION", "LAST_ASSESS", "NO_POST_BASE"}

func (r CensorReason) String() string {
	if int(r) < len(censorNames) {
		return censorNames[r]
	}
	return fmt.Sprintf("CensorReason(%d)", r)
}

// IsEvent reports whether the reason denotes an event rather than censoring.
func (r CensorReason) IsEvent() bool {
	return r == ReasonProgression || r == ReasonDeath
}

// CensorTiming buckets the time to event/censoring for reporting only.
type CensorTiming uint8

const (
	TimingEarly CensorTiming = iota
	TimingMid
	TimingLate
)

var timingNames = [...]string{"EARLY", "MID", "LATE"}

func (t CensorTiming) String() string {
	if int(t) < len(timingNames) {
		return timingNames[t]
	}
	return fmt.Sprintf("CensorTiming(%d)", t)
}

// Qualitative is the coded qualitative value of a lesion assessment.
type Qualitative uint8

const (
	QualMissing Qualitative = iota
	QualAbsent
	QualPresent
	QualProgression
	QualNotEvaluable
	QualEquivocal
	QualYes
	QualNo
	QualNegative
	QualPositive
)

var qualNames = [...]string{"", "ABSENT", "PRESENT", "UNEQUIVOCAL PROGRESSION", "NOT EVALUABLE", "EQUIVOCAL", "Y", "N", "NEGATIVE", "POSITIVE"}

func (q Qualitative) String() string {
	if int(q) < len(qualNames) {
		return qualNames[q]
	}
	return fmt.Sprintf("Qualitative(%d)", q)
}
