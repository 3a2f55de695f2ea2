// Package conform maps derived response records onto the RS (Disease
// Response) domain layout and checks them against its structural rules.
package conform

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/normalize"
)

// Domain is the two-character domain abbreviation of every RS record.
const Domain = "RS"

// Rule identifiers reported on conformance findings.
const (
	RuleRequired    = "SDTM001"
	RuleDomain      = "SDTM002"
	RuleTestCode    = "SDTM003"
	RuleLength      = "SDTM004"
	RuleSequence    = "SDTM005"
	RuleDate        = "SDTM006"
	RuleTerminology = "SDTM007"
)

// RSRecord is one response record in RS domain form.
type RSRecord struct {
	STUDYID  string
	DOMAIN   string
	USUBJID  string
	RSSEQ    int32
	RSTESTCD string
	RSTEST   string
	RSCAT    string
	RSORRES  string
	RSSTRESC string
	VISIT    string
	RSDTC    string
	RSDY     int32
}

// Variable describes one RS variable.
type Variable struct {
	Name     string
	Label    string
	Length   int
	Required bool
}

// Variables lists the RS variables in domain order.
var Variables = []Variable{
	{Name: "STUDYID", Label: "Study Identifier", Length: 12, Required: true},
	{Name: "DOMAIN", Label: "Domain Abbreviation", Length: 2, Required: true},
	{Name: "USUBJID", Label: "Unique Subject Identifier", Length: 40, Required: true},
	{Name: "RSSEQ", Label: "Sequence Number", Length: 8, Required: true},
	{Name: "RSTESTCD", Label: "Response Assessment Short Name", Length: 8, Required: true},
	{Name: "RSTEST", Label: "Response Assessment Name", Length: 40, Required: true},
	{Name: "RSCAT", Label: "Category for Response", Length: 40},
	{Name: "RSORRES", Label: "Result in Original Units", Length: 200},
	{Name: "RSSTRESC", Label: "Character Result/Finding in Std Format", Length: 200},
	{Name: "VISIT", Label: "Visit Name", Length: 40},
	{Name: "RSDTC", Label: "Date/Time of Response Assessment", Length: 20},
	{Name: "RSDY", Label: "Study Day of Response Assessment", Length: 8},
}

var testCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,7}$`)

// terminology holds the allowed standardized results per test code.
var terminology = map[string][]string{
	string(model.ParamOverallResponse): {"CR", "PR", "SD", "PD", "NE"},
	string(model.ParamImmuneResponse):  {"iCR", "iPR", "iSD", "iUPD", "iCPD", "NE"},
	string(model.ParamHemeResponse):    {"sCR", "CR", "VGPR", "PR", "MR", "SD", "PD", "NE"},
}

func category(code string) string {
	switch model.ParameterCode(code) {
	case model.ParamHemeResponse:
		return "IMWG"
	case model.ParamImmuneResponse:
		return "iRECIST"
	}
	return "RECIST 1.1"
}

// Text returns the value of a character variable; ok is false for numeric
// or unknown variables.
func (r RSRecord) Text(name string) (string, bool) {
	switch name {
	case "STUDYID":
		return r.STUDYID, true
	case "DOMAIN":
		return r.DOMAIN, true
	case "USUBJID":
		return r.USUBJID, true
	case "RSTESTCD":
		return r.RSTESTCD, true
	case "RSTEST":
		return r.RSTEST, true
	case "RSCAT":
		return r.RSCAT, true
	case "RSORRES":
		return r.RSORRES, true
	case "RSSTRESC":
		return r.RSSTRESC, true
	case "VISIT":
		return r.VISIT, true
	case "RSDTC":
		return r.RSDTC, true
	}
	return "", false
}

// Values returns the record's values in Variables order.
func (r RSRecord) Values() []any {
	out := make([]any, len(Variables))
	for i, v := range Variables {
		switch v.Name {
		case "RSSEQ":
			out[i] = r.RSSEQ
		case "RSDY":
			out[i] = r.RSDY
		default:
			out[i], _ = r.Text(v.Name)
		}
	}
	return out
}

// Names returns the variable names in domain order.
func Names() []string {
	out := make([]string, len(Variables))
	for i, v := range Variables {
		out[i] = v.Name
	}
	return out
}

// FromResponses maps response records to RS records.
func FromResponses(studyID string, recs []model.ResponseRecord) []RSRecord {
	out := make([]RSRecord, len(recs))
	for i, r := range recs {
		out[i] = RSRecord{
			STUDYID:  studyID,
			DOMAIN:   Domain,
			USUBJID:  r.SubjectID,
			RSSEQ:    r.Seq,
			RSTESTCD: r.ParameterCode,
			RSTEST:   model.ParameterCode(r.ParameterCode).Label(),
			RSCAT:    category(r.ParameterCode),
			RSORRES:  r.ResponseCode,
			RSSTRESC: r.ResponseCode,
			VISIT:    r.Visit,
			RSDTC:    r.VisitDate,
			RSDY:     r.StudyDay,
		}
	}
	return out
}

// Check runs the RS structural rules and returns one finding per violation.
func Check(recs []RSRecord) []model.Finding {
	var findings []model.Finding
	fail := func(r RSRecord, rule, format string, args ...any) {
		findings = append(findings, model.Fail(r.USUBJID, model.ParameterCode(r.RSTESTCD), model.FindingConformance,
			"%s: %s", rule, fmt.Sprintf(format, args...)))
	}
	warn := func(r RSRecord, rule, format string, args ...any) {
		findings = append(findings, model.Warn(r.USUBJID, model.ParameterCode(r.RSTESTCD), model.FindingConformance,
			"%s: %s", rule, fmt.Sprintf(format, args...)))
	}

	seen := make(map[string]map[int32]bool)
	for _, r := range recs {
		for _, v := range Variables {
			text, ok := r.Text(v.Name)
			if !ok {
				continue
			}
			if v.Required && text == "" {
				fail(r, RuleRequired, "required variable %s is empty", v.Name)
			}
			if len(text) > v.Length {
				warn(r, RuleLength, "%s exceeds %d characters", v.Name, v.Length)
			}
		}
		if r.RSSEQ < 1 {
			fail(r, RuleRequired, "required variable RSSEQ is not assigned")
		}
		if r.DOMAIN != Domain {
			fail(r, RuleDomain, "DOMAIN must equal %q, got %q", Domain, r.DOMAIN)
		}
		if r.RSTESTCD != "" && !testCodePattern.MatchString(r.RSTESTCD) {
			fail(r, RuleTestCode, "RSTESTCD %q must be 1-8 characters, start with a letter and use A-Z, 0-9 or _", r.RSTESTCD)
		}
		if r.RSSEQ >= 1 {
			bySubj, ok := seen[r.USUBJID]
			if !ok {
				bySubj = make(map[int32]bool)
				seen[r.USUBJID] = bySubj
			}
			if bySubj[r.RSSEQ] {
				fail(r, RuleSequence, "RSSEQ %d is not unique within the subject", r.RSSEQ)
			}
			bySubj[r.RSSEQ] = true
		}
		if r.RSDTC != "" && normalize.ParseDate(r.RSDTC) == nil {
			fail(r, RuleDate, "RSDTC %q is not an ISO 8601 date", r.RSDTC)
		}
		if allowed, ok := terminology[r.RSTESTCD]; ok && !contains(allowed, r.RSSTRESC) {
			fail(r, RuleTerminology, "RSSTRESC %q is not in the %s codelist", r.RSSTRESC, r.RSTESTCD)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].SubjectID != findings[j].SubjectID {
			return findings[i].SubjectID < findings[j].SubjectID
		}
		return findings[i].Message < findings[j].Message
	})
	return findings
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
