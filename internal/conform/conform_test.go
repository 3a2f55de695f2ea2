package conform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/model"
)

func validRecords() []model.ResponseRecord {
	return []model.ResponseRecord{
		{SubjectID: "S1", ParameterCode: "OVRLRESP", Seq: 1, Visit: "WEEK 6", VisitDate: "2024-02-21", StudyDay: 43, ResponseCode: "PR"},
		{SubjectID: "S1", ParameterCode: "IOVRLRSP", Seq: 2, Visit: "WEEK 6", VisitDate: "2024-02-21", StudyDay: 43, ResponseCode: "iPR"},
		{SubjectID: "S2", ParameterCode: "HEMRESP", Seq: 1, VisitDate: "2024-03-01", StudyDay: 29, ResponseCode: "VGPR"},
	}
}

func TestFromResponses(t *testing.T) {
	rs := FromResponses("ONC-001", validRecords())
	require.Len(t, rs, 3)
	assert.Equal(t, "RS", rs[0].DOMAIN)
	assert.Equal(t, "ONC-001", rs[0].STUDYID)
	assert.Equal(t, "Overall Response by RECIST 1.1", rs[0].RSTEST)
	assert.Equal(t, "iRECIST", rs[1].RSCAT)
	assert.Equal(t, "IMWG", rs[2].RSCAT)
}

func TestCheck_Clean(t *testing.T) {
	assert.Empty(t, Check(FromResponses("ONC-001", validRecords())))
}

func TestCheck_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]RSRecord)
		rule   string
	}{
		{"missing study id", func(rs []RSRecord) { rs[0].STUDYID = "" }, RuleRequired},
		{"unassigned sequence", func(rs []RSRecord) { rs[0].RSSEQ = 0 }, RuleRequired},
		{"wrong domain", func(rs []RSRecord) { rs[0].DOMAIN = "TR" }, RuleDomain},
		{"long test code", func(rs []RSRecord) { rs[0].RSTESTCD = "OVERALLRESP" }, RuleTestCode},
		{"duplicate sequence", func(rs []RSRecord) { rs[1].RSSEQ = 1 }, RuleSequence},
		{"bad date", func(rs []RSRecord) { rs[0].RSDTC = "21/02/2024x" }, RuleDate},
		{"result outside codelist", func(rs []RSRecord) { rs[0].RSSTRESC = "VGPR" }, RuleTerminology},
		{"long visit", func(rs []RSRecord) { rs[0].VISIT = strings.Repeat("V", 41) }, RuleLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := FromResponses("ONC-001", validRecords())
			tt.mutate(rs)
			findings := Check(rs)
			require.NotEmpty(t, findings)
			var rules []string
			for _, f := range findings {
				assert.Equal(t, model.FindingConformance, f.Code)
				rules = append(rules, strings.SplitN(f.Message, ":", 2)[0])
			}
			assert.Contains(t, rules, tt.rule)
		})
	}
}

func TestCheck_SequenceScopedToSubject(t *testing.T) {
	rs := FromResponses("ONC-001", validRecords())
	// S1 and S2 both use RSSEQ 1.
	assert.Empty(t, Check(rs))
}

func TestValues_DomainOrder(t *testing.T) {
	rs := FromResponses("ONC-001", validRecords())
	vals := rs[0].Values()
	require.Len(t, vals, len(Names()))
	assert.Equal(t, "STUDYID", Names()[0])
	assert.Equal(t, "ONC-001", vals[0])
	assert.Equal(t, int32(1), vals[3])
	assert.Equal(t, int32(43), vals[len(vals)-1])
}
