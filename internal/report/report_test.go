package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/model"
)

func f(v float64) *float64 { return &v }

func TestNewRate(t *testing.T) {
	r, err := NewRate(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Estimate)

	r, err = NewRate(5, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, r.Estimate)
	// Exact interval for 5/10.
	assert.InDelta(t, 0.187, r.Lower, 0.001)
	assert.InDelta(t, 0.813, r.Upper, 0.001)

	r, err = NewRate(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Lower)
	assert.Less(t, r.Upper, 0.35)

	r, err = NewRate(10, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Upper)

	_, err = NewRate(3, 2)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.N)

	s, err = Summarize([]float64{-50, -30, 10})
	require.NoError(t, err)
	assert.Equal(t, 3, s.N)
	assert.Equal(t, -30.0, s.Median)
	assert.Equal(t, -50.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
}

func TestBuild(t *testing.T) {
	bors := []model.BORRecord{
		{SubjectID: "S1", ParameterCode: "BOR", BORCode: "PR", Confirmed: true},
		{SubjectID: "S2", ParameterCode: "BOR", BORCode: "PR", Confirmed: false},
		{SubjectID: "S3", ParameterCode: "BOR", BORCode: "SD"},
		{SubjectID: "S4", ParameterCode: "BOR", BORCode: "PD"},
		{SubjectID: "M1", ParameterCode: "BHEMRESP", BORCode: "MR", Confirmed: true},
		{SubjectID: "M2", ParameterCode: "BHEMRESP", BORCode: "VGPR", Confirmed: true},
	}
	responses := []model.ResponseRecord{
		{SubjectID: "S1", ParameterCode: "OVRLRESP", PercentChangeFromBaseline: f(-40)},
		{SubjectID: "S1", ParameterCode: "OVRLRESP", PercentChangeFromBaseline: f(-44)},
		{SubjectID: "S3", ParameterCode: "OVRLRESP", PercentChangeFromBaseline: f(-10)},
		{SubjectID: "S3", ParameterCode: "IOVRLRSP", PercentChangeFromBaseline: f(-90)},
		{SubjectID: "M1", ParameterCode: "HEMRESP", PercentChangeFromBaseline: f(-30)},
	}
	events := []model.EventRecord{
		{SubjectID: "S1", EndpointCode: "PFS", EventIndicator: 0, CensorReason: "PD"},
		{SubjectID: "S3", EndpointCode: "PFS", EventIndicator: 1, CensorReason: "LAST_ASSESS"},
		{SubjectID: "S1", EndpointCode: "DOR", EventIndicator: 0, CensorReason: "PD"},
	}

	c, err := Build(bors, responses, events)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Subjects)
	assert.Equal(t, 1, c.ORR.Numerator)
	assert.Equal(t, 4, c.ORR.Denominator)
	assert.Equal(t, 3, c.DCR.Numerator)
	assert.Equal(t, 1, c.HemeORR.Numerator, "MR does not count toward ORR")
	assert.Equal(t, 2, c.HemeORR.Denominator)
	assert.Equal(t, 2, c.BestPercentChange.N)
	assert.Equal(t, -44.0, c.BestPercentChange.Min)
	assert.Equal(t, 1, c.PFSEvents)
	assert.Equal(t, map[string]int{"PD": 1, "LAST_ASSESS": 1}, c.CensorReasons)

	var buf bytes.Buffer
	c.Write(&buf)
	assert.Contains(t, buf.String(), "ORR (confirmed): 1/4 25.0%")
	assert.Contains(t, buf.String(), "IMWG ORR")
}

func TestBuild_UnknownCode(t *testing.T) {
	_, err := Build([]model.BORRecord{{SubjectID: "S1", ParameterCode: "BOR", BORCode: "XX"}}, nil, nil)
	assert.Error(t, err)
}
