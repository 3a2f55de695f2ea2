package imwg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/config"
	"github.com/gyeh/oncoresp/internal/model"
)

var ref = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func day(studyDay int) time.Time {
	if studyDay < 0 {
		return ref.AddDate(0, 0, studyDay)
	}
	return ref.AddDate(0, 0, studyDay-1)
}

func dflc(studyDay int, v float64) model.Assessment {
	return model.Assessment{SubjectID: "M1", Param: model.ParamDFLC, Date: day(studyDay), StudyDay: studyDay, Value: f(v)}
}

func TestClassify(t *testing.T) {
	cfg := config.DefaultDerivation().IMWG
	tests := []struct {
		name string
		in   VisitInput
		want model.HemeResponse
	}{
		{"PD from nadir", VisitInput{DFLC: f(200), Baseline: f(400), Nadir: f(100)}, model.HemePD},
		{"increase below 50 mg/L is not PD", VisitInput{DFLC: f(130), Baseline: f(400), Nadir: f(100)}, model.HemePR},
		{"sCR", VisitInput{DFLC: f(10), Baseline: f(400), Nadir: f(10), IFE: model.QualNegative, Ratio: f(1.0)}, model.HemeSCR},
		{"sCR without dFLC", VisitInput{Baseline: f(400), Nadir: f(10), IFE: model.QualNegative, Ratio: f(1.0)}, model.HemeSCR},
		{"CR with abnormal ratio", VisitInput{DFLC: f(10), Baseline: f(400), Nadir: f(10), IFE: model.QualNegative, Ratio: f(2.0)}, model.HemeCR},
		{"VGPR below 40", VisitInput{DFLC: f(30), Baseline: f(400), Nadir: f(30), IFE: model.QualPositive}, model.HemeVGPR},
		{"VGPR by 90% reduction", VisitInput{DFLC: f(90), Baseline: f(1000), Nadir: f(90)}, model.HemeVGPR},
		{"PR", VisitInput{DFLC: f(180), Baseline: f(400), Nadir: f(180)}, model.HemePR},
		{"PR needs 50 mg/L decrease", VisitInput{DFLC: f(44), Baseline: f(90), Nadir: f(44)}, model.HemeMR},
		{"MR is 25-49%", VisitInput{DFLC: f(280), Baseline: f(400), Nadir: f(280)}, model.HemeMR},
		{"SD", VisitInput{DFLC: f(380), Baseline: f(400), Nadir: f(380)}, model.HemeSD},
		{"NE without dFLC", VisitInput{Baseline: f(400), IFE: model.QualPositive}, model.HemeNE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, why := Classify(tt.in, cfg)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, why)
		})
	}
}

func TestEvaluate_ConfirmedPRThenPD(t *testing.T) {
	rows := []model.Assessment{
		dflc(-3, 400),
		dflc(29, 180),
		dflc(60, 170),
		dflc(100, 300),
	}
	res, err := Evaluate("M1", rows, nil, config.DefaultDerivation())
	require.NoError(t, err)
	require.Len(t, res.Responses, 3)
	assert.Equal(t, "PR", res.Responses[0].ResponseCode)
	assert.Equal(t, "PR", res.Responses[1].ResponseCode)
	assert.Equal(t, "PD", res.Responses[2].ResponseCode)
	assert.True(t, res.Responses[0].Confirmed)
	assert.False(t, res.Responses[1].Confirmed)
	assert.Equal(t, string(model.ParamHemeResponse), res.Responses[0].ParameterCode)

	require.NotNil(t, res.BOR)
	assert.Equal(t, "PR", res.BOR.BORCode)
	assert.True(t, res.BOR.Confirmed)
	assert.Equal(t, string(model.ParamBestHemeResp), res.BOR.ParameterCode)
}

func TestEvaluate_MinimalResponseExcludedFromORR(t *testing.T) {
	rows := []model.Assessment{dflc(-3, 400), dflc(29, 280), dflc(60, 290)}
	res, err := Evaluate("M1", rows, nil, config.DefaultDerivation())
	require.NoError(t, err)
	require.NotNil(t, res.BOR)
	assert.Equal(t, "MR", res.BOR.BORCode)
	assert.True(t, res.BOR.Confirmed)

	r, err := model.ParseHemeResponse(res.BOR.BORCode)
	require.NoError(t, err)
	assert.False(t, r.CountsTowardORR())
}

func TestEvaluate_UnconfirmedResponseCountsAsSD(t *testing.T) {
	rows := []model.Assessment{dflc(-3, 400), dflc(29, 180), dflc(40, 175)}
	res, err := Evaluate("M1", rows, nil, config.DefaultDerivation())
	require.NoError(t, err)
	require.NotNil(t, res.BOR)
	assert.Equal(t, "SD", res.BOR.BORCode)
	assert.False(t, res.BOR.Confirmed)
}

func TestEvaluate_TiedBaselineRejects(t *testing.T) {
	rows := []model.Assessment{dflc(-3, 400), dflc(-3, 420), dflc(29, 180)}
	res, err := Evaluate("M1", rows, nil, config.DefaultDerivation())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Nil(t, res.BOR)
	assert.Empty(t, res.Responses)
}

func TestEvaluate_IgnoresSolidTumorRows(t *testing.T) {
	rows := []model.Assessment{
		{SubjectID: "M1", Param: model.ParamTargetSum, Date: day(-3), StudyDay: -3, Value: f(50)},
	}
	res, err := Evaluate("M1", rows, nil, config.DefaultDerivation())
	require.NoError(t, err)
	assert.Nil(t, res.BOR)
	assert.Empty(t, res.Responses)
}

func TestEvaluate_ResponseAfterNewTherapyIgnored(t *testing.T) {
	rows := []model.Assessment{dflc(-3, 400), dflc(29, 380), dflc(90, 150), dflc(120, 150)}
	newTx := day(60)
	res, err := Evaluate("M1", rows, &newTx, config.DefaultDerivation())
	require.NoError(t, err)
	require.Len(t, res.Responses, 3)
	assert.Equal(t, "PR", res.Responses[1].ResponseCode)
	assert.True(t, res.Responses[1].Confirmed, "per-visit confirmation still reads every visit")

	require.NotNil(t, res.BOR)
	assert.Equal(t, "SD", res.BOR.BORCode, res.BOR.Basis)
	assert.False(t, res.BOR.Confirmed)
	assert.Equal(t, model.FormatDate(day(29)), *res.BOR.BORDate)
}

func TestEvaluate_AllAssessmentsAfterNewTherapy(t *testing.T) {
	rows := []model.Assessment{dflc(-3, 400), dflc(90, 150), dflc(120, 150)}
	newTx := day(10)
	res, err := Evaluate("M1", rows, &newTx, config.DefaultDerivation())
	require.NoError(t, err)
	require.NotNil(t, res.BOR)
	assert.Equal(t, "NE", res.BOR.BORCode)
	assert.Nil(t, res.BOR.BORDate)
}
