package series

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/oncoresp/internal/model"
)

var ref = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

// pt builds a point at the given study day (day 1 = ref).
func pt(studyDay int, v *float64) Point {
	offset := studyDay - 1
	if studyDay < 0 {
		offset = studyDay
	}
	return Point{Date: ref.AddDate(0, 0, offset), StudyDay: studyDay, Value: v}
}

var standard = Methods{Baseline: model.BaselinePretreat, Nadir: model.NadirStandard}

func TestTrack_PretreatUsesLastPretreatmentValue(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(-20, f(110)),
		pt(-3, f(100)),
		pt(42, f(80)),
	}, standard)
	require.NoError(t, err)
	require.NotNil(t, s.Baseline)
	assert.Equal(t, 100.0, *s.Baseline)
	assert.False(t, s.Points[0].IsBaseline)
	assert.True(t, s.Points[1].IsBaseline)
	assert.True(t, s.Points[2].PostBaseline)
	assert.Equal(t, -20.0, *s.Points[2].ChangeFromBaseline)
	assert.InDelta(t, -20.0, *s.Points[2].PercentChangeFromBaseline, 1e-9)
}

func TestTrack_FirstMethodIgnoresDay(t *testing.T) {
	s, err := Track("S1", model.ParamDFLC, []Point{
		pt(1, nil),
		pt(5, f(300)),
		pt(33, f(150)),
	}, Methods{Baseline: model.BaselineFirst, Nadir: model.NadirStandard})
	require.NoError(t, err)
	require.NotNil(t, s.Baseline)
	assert.Equal(t, 300.0, *s.Baseline)
	assert.True(t, s.Points[1].IsBaseline)
	assert.False(t, s.Points[0].PostBaseline)
	assert.InDelta(t, -50.0, *s.Points[2].PercentChangeFromBaseline, 1e-9)
}

func TestTrack_MissingBaselineLeavesPercentUndefined(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(29, f(80)),
		pt(57, f(90)),
	}, standard)
	require.NoError(t, err)
	assert.Nil(t, s.Baseline)
	for _, p := range s.Points {
		assert.Nil(t, p.PercentChangeFromBaseline)
		assert.Nil(t, p.ChangeFromBaseline)
	}
	require.NotEmpty(t, s.Findings)
	assert.Equal(t, model.FindingMissingBaseline, s.Findings[0].Code)
}

func TestTrack_NadirMonotonicAndCarriedForward(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(-1, f(100)),
		pt(43, f(70)),
		pt(85, nil),
		pt(127, f(90)),
		pt(169, f(60)),
	}, standard)
	require.NoError(t, err)

	wantNadir := []float64{100, 70, 70, 70, 60}
	for i, p := range s.Points {
		require.NotNil(t, p.Nadir, "point %d", i)
		assert.Equal(t, wantNadir[i], *p.Nadir, "point %d", i)
		if i > 0 {
			assert.LessOrEqual(t, *p.Nadir, *s.Points[i-1].Nadir)
		}
		if p.PostBaseline && p.Value != nil {
			assert.LessOrEqual(t, *p.Nadir, *p.Value)
		}
	}
	// Missing value: carried nadir, no derived fields.
	assert.Nil(t, s.Points[2].ChangeFromNadir)
	// Progression reference is the nadir before the visit.
	assert.Equal(t, 70.0, *s.Points[3].ReferenceNadir)
	assert.InDelta(t, 28.571428, *s.Points[3].PercentChangeFromNadir, 1e-5)
}

func TestTrack_ExcludeBaselineNadir(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(-1, f(50)),
		pt(43, f(60)),
		pt(85, f(58)),
	}, Methods{Baseline: model.BaselinePretreat, Nadir: model.NadirExcludeBaseline})
	require.NoError(t, err)
	assert.Nil(t, s.Points[0].Nadir)
	// No on-treatment nadir before the first visit: baseline is the reference.
	assert.Equal(t, 50.0, *s.Points[1].ReferenceNadir)
	assert.Equal(t, 60.0, *s.Points[1].Nadir)
	assert.Equal(t, 60.0, *s.Points[2].ReferenceNadir)
	assert.Equal(t, 58.0, *s.Points[2].Nadir)
}

func TestTrack_DuplicateBaselineSameValueWarns(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(-2, f(100)),
		pt(-2, f(100)),
		pt(30, f(90)),
	}, standard)
	require.NoError(t, err)
	assert.True(t, s.Points[1].IsBaseline)
	assert.False(t, s.Points[0].IsBaseline)
	require.Len(t, s.Findings, 1)
	assert.Equal(t, model.FindingDuplicateBaseline, s.Findings[0].Code)
}

func TestTrack_TiedBaselineFails(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{
		pt(-2, f(100)),
		pt(-2, f(95)),
		pt(30, f(90)),
	}, standard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTiedBaseline))
	require.NotEmpty(t, s.Findings)
	assert.Equal(t, model.SeverityError, s.Findings[0].Severity)
}

func TestTrack_RejectsUnsortedInput(t *testing.T) {
	_, err := Track("S1", model.ParamTargetSum, []Point{pt(30, f(1)), pt(-1, f(2))}, standard)
	assert.Error(t, err)
}

func TestTrack_NoPostBaselineWarns(t *testing.T) {
	s, err := Track("S1", model.ParamTargetSum, []Point{pt(-1, f(100))}, standard)
	require.NoError(t, err)
	require.Len(t, s.Findings, 1)
	assert.Equal(t, model.FindingNoPostBaseline, s.Findings[0].Code)
}

func TestTrack_Idempotent(t *testing.T) {
	pts := []Point{pt(-1, f(100)), pt(43, f(70)), pt(85, f(75))}
	a, err := Track("S1", model.ParamTargetSum, pts, standard)
	require.NoError(t, err)
	b, err := Track("S1", model.ParamTargetSum, pts, standard)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
