package analysis

import (
	"encoding/json"
	"io"
	"math"
	"testing"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransform() *ViewTransform {
	return NewViewTransform(5, 1, 200)
}

func newFacade() *AnalysisFacade {
	cfg := &models.MConfig{Viewer: models.MViewerConfig{BaselineSamples: 5, GainMin: 1, GainMax: 200}}
	log := logger.NewLoggerWithWriter(io.Discard, "test", logger.LevelError)
	return NewAnalysisFacade(cfg, log)
}

// floats dereferences frame values; nil becomes NaN.
func floats(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

func TestRelativeTransform(t *testing.T) {
	tr := newTransform()
	raw := []float64{10, 12, 11, 13, 9, 15}

	display, baseline := tr.Apply(raw, models.ViewRelative, 10)
	require.NotNil(t, baseline)
	assert.Equal(t, 11.0, *baseline)
	assert.Equal(t, 40.0, display[5])
	assert.Equal(t, -10.0, display[0])
	assert.Equal(t, []float64{10, 12, 11, 13, 9, 15}, raw)
}

func TestGainOneIsAbsolute(t *testing.T) {
	tr := newTransform()
	raw := []float64{3, 1, 4, 1, 5, 9}

	display, baseline := tr.Apply(raw, models.ViewRelative, 1)
	assert.Nil(t, baseline)
	assert.Equal(t, raw, display)

	display, baseline = tr.Apply(raw, models.ViewAbsolute, 50)
	assert.Nil(t, baseline)
	assert.Equal(t, raw, display)
}

func TestBaselineUsesAvailableSamples(t *testing.T) {
	tr := newTransform()

	base, ok := tr.Baseline([]float64{4, 2})
	assert.True(t, ok)
	assert.Equal(t, 3.0, base)

	_, ok = tr.Baseline(nil)
	assert.False(t, ok)

	display, baseline := tr.Apply(nil, models.ViewRelative, 5)
	assert.Nil(t, baseline)
	assert.Empty(t, display)
}

func TestValidateGain(t *testing.T) {
	tr := newTransform()
	assert.NoError(t, tr.ValidateGain(1))
	assert.NoError(t, tr.ValidateGain(200))
	assert.ErrorIs(t, tr.ValidateGain(0), helpers.ErrGainOutOfRange)
	assert.ErrorIs(t, tr.ValidateGain(201), helpers.ErrGainOutOfRange)
}

func TestApplyAll(t *testing.T) {
	tr := newTransform()
	out := tr.ApplyAll([][]float64{{1, 2, 3}, {10}}, models.ViewRelative, 2)
	assert.Equal(t, [][]float64{{-2, 0, 2}, {0}}, out)
}

func TestAssembleRightAligned(t *testing.T) {
	a := NewChartAssembler()
	chart := a.Assemble([][]float64{{1, 2, 3}, {9}}, []string{"a"})

	require.Equal(t, 3, chart.Length)
	require.Len(t, chart.Rows, 3)

	assert.Equal(t, 0, chart.Rows[0].Index)
	assert.Equal(t, 1.0, *chart.Rows[0].Values["a"])
	assert.Nil(t, chart.Rows[0].Values["v2"])
	assert.Contains(t, chart.Rows[0].Values, "v2")

	assert.Nil(t, chart.Rows[1].Values["v2"])
	assert.Equal(t, 9.0, *chart.Rows[2].Values["v2"])
	assert.Equal(t, 3.0, *chart.Rows[2].Values["a"])
}

func TestAssembleNonFinite(t *testing.T) {
	a := NewChartAssembler()
	chart := a.Assemble([][]float64{{math.NaN(), math.Inf(-1), 2}}, []string{"x"})

	assert.Nil(t, chart.Rows[0].Values["x"])
	assert.Nil(t, chart.Rows[1].Values["x"])
	assert.Equal(t, 2.0, *chart.Rows[2].Values["x"])
}

func TestAssembleEmpty(t *testing.T) {
	chart := NewChartAssembler().Assemble(nil, nil)
	assert.Equal(t, 0, chart.Length)
	assert.Empty(t, chart.Rows)
}

func TestYDomain(t *testing.T) {
	assert.Equal(t, [2]float64{0, 1}, YDomain(nil))

	d := YDomain([]float64{5, 5})
	assert.InDelta(t, 4.9, d[0], 1e-12)
	assert.InDelta(t, 5.1, d[1], 1e-12)

	d = YDomain([]float64{0, 10})
	assert.InDelta(t, -1.0, d[0], 1e-12)
	assert.InDelta(t, 11.0, d[1], 1e-12)
}

func TestBuildFrame(t *testing.T) {
	facade := newFacade()
	facade.now = func() time.Time { return time.UnixMilli(1700000000000) }

	snap := models.MSeriesSnapshot{
		Labels: []string{"temp"},
		Series: [][]float64{{10, 12, 11, 13, 9, 15}, {1}},
	}
	frame := facade.BuildFrame(snap, models.ViewRelative, 10)

	assert.Equal(t, "FRAME", frame.Type)
	assert.Equal(t, models.ViewRelative, frame.Mode)
	assert.Equal(t, 10, frame.Gain)
	assert.Equal(t, []string{"temp", "v2"}, frame.Labels)
	assert.Equal(t, int64(1700000000000), frame.Timestamp)

	require.Len(t, frame.Series, 2)
	temp := frame.Series[0]
	assert.Equal(t, 40.0, floats(temp.Display)[5])
	require.NotNil(t, temp.Baseline)
	assert.Equal(t, 11.0, *temp.Baseline)
	require.NotNil(t, temp.Mean)
	assert.InDelta(t, 70.0/6.0, *temp.Mean, 1e-12)
	assert.Equal(t, snap.Series[0], floats(temp.Raw))

	assert.Equal(t, 6, frame.Chart.Length)
	assert.Equal(t, 0.0, *frame.Chart.Rows[5].Values["v2"])
	assert.Nil(t, frame.Chart.Rows[4].Values["v2"])
}

func TestBuildFrameOverflowStillEncodes(t *testing.T) {
	facade := newFacade()

	// Squared deviations overflow the standard deviation
	frame := facade.BuildFrame(models.MSeriesSnapshot{Series: [][]float64{{1e200, -1e200}}}, models.ViewAbsolute, 1)
	require.Len(t, frame.Series, 1)
	assert.Nil(t, frame.Series[0].Std)
	_, err := json.Marshal(frame)
	require.NoError(t, err)

	// Relative gain pushes the last point past the float range
	frame = facade.BuildFrame(models.MSeriesSnapshot{Series: [][]float64{{1e307, 1e307, 1e307, -1e307}}}, models.ViewRelative, 200)
	display := frame.Series[0].Display
	require.Len(t, display, 4)
	assert.Equal(t, 0.0, *display[0])
	assert.Nil(t, display[3])
	assert.Nil(t, frame.Chart.Rows[3].Values["v1"])
	assert.False(t, math.IsInf(frame.Series[0].YDomain[0], 0))
	assert.False(t, math.IsInf(frame.Series[0].YDomain[1], 0))

	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"display":[0,0,0,null]`)
}

func TestYDomainWideRange(t *testing.T) {
	d := YDomain([]float64{-math.MaxFloat64, math.MaxFloat64})
	assert.Equal(t, -math.MaxFloat64, d[0])
	assert.Equal(t, math.MaxFloat64, d[1])
}
