package analysis

import (
	"telemetry-viewer/src/analysis/core"
	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// ViewTransform maps raw windows to display values.
//
// Absolute shows raw values. Relative shows (raw - baseline) * gain where the
// baseline is the median of the first BaselineSamples values of the window.
// A gain of 1 always shows raw values, whatever the mode.
// -----------------------------------------------------------------------------

type ViewTransform struct {
	BaselineSamples int
	GainMin         int
	GainMax         int
}

// -----------------------------------------------------------------------------

func NewViewTransform(baselineSamples, gainMin, gainMax int) *ViewTransform {
	if baselineSamples <= 0 {
		baselineSamples = utils.DefaultBaselineSamples
	}
	if gainMin <= 0 {
		gainMin = utils.DefaultGainMin
	}
	if gainMax < gainMin {
		gainMax = utils.DefaultGainMax
	}
	return &ViewTransform{
		BaselineSamples: baselineSamples,
		GainMin:         gainMin,
		GainMax:         gainMax,
	}
}

// -----------------------------------------------------------------------------

// ValidateGain reports whether gain is inside the configured range.
func (t *ViewTransform) ValidateGain(gain int) error {
	if gain < t.GainMin || gain > t.GainMax {
		return helpers.ErrGainOutOfRange
	}
	return nil
}

// -----------------------------------------------------------------------------

// IsIdentity reports whether mode and gain leave raw values untouched.
func (t *ViewTransform) IsIdentity(mode models.MViewMode, gain int) bool {
	return mode != models.ViewRelative || gain == 1
}

// -----------------------------------------------------------------------------

// Baseline returns the median of the first BaselineSamples values.
// ok is false for an empty series.
func (t *ViewTransform) Baseline(raw []float64) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	n := t.BaselineSamples
	if n > len(raw) {
		n = len(raw)
	}
	return core.Median(raw[:n]), true
}

// -----------------------------------------------------------------------------

// Apply transforms one raw window into a new slice; raw is never modified.
// baseline is nil when the window is shown as-is.
func (t *ViewTransform) Apply(raw []float64, mode models.MViewMode, gain int) (display []float64, baseline *float64) {
	display = make([]float64, len(raw))
	if t.IsIdentity(mode, gain) {
		copy(display, raw)
		return display, nil
	}

	base, ok := t.Baseline(raw)
	if !ok {
		return display, nil
	}

	g := float64(gain)
	for i, v := range raw {
		display[i] = (v - base) * g
	}
	return display, &base
}

// -----------------------------------------------------------------------------

// ApplyAll transforms every series of a snapshot.
func (t *ViewTransform) ApplyAll(series [][]float64, mode models.MViewMode, gain int) [][]float64 {
	out := make([][]float64, len(series))
	for i, raw := range series {
		out[i], _ = t.Apply(raw, mode, gain)
	}
	return out
}
