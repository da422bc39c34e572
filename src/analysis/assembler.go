package analysis

import (
	"math"

	"telemetry-viewer/src/analysis/core"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// ChartAssembler lays display series out on a shared index.
//
// Series are right-aligned: the newest value of every series sits at index
// L-1, where L is the longest series. Shorter series have leading gaps.
// -----------------------------------------------------------------------------

type ChartAssembler struct{}

func NewChartAssembler() *ChartAssembler {
	return &ChartAssembler{}
}

// -----------------------------------------------------------------------------

// Assemble builds L rows of label -> value. Gaps and non-finite values are nil.
func (a *ChartAssembler) Assemble(display [][]float64, labels []string) models.MChartData {
	length := 0
	for _, s := range display {
		if len(s) > length {
			length = len(s)
		}
	}

	keys := make([]string, len(display))
	for k := range display {
		keys[k] = LabelAt(labels, k)
	}

	rows := make([]models.MChartRow, length)
	for i := 0; i < length; i++ {
		values := make(map[string]*float64, len(display))
		for k, s := range display {
			offset := length - len(s)
			j := i - offset
			if j < 0 || j >= len(s) {
				values[keys[k]] = nil
				continue
			}
			values[keys[k]] = finite(s[j])
		}
		rows[i] = models.MChartRow{Index: i, Values: values}
	}

	return models.MChartData{Length: length, Rows: rows}
}

// -----------------------------------------------------------------------------

// LabelAt returns labels[k], or the positional name when missing.
func LabelAt(labels []string, k int) string {
	if k < len(labels) && labels[k] != "" {
		return labels[k]
	}
	return utils.DefaultLabel(k)
}

// -----------------------------------------------------------------------------

// YDomain returns a padded [min, max] for plotting one series: 10% of the
// range on each side, 0.1 when flat, [0, 1] when there is nothing to plot.
func YDomain(values []float64) [2]float64 {
	min, max, ok := core.MinMax(values)
	if !ok {
		return [2]float64{0, 1}
	}
	// Scaled before subtracting so wide ranges do not overflow
	pad := max*0.1 - min*0.1
	if pad == 0 {
		pad = 0.1
	}
	return [2]float64{clamp(min - pad), clamp(max + pad)}
}

func clamp(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// -----------------------------------------------------------------------------

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// finiteAll copies values, turning the non-finite ones into nil.
func finiteAll(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}
