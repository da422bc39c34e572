package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 11.0, Median([]float64{10, 12, 11, 13, 9}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}

func TestMedianDoesNotMutate(t *testing.T) {
	data := []float64{3, 1, 2}
	Median(data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = CalculateMeanStd([]float64{5})
	assert.Equal(t, 5.0, mean)
	assert.Zero(t, std)

	mean, std = CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.0, std, 1e-12)
}

func TestMinMax(t *testing.T) {
	_, _, ok := MinMax(nil)
	assert.False(t, ok)

	_, _, ok = MinMax([]float64{math.NaN(), math.Inf(1)})
	assert.False(t, ok)

	min, max, ok := MinMax([]float64{3, math.NaN(), -1, 8})
	assert.True(t, ok)
	assert.Equal(t, -1.0, min)
	assert.Equal(t, 8.0, max)
}
