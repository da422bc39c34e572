package utils

import (
	"sync"

	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------
// SeriesRegistry holds one RingBuffer per active series plus their labels.
// The series count follows the most recent sample.
// -----------------------------------------------------------------------------

type SeriesRegistry struct {
	buffers   []*RingBuffer
	labels    []string
	maxPoints int
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSeriesRegistry(maxPoints int) *SeriesRegistry {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &SeriesRegistry{maxPoints: maxPoints}
}

// -----------------------------------------------------------------------------

// Ingest appends one sample. When the sample carries a different number of
// series, new empty buffers are added or trailing ones dropped, and the
// labels are replaced. Existing history of surviving series is kept.
func (sr *SeriesRegistry) Ingest(sample models.MSample) {
	n := sample.Len()
	if n == 0 {
		return
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	if len(sr.labels) == 0 || len(sr.buffers) != n {
		sr.labels = labelsFor(sample, n)
	}

	for len(sr.buffers) < n {
		sr.buffers = append(sr.buffers, NewRingBuffer(sr.maxPoints))
	}
	if len(sr.buffers) > n {
		for i := n; i < len(sr.buffers); i++ {
			sr.buffers[i] = nil
		}
		sr.buffers = sr.buffers[:n]
	}

	for i, v := range sample.Values {
		sr.buffers[i].Append(v)
	}
}

// -----------------------------------------------------------------------------

func labelsFor(sample models.MSample, n int) []string {
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(sample.Labels) && sample.Labels[i] != "" {
			labels[i] = sample.Labels[i]
		} else {
			labels[i] = DefaultLabel(i)
		}
	}
	return labels
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of every series, oldest value first.
func (sr *SeriesRegistry) Snapshot() models.MSeriesSnapshot {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	snap := models.MSeriesSnapshot{
		Labels: append([]string(nil), sr.labels...),
		Series: make([][]float64, len(sr.buffers)),
	}
	for i, buffer := range sr.buffers {
		snap.Series[i] = buffer.GetAll()
	}
	return snap
}

// -----------------------------------------------------------------------------

// Clear drops all series and labels.
func (sr *SeriesRegistry) Clear() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.buffers = nil
	sr.labels = nil
}

// -----------------------------------------------------------------------------

// Labels returns a copy of the current labels.
func (sr *SeriesRegistry) Labels() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return append([]string(nil), sr.labels...)
}

// -----------------------------------------------------------------------------

// Lengths returns the number of stored values per series.
func (sr *SeriesRegistry) Lengths() []int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	lengths := make([]int, len(sr.buffers))
	for i, buffer := range sr.buffers {
		lengths[i] = buffer.Size()
	}
	return lengths
}

// -----------------------------------------------------------------------------

// SeriesCount returns number of active series
func (sr *SeriesRegistry) SeriesCount() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return len(sr.buffers)
}

// -----------------------------------------------------------------------------

// MaxPoints returns the per-series window size.
func (sr *SeriesRegistry) MaxPoints() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return sr.maxPoints
}

// -----------------------------------------------------------------------------

// SetMaxPoints changes the window size of every series. Shrinking keeps the
// newest values.
func (sr *SeriesRegistry) SetMaxPoints(maxPoints int) {
	if maxPoints <= 0 {
		return
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.maxPoints = maxPoints
	for _, buffer := range sr.buffers {
		buffer.Resize(maxPoints)
	}
}
