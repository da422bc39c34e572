package utils

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of samples for one series.
// Appending to a full buffer evicts the oldest value.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultMaxPoints
	}

	return &RingBuffer{
		data:     make([]float64, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a value, dropping the oldest one when full
func (rb *RingBuffer) Append(value float64) {
	rb.data[rb.index] = value
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n newest values, oldest first
func (rb *RingBuffer) GetLatest(n int) []float64 {
	if rb.size == 0 || n <= 0 {
		return []float64{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]float64, count)

	// Latest value is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []float64 {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer.
// If newCapacity < size, oldest data is dropped.
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	kept := rb.GetLatest(newCapacity)

	rb.data = make([]float64, newCapacity)
	copy(rb.data, kept)
	rb.capacity = newCapacity
	rb.size = len(kept)
	rb.index = rb.size % newCapacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
