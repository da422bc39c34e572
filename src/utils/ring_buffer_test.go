package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferKeepsNewestWindow(t *testing.T) {
	rb := NewRingBuffer(50)
	for i := 1; i <= 51; i++ {
		rb.Append(float64(i))
	}

	all := rb.GetAll()
	assert.Len(t, all, 50)
	assert.Equal(t, 2.0, all[0])
	assert.Equal(t, 51.0, all[49])
	assert.Equal(t, 50, rb.Size())
}

func TestRingBufferPartial(t *testing.T) {
	rb := NewRingBuffer(4)
	assert.Empty(t, rb.GetAll())
	assert.Empty(t, rb.GetLatest(2))

	rb.Append(1)
	rb.Append(2)
	rb.Append(3)

	assert.Equal(t, []float64{1, 2, 3}, rb.GetAll())
	assert.Equal(t, []float64{2, 3}, rb.GetLatest(2))
	assert.Equal(t, []float64{1, 2, 3}, rb.GetLatest(10))
	assert.Equal(t, 3, rb.Size())
}

func TestRingBufferResize(t *testing.T) {
	rb := NewRingBuffer(5)
	for i := 1; i <= 7; i++ {
		rb.Append(float64(i))
	}

	rb.Resize(3)
	assert.Equal(t, []float64{5, 6, 7}, rb.GetAll())

	rb.Resize(6)
	rb.Append(8)
	assert.Equal(t, []float64{5, 6, 7, 8}, rb.GetAll())

	rb.Resize(0)
	for i := 9; i <= 11; i++ {
		rb.Append(float64(i))
	}
	assert.Equal(t, []float64{6, 7, 8, 9, 10, 11}, rb.GetAll())
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(0)
	for i := 0; i <= DefaultMaxPoints; i++ {
		rb.Append(float64(i))
	}
	assert.Equal(t, DefaultMaxPoints, rb.Size())

	rb.Append(1)
	rb.Clear()
	assert.Equal(t, 0, rb.Size())

	rb.Append(9)
	assert.Equal(t, []float64{9}, rb.GetAll())
}
