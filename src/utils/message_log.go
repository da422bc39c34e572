package utils

import (
	"sync"

	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------
// MessageLog keeps the newest raw messages in a circular buffer, the same
// way RingBuffer keeps samples. Reads come back newest first.
// -----------------------------------------------------------------------------

type MessageLog struct {
	entries  []models.MMessage
	capacity int
	index    int // Next write position
	size     int
	mu       sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultMessageLogSize
	}
	return &MessageLog{
		entries:  make([]models.MMessage, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Add records msg, evicting the oldest entry when full.
func (ml *MessageLog) Add(msg models.MMessage) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.entries[ml.index] = msg
	ml.index = (ml.index + 1) % ml.capacity
	if ml.size < ml.capacity {
		ml.size++
	}
}

// -----------------------------------------------------------------------------

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (ml *MessageLog) Recent(n int) []models.MMessage {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if n <= 0 || n > ml.size {
		n = ml.size
	}

	out := make([]models.MMessage, n)
	for i := 0; i < n; i++ {
		out[i] = ml.entries[(ml.index-1-i+ml.capacity)%ml.capacity]
	}
	return out
}

// -----------------------------------------------------------------------------

func (ml *MessageLog) Len() int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	return ml.size
}

// Clear drops every entry.
func (ml *MessageLog) Clear() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	for i := range ml.entries {
		ml.entries[i] = models.MMessage{}
	}
	ml.index = 0
	ml.size = 0
}
