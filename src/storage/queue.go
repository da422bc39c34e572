package storage

import (
	"sync"
	"sync/atomic"

	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// writeQueue drains transitions into a database on its own goroutine so the
// session dispatcher never waits on disk or network I/O.
// -----------------------------------------------------------------------------

type writeQueue struct {
	items  chan models.MTransition
	write  func(models.MTransition) error
	logger *logger.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// -----------------------------------------------------------------------------

func newWriteQueue(size int, write func(models.MTransition) error, log *logger.Logger) *writeQueue {
	if size <= 0 {
		size = utils.DefaultJournalQueueSize
	}
	q := &writeQueue{
		items:  make(chan models.MTransition, size),
		write:  write,
		logger: log,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// -----------------------------------------------------------------------------

func (q *writeQueue) run() {
	defer q.wg.Done()
	for t := range q.items {
		if err := q.write(t); err != nil {
			q.logger.Error("Failed to journal transition %s -> %s: %v", t.From, t.To, err)
		}
	}
}

// -----------------------------------------------------------------------------

// push never blocks. When the queue is full the transition is dropped.
func (q *writeQueue) push(t models.MTransition) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case q.items <- t:
	default:
		q.dropped.Add(1)
		q.logger.Warning("Journal queue full, dropped transition %s -> %s", t.From, t.To)
	}
}

// -----------------------------------------------------------------------------

// close stops accepting and waits for queued writes.
func (q *writeQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
}
