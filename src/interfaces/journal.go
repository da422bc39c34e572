package interfaces

import "telemetry-viewer/src/models"

// -----------------------------------------------------------------------------
// IJournal defines the contract for recording session lifecycle transitions.
// -----------------------------------------------------------------------------

type IJournal interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Record queues a transition for writing. It never blocks the caller.
	Record(t models.MTransition)

	// -----------------------------------------------------------------------------

	// Recent returns up to limit transitions, newest first.
	Recent(limit int) ([]models.MTransition, error)

	// -----------------------------------------------------------------------------

	// Close flushes pending writes and closes the database connection.
	Close() error
}
