package interfaces

import "telemetry-viewer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for pushing frames to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a freshly computed frame to every listener.
	Broadcast(frame *models.MDisplayFrame)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
