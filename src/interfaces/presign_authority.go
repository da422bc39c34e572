package interfaces

import (
	"context"

	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------
// IPresignAuthority issues signed, time-limited connection URLs.
// -----------------------------------------------------------------------------

type IPresignAuthority interface {

	// -----------------------------------------------------------------------------

	// Presign returns a connection URL for clientID. An empty clientID asks the
	// authority to generate one. Either a complete URL or an error is returned.
	Presign(ctx context.Context, clientID string) (models.MPresignedURL, error)
}
