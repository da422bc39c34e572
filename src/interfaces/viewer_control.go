package interfaces

import (
	"context"

	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------
// IViewerControl is the topic control surface shared by REST, websocket and gRPC.
// -----------------------------------------------------------------------------

type IViewerControl interface {
	Start(ctx context.Context, topic string) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Clear(ctx context.Context) error
	Disconnect(ctx context.Context) error
	SetViewMode(ctx context.Context, mode models.MViewMode) error
	SetGain(ctx context.Context, gain int) error
	Status(ctx context.Context) (models.MSessionStatus, error)
	Messages(ctx context.Context, limit int) ([]models.MMessage, error)
	Frame(ctx context.Context) (models.MDisplayFrame, error)
}
