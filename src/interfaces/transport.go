package interfaces

import "telemetry-viewer/src/models"

// EventSink receives events produced by one transport handle.
type EventSink func(models.MTransportEvent)

// -----------------------------------------------------------------------------
// ITransport is one live streaming connection.
// -----------------------------------------------------------------------------

type ITransport interface {

	// Open starts connecting. Completion is reported as EventOpen or EventError.
	Open()

	// Subscribe requests a subscription; the outcome arrives as EventSubscribeAck.
	Subscribe(topic string)

	// Unsubscribe removes a subscription; the outcome arrives as EventUnsubscribeAck.
	Unsubscribe(topic string)

	// Close unregisters the sink and tears the connection down. After Close
	// returns the handle never emits again.
	Close()
}

// -----------------------------------------------------------------------------
// ITransportDialer creates transport handles.
// -----------------------------------------------------------------------------

type ITransportDialer interface {
	Dial(req models.MDialRequest, sink EventSink) (ITransport, error)
}
