package models

// -----------------------------------------------------------------------------
// MControlCommand for client messages (websocket) and REST bodies
// -----------------------------------------------------------------------------

type MControlCommand struct {
	Command string    `json:"command"`
	Topic   string    `json:"topic,omitempty"`
	Mode    MViewMode `json:"mode,omitempty"`
	Gain    *int      `json:"gain,omitempty"`
}

// MCommandResult is returned to websocket clients after a command.
type MCommandResult struct {
	Type    string         `json:"type"` // "ACK" or "ERROR"
	Command string         `json:"command"`
	Error   string         `json:"error,omitempty"`
	Status  MSessionStatus `json:"status"`
}
