package models

// -----------------------------------------------------------------------------
// Session lifecycle states
// -----------------------------------------------------------------------------

type MState string

const (
	StateIdle       MState = "idle"
	StateConnecting MState = "connecting"
	StateConnected  MState = "connected"
	StateSubscribed MState = "subscribed"
	StatePaused     MState = "paused"
	StateError      MState = "error"
)

// -----------------------------------------------------------------------------
// View modes
// -----------------------------------------------------------------------------

type MViewMode string

const (
	ViewAbsolute MViewMode = "absolute"
	ViewRelative MViewMode = "relative"
)

// Valid reports whether m is a known view mode.
func (m MViewMode) Valid() bool {
	return m == ViewAbsolute || m == ViewRelative
}

// -----------------------------------------------------------------------------
// MSessionStatus is the externally visible state of a viewer session.
// -----------------------------------------------------------------------------

type MSessionStatus struct {
	State         MState     `json:"state"`
	ClientID      string     `json:"client_id,omitempty"`
	Topic         string     `json:"topic,omitempty"`
	Subscribed    bool       `json:"subscribed"`
	Paused        bool       `json:"paused"`
	Mode          MViewMode  `json:"mode"`
	Gain          int        `json:"gain"`
	Labels        []string   `json:"labels"`
	SeriesLengths []int      `json:"series_lengths"`
	MaxPoints     int        `json:"max_points"`
	MessageCount  int        `json:"message_count"`
	Messages      []MMessage `json:"messages"` // newest first
	LastError     string     `json:"last_error,omitempty"`
	UpdatedAt     int64      `json:"updated_at"`
}
