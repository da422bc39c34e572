package models

import "time"

// MTransition is one journaled lifecycle change of a session.
type MTransition struct {
	SessionID string    `json:"session_id"`
	From      MState    `json:"from"`
	To        MState    `json:"to"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
