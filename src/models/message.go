package models

// MMessage is one raw payload as it arrived, kept for the live message log.
type MMessage struct {
	Topic     string `json:"topic"`
	Payload   string `json:"payload"`
	Timestamp int64  `json:"ts"`
}
