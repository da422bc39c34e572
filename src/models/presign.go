package models

import "time"

// MPresignedURL is a signed, time-boxed connection URL.
type MPresignedURL struct {
	URL       string    `json:"url"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"-"`
}

// MPresignResponse is the wire shape of the presign endpoint.
type MPresignResponse struct {
	URL      string `json:"url,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// MDialRequest carries what a transport needs to open one handle.
type MDialRequest struct {
	URL        string
	ClientID   string
	Generation uint64
}
