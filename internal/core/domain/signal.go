package domain

import "time"

// SignalKind classifies out-of-band notices from a stream source.
type SignalKind string

const (
	SignalRateLimit  SignalKind = "rate_limit"
	SignalError      SignalKind = "error"
	SignalTimeout    SignalKind = "timeout"
	SignalDisconnect SignalKind = "disconnect"
	SignalWarning    SignalKind = "warning"
)

// Signal is a transport notice. Signals never count as records.
type Signal struct {
	Kind       SignalKind `json:"kind"`
	StatusCode int        `json:"status_code,omitempty"`
	// Track is the number of undelivered records reported by a rate limit notice.
	Track   int       `json:"track,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
