package domain

import "time"

// Session tracks one bounded run of the collector.
type Session struct {
	Limit     int
	Seen      int
	Collected int
	StartedAt time.Time
}

// NewSession creates a session that ends after limit collected records.
func NewSession(limit int) *Session {
	return &Session{Limit: limit, StartedAt: time.Now()}
}

// Observe counts a decoded record regardless of the filter outcome.
func (s *Session) Observe() {
	s.Seen++
}

// Collect counts a persisted record and reports whether the limit is reached.
func (s *Session) Collect() bool {
	s.Collected++
	return s.Done()
}

// Done reports whether the limit has been reached.
func (s *Session) Done() bool {
	return s.Collected >= s.Limit
}

// CollectorState is the lifecycle state of the consumer loop.
type CollectorState int32

const (
	StateInitializing CollectorState = iota
	StateStreaming
	StateTerminated
)

func (s CollectorState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
