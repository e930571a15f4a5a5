package gateway

import "time"

// Settings tunes the connection heartbeat schedule and write buffering.
// Zero values fall back to the defaults.
type Settings struct {
	// PingInterval is how often the server pings an idle connection.
	PingInterval time.Duration
	// ReadTimeout is the read deadline, reset on every pong.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single frame write and the queue wait.
	WriteTimeout time.Duration
	// BufferSize is the per-connection outbound frame queue depth.
	BufferSize int
}

// DefaultSettings returns the production heartbeat schedule. The read timeout
// must exceed the ping interval or healthy connections get reaped between
// pings.
func DefaultSettings() Settings {
	return Settings{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   100,
	}
}

func (s Settings) withDefaults() Settings {
	defaults := DefaultSettings()
	if s.PingInterval <= 0 {
		s.PingInterval = defaults.PingInterval
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = defaults.ReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = defaults.WriteTimeout
	}
	if s.BufferSize <= 0 {
		s.BufferSize = defaults.BufferSize
	}
	return s
}
