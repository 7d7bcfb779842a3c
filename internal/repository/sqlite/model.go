package sqlite

import "time"

// Options tunes the sqlite connection.
type Options struct {
	BusyTimeout time.Duration
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{BusyTimeout: 10 * time.Second}
}
