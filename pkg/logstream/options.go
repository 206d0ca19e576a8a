package logstream

import "time"

type options struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Normalizer.
type Option func(*options)

// WithClock sets the time used for events without a usable timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator sets the id generator for events that arrive without one.
// Default: random UUIDs.
func WithIDGenerator(f func() string) Option {
	return func(o *options) {
		o.newID = f
	}
}
