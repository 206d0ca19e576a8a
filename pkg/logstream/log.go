package logstream

import "time"

// Log is a structured log entry. Use with NormalizeLog when the event is
// already decoded; for wire frames use Normalize.
type Log struct {
	Message    string
	Time       time.Time      // zero = time of normalization
	Severity   string         // any common label; unknown labels become INFO
	Service    string         // optional
	Attributes map[string]any // drives source classification
}
