package logstream

import "time"

// Record is a normalized log event.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Record struct {
	ID         string         `json:"id"`
	Time       time.Time      `json:"time"`
	Timestamp  string         `json:"timestamp"`           // HH:MM:SS.mmm, local time
	Level      string         `json:"level"`               // DEBUG, INFO, WARN, ERROR
	SourceType string         `json:"source_type"`         // http, docker, journald, file, unknown
	Source     string         `json:"source"`              // container, unit, file name, or service
	Directory  string         `json:"directory,omitempty"` // parent path of file sources
	Service    string         `json:"service"`
	Message    string         `json:"message"`
	Method     string         `json:"method,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Replay     string         `json:"replay,omitempty"` // curl reproduction, secrets redacted
}
