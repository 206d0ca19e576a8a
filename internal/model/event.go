package model

import (
	"strings"
	"time"
)

// SourceType is the inferred origin category of a log event.
type SourceType string

const (
	SourceHTTP     SourceType = "http"
	SourceDocker   SourceType = "docker"
	SourceJournald SourceType = "journald"
	SourceFile     SourceType = "file"
	SourceUnknown  SourceType = "unknown"
)

// Level is a normalized severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Levels lists every level in ascending severity.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

// Rank orders levels by severity, DEBUG lowest.
func (l Level) Rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	}
	return 1
}

// ParseLevel maps a wire severity label onto a Level. Unrecognized or empty
// labels become INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "ERR", "FATAL", "CRITICAL", "CRIT", "ALERT", "EMERG", "PANIC":
		return LevelError
	default:
		return LevelInfo
	}
}

// HTTPFields is the payload of an http record.
type HTTPFields struct {
	Method     string
	Path       string
	StatusCode int
	DurationMS *float64
	ClientIP   string
	UserAgent  string
	Host       string
}

// DockerFields is the payload of a docker record.
type DockerFields struct {
	ContainerName string
	ContainerID   string
	Image         string
}

// JournaldFields is the payload of a journald record.
type JournaldFields struct {
	Unit    string
	Message string
}

// FileFields is the payload of a file record. Request is set when the body
// looks like an access-log line.
type FileFields struct {
	Path    string
	Request *RequestLine
}

// RequestLine is an HTTP request recovered from free-text log output.
type RequestLine struct {
	ClientIP  string
	Method    string
	Path      string
	Protocol  string
	Status    int
	Referer   string
	UserAgent string
}

// LogRecord is a normalized, immutable log event held by the buffer.
// At most the payload matching SourceType is non-nil.
type LogRecord struct {
	ID            string
	Time          time.Time
	Timestamp     string // HH:MM:SS.mmm
	Level         Level
	SourceType    SourceType
	SourceName    string
	DirectoryPath string // file records only
	Service       string
	Message       string
	Method        string
	ClientIP      string
	Attributes    map[string]any

	HTTP     *HTTPFields
	Docker   *DockerFields
	Journald *JournaldFields
	File     *FileFields
}

// ConnState is the lifecycle state of the stream connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Service is a selectable log stream target from the service directory.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
