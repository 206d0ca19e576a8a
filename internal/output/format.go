package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/crimson-sun/logstream/internal/engine/extractor"
	"github.com/crimson-sun/logstream/internal/model"
)

// Verbosity controls how much of a record is emitted.
type Verbosity int

const (
	// Minimal drops the attribute bag and type-specific payloads.
	Minimal Verbosity = iota
	// Standard emits everything.
	Standard
)

// ParseVerbosity maps "minimal" to Minimal; anything else is Standard.
func ParseVerbosity(s string) Verbosity {
	if strings.EqualFold(s, "minimal") {
		return Minimal
	}
	return Standard
}

// Record is the JSON shape of a LogRecord.
type Record struct {
	ID            string                `json:"id"`
	Time          time.Time             `json:"time"`
	Timestamp     string                `json:"timestamp"`
	Level         model.Level           `json:"level"`
	SourceType    model.SourceType      `json:"source_type"`
	Source        string                `json:"source"`
	DirectoryPath string                `json:"directory_path,omitempty"`
	Service       string                `json:"service"`
	Message       string                `json:"message"`
	Method        string                `json:"method,omitempty"`
	ClientIP      string                `json:"client_ip,omitempty"`
	HTTP          *model.HTTPFields     `json:"http,omitempty"`
	Docker        *model.DockerFields   `json:"docker,omitempty"`
	Journald      *model.JournaldFields `json:"journald,omitempty"`
	File          *model.FileFields     `json:"file,omitempty"`
	Attributes    map[string]any        `json:"attributes,omitempty"`
}

// FormatRecord converts rec to its JSON shape at the given verbosity.
func FormatRecord(rec model.LogRecord, verbosity Verbosity) Record {
	r := Record{
		ID:            rec.ID,
		Time:          rec.Time,
		Timestamp:     rec.Timestamp,
		Level:         rec.Level,
		SourceType:    rec.SourceType,
		Source:        rec.SourceName,
		DirectoryPath: rec.DirectoryPath,
		Service:       rec.Service,
		Message:       rec.Message,
		Method:        rec.Method,
		ClientIP:      rec.ClientIP,
	}
	if verbosity == Minimal {
		return r
	}
	r.HTTP = rec.HTTP
	r.Docker = rec.Docker
	r.Journald = rec.Journald
	r.File = rec.File
	if rec.Attributes != nil {
		r.Attributes, _ = extractor.Redact(rec.Attributes).(map[string]any)
	}
	return r
}

// FormatLine renders rec as one human-readable line. The middle column
// depends on the source type.
func FormatLine(rec model.LogRecord) string {
	return fmt.Sprintf("%s %-5s %s %s", rec.Timestamp, rec.Level, SourceLabel(rec), rec.Message)
}

// SourceLabel is the per-type source column.
func SourceLabel(rec model.LogRecord) string {
	switch rec.SourceType {
	case model.SourceHTTP:
		if h := rec.HTTP; h != nil {
			return fmt.Sprintf("[%s %s %d]", h.Method, h.Path, h.StatusCode)
		}
	case model.SourceDocker:
		return "[docker:" + rec.SourceName + "]"
	case model.SourceJournald:
		return "[" + rec.SourceName + ".unit]"
	case model.SourceFile:
		if rec.DirectoryPath != "" {
			return "[" + rec.DirectoryPath + "/" + rec.SourceName + "]"
		}
		return "[" + rec.SourceName + "]"
	case model.SourceUnknown:
	}
	return "[" + rec.SourceName + "]"
}
