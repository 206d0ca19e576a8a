package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/logstream/internal/engine/classifier"
	"github.com/crimson-sun/logstream/internal/engine/extractor"
	"github.com/crimson-sun/logstream/internal/engine/timestamp"
	"github.com/crimson-sun/logstream/internal/model"
)

// Engine orchestrates the resolve → classify → extract normalization steps.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for events without a usable timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the generator for events that arrive without an id.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an Engine. By default it uses the wall clock and random UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NormalizeFrame parses a stream frame and normalizes it. The only error is
// model.ErrMalformedFrame.
func (e *Engine) NormalizeFrame(data []byte) (model.LogRecord, error) {
	raw, err := model.ParseRawLogEvent(data)
	if err != nil {
		return model.LogRecord{}, err
	}
	return e.Normalize(raw), nil
}

// Normalize converts a raw event into a LogRecord. It never fails: in the
// worst case the record has unknown source fields and the current time.
func (e *Engine) Normalize(raw model.RawLogEvent) model.LogRecord {
	t, _ := timestamp.Resolve(raw.Timestamps, e.now)

	service := raw.Service
	if service == "" {
		service = extractor.UnknownName
	}

	rec := model.LogRecord{
		ID:         raw.ID,
		Time:       t,
		Timestamp:  timestamp.Format(t),
		Level:      model.ParseLevel(raw.Severity),
		SourceType: classifier.Classify(raw.Attributes),
		SourceName: service,
		Service:    service,
		Message:    raw.Message,
		Method:     extractor.String(raw.Attributes, "method"),
		ClientIP:   extractor.String(raw.Attributes, "ip", "client_ip"),
		Attributes: raw.Attributes,
	}
	if rec.ID == "" {
		rec.ID = e.newID()
	}

	// alias is the service chain without the "unknown" default, for
	// extractors that fall back to it.
	alias := raw.Service

	switch rec.SourceType {
	case model.SourceHTTP:
		if h := extractor.HTTP(raw.Attributes); h != nil {
			rec.HTTP = h
			rec.Method = h.Method
			if h.ClientIP != "" {
				rec.ClientIP = h.ClientIP
			}
		}
	case model.SourceDocker:
		rec.Docker = extractor.Docker(raw.Attributes, alias)
		if rec.Docker.ContainerName != "" {
			rec.SourceName = rec.Docker.ContainerName
		}
	case model.SourceJournald:
		rec.Journald = extractor.Journald(raw.Attributes, raw.Message)
		if rec.Journald.Unit != "" {
			rec.SourceName = rec.Journald.Unit
		}
	case model.SourceFile:
		rec.File = extractor.File(raw.Attributes, alias, raw.Message)
		if rec.File.Path != "" {
			rec.SourceName, rec.DirectoryPath = extractor.SplitPath(rec.File.Path)
		} else {
			rec.SourceName = extractor.UnknownName
		}
		if req := rec.File.Request; req != nil {
			if rec.Method == "" {
				rec.Method = req.Method
			}
			if rec.ClientIP == "" {
				rec.ClientIP = req.ClientIP
			}
		}
	}
	return rec
}
