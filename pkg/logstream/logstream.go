package logstream

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/crimson-sun/logstream/internal/engine"
	"github.com/crimson-sun/logstream/internal/engine/extractor"
	"github.com/crimson-sun/logstream/internal/model"
)

// ErrMalformedFrame is returned for frames that are not JSON objects.
var ErrMalformedFrame = model.ErrMalformedFrame

// Normalizer converts log events into Records.
type Normalizer struct {
	engine *engine.Engine
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var engOpts []engine.Option
	if o.now != nil {
		engOpts = append(engOpts, engine.WithClock(o.now))
	}
	if o.newID != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(o.newID))
	}
	return &Normalizer{engine: engine.New(engOpts...)}
}

// Normalize decodes and normalizes one stream frame. Field aliases in
// camelCase and snake_case are both accepted. The only error is
// ErrMalformedFrame.
func (n *Normalizer) Normalize(frame []byte) (Record, error) {
	rec, err := n.engine.NormalizeFrame(frame)
	if err != nil {
		return Record{}, err
	}
	return recordFromModel(rec), nil
}

// NormalizeBatch normalizes frames in order. Malformed frames are skipped;
// the returned error joins one error per skipped frame.
func (n *Normalizer) NormalizeBatch(frames [][]byte) ([]Record, error) {
	out := make([]Record, 0, len(frames))
	var errs []error
	for i, f := range frames {
		rec, err := n.Normalize(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", i, err))
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}

// NormalizeLog normalizes a structured entry. It never fails.
func (n *Normalizer) NormalizeLog(log Log) Record {
	raw := model.RawLogEvent{
		Message:    log.Message,
		Severity:   log.Severity,
		Service:    log.Service,
		Attributes: log.Attributes,
	}
	if !log.Time.IsZero() {
		raw.Timestamps = []model.TimestampValue{{
			Text:    strconv.FormatInt(log.Time.UnixMilli(), 10),
			Numeric: true,
		}}
	}
	return recordFromModel(n.engine.Normalize(raw))
}

// recordFromModel converts the internal LogRecord to the public Record type.
func recordFromModel(rec model.LogRecord) Record {
	r := Record{
		ID:         rec.ID,
		Time:       rec.Time,
		Timestamp:  rec.Timestamp,
		Level:      string(rec.Level),
		SourceType: string(rec.SourceType),
		Source:     rec.SourceName,
		Directory:  rec.DirectoryPath,
		Service:    rec.Service,
		Message:    rec.Message,
		Method:     rec.Method,
		ClientIP:   rec.ClientIP,
		Attributes: rec.Attributes,
	}
	switch {
	case rec.HTTP != nil:
		r.StatusCode = rec.HTTP.StatusCode
	case rec.File != nil && rec.File.Request != nil:
		r.StatusCode = rec.File.Request.Status
	}
	if cmd, ok := extractor.Replay(rec); ok {
		r.Replay = cmd
	}
	return r
}
