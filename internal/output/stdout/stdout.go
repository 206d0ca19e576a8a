package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/output"
)

// Format selects the line encoding.
type Format int

const (
	// NDJSON writes one JSON object per record.
	NDJSON Format = iota
	// Text writes one human-readable line per record.
	Text
)

// Output writes records to a stream, stdout by default.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	enc       *json.Encoder
	format    Format
	verbosity output.Verbosity
}

// Option configures an Output.
type Option func(*Output)

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// New creates an Output.
func New(format Format, verbosity output.Verbosity, opts ...Option) *Output {
	o := &Output{w: os.Stdout, format: format, verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	o.enc = json.NewEncoder(o.w)
	return o
}

func (o *Output) Write(_ context.Context, rec model.LogRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == Text {
		if _, err := fmt.Fprintln(o.w, output.FormatLine(rec)); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if err := o.enc.Encode(output.FormatRecord(rec, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
