package output

import (
	"context"

	"github.com/crimson-sun/logstream/internal/model"
)

// Output receives every record as it enters the working set.
type Output interface {
	Write(ctx context.Context, rec model.LogRecord) error
	Close() error
}
