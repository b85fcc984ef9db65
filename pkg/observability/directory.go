package observability

import (
	"context"
	"errors"

	"github.com/wardenhq/warden/pkg/directory"
)

// instrumentedDirectory decorates a Directory with lookup outcome counters.
type instrumentedDirectory struct {
	inner   directory.Directory
	metrics *Metrics
}

// InstrumentDirectory wraps the directory with Prometheus instrumentation.
// A nil *Metrics returns the directory unwrapped.
func InstrumentDirectory(inner directory.Directory, metrics *Metrics) directory.Directory {
	if metrics == nil {
		return inner
	}
	return &instrumentedDirectory{inner: inner, metrics: metrics}
}

func (d *instrumentedDirectory) LookupConnection(ctx context.Context, name string) (*directory.Connection, error) {
	conn, err := d.inner.LookupConnection(ctx, name)
	var notFound *directory.NotFoundError
	switch {
	case err == nil:
		d.metrics.RecordDirectoryLookup("resolved")
	case errors.As(err, &notFound):
		d.metrics.RecordDirectoryLookup("not_found")
	default:
		d.metrics.RecordDirectoryLookup("error")
	}
	return conn, err
}
