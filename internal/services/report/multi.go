package report

import (
	"context"

	"go.uber.org/multierr"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// Sink destination of report rows.
type Sink interface {
	Write(ctx context.Context, record domain.ReportRecord) error
}

// MultiSink writes every record to all sinks, continuing past failures.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write returns the combined error of all failed sinks.
func (m *MultiSink) Write(ctx context.Context, record domain.ReportRecord) error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Write(ctx, record))
	}
	return err
}

// Len number of configured sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}
