package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/mason/internal/core/ports"
)

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

// LogExporter writes every finished span to a logger as one line.
// It drops spans until it is enabled.
type LogExporter struct {
	logger  ports.Logger
	enabled atomic.Bool
}

// NewLogExporter creates a disabled LogExporter writing to logger.
func NewLogExporter(logger ports.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// SetEnabled turns span output on or off.
func (e *LogExporter) SetEnabled(on bool) {
	e.enabled.Store(on)
}

// ExportSpans logs spans in the order they finished.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if !e.enabled.Load() || e.logger == nil {
		return nil
	}
	for _, s := range spans {
		e.logger.Info(FormatSpan(s))
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}

// FormatSpan renders a span as `span <name> <duration> key=value...`.
func FormatSpan(s sdktrace.ReadOnlySpan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "span %s %s trace=%s",
		s.Name(), s.EndTime().Sub(s.StartTime()).Round(time.Microsecond), s.SpanContext().TraceID())
	for _, kv := range s.Attributes() {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value.Emit())
	}
	if status := s.Status(); status.Code == codes.Error {
		fmt.Fprintf(&b, " error=%q", status.Description)
	}
	return b.String()
}
