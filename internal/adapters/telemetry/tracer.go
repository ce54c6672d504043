// Package telemetry turns build events into OpenTelemetry spans.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

// InstrumentationName names the tracer used for build spans.
const InstrumentationName = "go.trai.ch/mason"

var _ ports.Observer = (*Tracer)(nil)

// Tracer records one span per build with child spans for the search and every file.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	exporter *LogExporter

	mu        sync.Mutex
	buildCtx  context.Context //nolint:containedctx // Parent of the spans of the running build
	build     trace.Span
	search    trace.Span
	fileSpans map[string]trace.Span
}

// NewTracer creates a Tracer on tp. A nil tp uses the global provider.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer:    tp.Tracer(InstrumentationName),
		fileSpans: make(map[string]trace.Span),
	}
}

// NewLoggingTracer creates a Tracer on its own SDK provider whose finished
// spans go to logger once export is enabled with SetExport.
func NewLoggingTracer(logger ports.Logger) *Tracer {
	exporter := NewLogExporter(logger)
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t := NewTracer(provider)
	t.provider = provider
	t.exporter = exporter
	return t
}

// Provider returns the SDK provider owned by the Tracer, or nil.
func (t *Tracer) Provider() *sdktrace.TracerProvider {
	return t.provider
}

// SetExport turns span logging on or off.
func (t *Tracer) SetExport(on bool) {
	if t.exporter != nil {
		t.exporter.SetEnabled(on)
	}
}

// Close flushes and shuts down the provider owned by the Tracer.
func (t *Tracer) Close() error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(context.Background())
}

// OnEvent starts or ends the span the event belongs to.
//
//nolint:cyclop // one branch per event kind
func (t *Tracer) OnEvent(ctx context.Context, e domain.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case domain.EventBuildStart:
		if e.Build == nil {
			return
		}
		t.buildCtx, t.build = t.tracer.Start(ctx, "build", trace.WithAttributes(
			attribute.String("build.id", e.Build.ID),
			attribute.String("build.dest", e.Build.Dest),
			attribute.StringSlice("build.sources", e.Build.Sources),
		))
	case domain.EventSearchStart:
		_, t.search = t.tracer.Start(t.parent(ctx), "search", trace.WithAttributes(
			attribute.StringSlice("search.roots", e.Paths),
		))
	case domain.EventSearchComplete:
		if t.search != nil {
			t.search.SetAttributes(attribute.Int("search.files", len(e.Paths)))
			t.search.End()
			t.search = nil
		}
	case domain.EventFileStart:
		if e.File == nil {
			return
		}
		_, span := t.tracer.Start(t.parent(ctx), "file", trace.WithAttributes(
			attribute.String("file.path", e.File.Path),
			attribute.String("file.dest", e.File.Dest),
		))
		t.fileSpans[e.File.Path] = span
	case domain.EventFileComplete:
		t.endFile(e)
	case domain.EventBuildComplete:
		if t.build == nil || e.Build == nil {
			return
		}
		t.build.SetAttributes(
			attribute.Int("build.files", e.Build.FileCount()),
			attribute.Int("build.failed", len(e.Build.Failed())),
		)
		if e.Build.Err != nil {
			t.build.SetStatus(codes.Error, e.Build.Err.Error())
		}
		t.endBuild()
	case domain.EventError:
		t.recordError(e)
	}
}

func (t *Tracer) endFile(e domain.Event) {
	if e.File == nil {
		return
	}
	span, ok := t.fileSpans[e.File.Path]
	if !ok {
		return
	}
	delete(t.fileSpans, e.File.Path)

	if e.Record != nil {
		span.SetAttributes(
			attribute.String("file.outcome", string(e.Record.Outcome)),
			attribute.Int("file.handlers", e.Record.Handlers),
		)
	}
	span.End()
}

func (t *Tracer) recordError(e domain.Event) {
	if e.Err == nil {
		return
	}

	if e.File != nil {
		if span, ok := t.fileSpans[e.File.Path]; ok {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
		return
	}

	// Errors outside a file end whatever is open: the build aborted.
	if t.search != nil {
		t.search.RecordError(e.Err)
		t.search.SetStatus(codes.Error, e.Err.Error())
		t.search.End()
		t.search = nil
	}
	if t.build != nil {
		t.build.RecordError(e.Err)
		t.build.SetStatus(codes.Error, e.Err.Error())
		t.endBuild()
	}
}

func (t *Tracer) endBuild() {
	for path, span := range t.fileSpans {
		span.End()
		delete(t.fileSpans, path)
	}
	t.build.End()
	t.build = nil
	t.buildCtx = nil
}

func (t *Tracer) parent(ctx context.Context) context.Context {
	if t.buildCtx != nil {
		return t.buildCtx
	}
	return ctx
}
