// Package progrock records build progress as progrock status updates.
package progrock

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Observer = (*Observer)(nil)

// Observer records one vertex per build and one per file.
type Observer struct {
	mu       sync.Mutex
	w        progrock.Writer
	rec      *progrock.Recorder
	buildID  string
	build    *progrock.VertexRecorder
	vertices map[string]*progrock.VertexRecorder
}

// New creates an Observer that discards its updates until a journal is opened.
func New() *Observer {
	return NewObserver(progrock.Discard{})
}

// NewObserver creates an Observer recording to w.
func NewObserver(w progrock.Writer) *Observer {
	return &Observer{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: make(map[string]*progrock.VertexRecorder),
	}
}

// OpenJournal writes every further status update to path as JSON lines,
// replacing and closing the current writer. Open it before the first build.
func (o *Observer) OpenJournal(path string) error {
	journal, err := progrock.CreateJournal(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create progress journal"), "path", path)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.w
	o.w = journal
	o.rec = progrock.NewRecorder(journal)
	return prev.Close()
}

// OnEvent opens or completes the vertex the event belongs to.
func (o *Observer) OnEvent(_ context.Context, e domain.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch e.Kind {
	case domain.EventBuildStart:
		if e.Build == nil {
			return
		}
		o.buildID = e.Build.ID
		o.build = o.rec.Vertex(digest.FromString("build:"+e.Build.ID), "build "+e.Build.Dest)
	case domain.EventSearchComplete:
		if o.build != nil {
			_, _ = fmt.Fprintf(o.build.Stdout(), "found %d file(s)\n", len(e.Paths))
		}
	case domain.EventFileStart:
		if e.File == nil {
			return
		}
		name := e.File.Rel
		if name == "" {
			name = e.File.Path
		}
		o.vertices[e.File.Path] = o.rec.Vertex(digest.FromString(o.buildID+":"+e.File.Path), name)
	case domain.EventFileComplete:
		o.completeFile(e)
	case domain.EventBuildComplete:
		if o.build != nil && e.Build != nil {
			o.build.Done(e.Build.Err)
			o.build = nil
		}
	case domain.EventError:
		if e.File != nil {
			if v, ok := o.vertices[e.File.Path]; ok {
				_, _ = fmt.Fprintln(v.Stderr(), e.Err)
			}
			return
		}
		if o.build != nil {
			o.build.Done(e.Err)
			o.build = nil
		}
	case domain.EventSearchStart:
	}
}

func (o *Observer) completeFile(e domain.Event) {
	if e.File == nil {
		return
	}
	v, ok := o.vertices[e.File.Path]
	if !ok {
		return
	}
	delete(o.vertices, e.File.Path)

	var err error
	if e.Record != nil {
		err = e.Record.Err
		if e.Record.Outcome == domain.OutcomeStopped {
			_, _ = fmt.Fprintln(v.Stdout(), "skipped")
		}
	}
	v.Done(err)
}

// Pending returns the number of file vertices not yet completed.
func (o *Observer) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.vertices)
}

// Close completes the recording session and closes its writer.
func (o *Observer) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.rec.Complete()
	return o.w.Close()
}
