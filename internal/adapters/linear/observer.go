// Package linear renders build events as chronological lines for terminals and CI logs.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/ui/output"
	"go.trai.ch/mason/internal/ui/style"
)

var _ ports.Observer = (*Observer)(nil)

// Observer prints one line per notable build event.
type Observer struct {
	mu     sync.Mutex
	w      io.Writer
	output *termenv.Output
	// Verbose also prints file-start lines and stopped files.
	Verbose bool
}

// NewObserver creates an Observer writing to w. A nil w means stderr.
func NewObserver(w io.Writer) *Observer {
	if w == nil {
		w = os.Stderr
	}
	return &Observer{
		w:      w,
		output: output.NewWithProfile(w, func() termenv.Profile { return output.ColorProfileFor(w) }),
	}
}

// OnEvent renders the event.
func (o *Observer) OnEvent(_ context.Context, e domain.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch e.Kind {
	case domain.EventBuildStart:
		if e.Build != nil {
			o.printf("%s Building %d source root(s) into %s\n",
				o.faint(style.Dot), len(e.Build.Sources), e.Build.Dest)
		}
	case domain.EventSearchComplete:
		o.printf("%s Found %d file(s)\n", o.faint(style.Dot), len(e.Paths))
	case domain.EventFileStart:
		if o.Verbose && e.File != nil {
			o.printf("%s Starting...\n", o.prefix(e.File))
		}
	case domain.EventFileComplete:
		o.fileComplete(e)
	case domain.EventBuildComplete:
		o.buildComplete(e.Build)
	case domain.EventError:
		// Per-file errors are reported with their file-complete line.
		if e.File == nil && e.Err != nil {
			o.printf("%s %v\n", o.color(style.Cross, termenv.ANSIRed), e.Err)
		}
	case domain.EventSearchStart:
	}
}

func (o *Observer) fileComplete(e domain.Event) {
	if e.File == nil || e.Record == nil {
		return
	}
	prefix := o.prefix(e.File)
	r := e.Record

	switch r.Outcome {
	case domain.OutcomeFailed:
		o.printf("%s %s Failed after %v: %v\n", prefix, o.color(style.Cross, termenv.ANSIRed), round(r.Elapsed), r.Err)
	case domain.OutcomeStopped:
		if o.Verbose {
			o.printf("%s %s Skipped\n", prefix, o.faint(style.Dot))
		}
	default:
		o.printf("%s %s Built in %v\n", prefix, o.color(style.Check, termenv.ANSIGreen), round(r.Elapsed))
	}
}

func (o *Observer) buildComplete(b *domain.Build) {
	if b == nil {
		return
	}
	failed := len(b.Failed())
	if failed > 0 {
		o.printf("%s Built %d file(s) in %v, %d failed\n",
			o.color(style.Cross, termenv.ANSIRed), b.FileCount(), round(b.Elapsed), failed)
		return
	}
	o.printf("%s Built %d file(s) in %v\n",
		o.color(style.Check, termenv.ANSIGreen), b.FileCount(), round(b.Elapsed))
}

// prefix labels a file by its path relative to its source root when known.
func (o *Observer) prefix(f *domain.FileInfo) string {
	label := f.Rel
	if label == "" {
		label = filepath.ToSlash(f.Path)
	}
	return o.faint(fmt.Sprintf("[%s]", label))
}

func (o *Observer) faint(s string) string {
	return o.output.String(s).Faint().String()
}

func (o *Observer) color(s string, c termenv.Color) string {
	return o.output.String(s).Foreground(c).String()
}

func (o *Observer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
