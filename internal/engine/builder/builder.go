// Package builder runs builds: it clears the destination, scans the sources and
// passes every queued file through the handler pipeline while publishing
// lifecycle events.
package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mason/internal/adapters/fs"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/pipeline"
	"go.trai.ch/mason/internal/engine/resolver"
)

// Builder orchestrates builds for one destination root and a set of source roots.
//
// A Builder runs at most one build at a time. Files of a build are processed
// strictly in queue order on the calling goroutine.
type Builder struct {
	running sync.Mutex

	dest      string
	root      string
	resolver  *resolver.Resolver
	pipeline  *pipeline.Pipeline
	scanner   ports.SourceScanner
	cleaner   ports.DestinationCleaner
	observers []ports.Observer
	now       func() time.Time
	seq       atomic.Uint64

	statusMu sync.RWMutex
	status   Status
}

// Status is a point-in-time view of the builder's progress.
type Status struct {
	Build     domain.BuildState
	File      string
	FileState domain.FileState
}

// Option configures a Builder.
type Option func(*Builder)

// WithObserver adds an observer that receives every lifecycle event.
func WithObserver(o ports.Observer) Option {
	return func(b *Builder) {
		if o != nil {
			b.observers = append(b.observers, o)
		}
	}
}

// WithScanner replaces the source scanner.
func WithScanner(s ports.SourceScanner) Option {
	return func(b *Builder) {
		if s != nil {
			b.scanner = s
		}
	}
}

// WithCleaner replaces the destination cleaner.
func WithCleaner(c ports.DestinationCleaner) Option {
	return func(b *Builder) {
		if c != nil {
			b.cleaner = c
		}
	}
}

// WithProjectRoot sets the project root recorded on every build.
func WithProjectRoot(root string) Option {
	return func(b *Builder) {
		b.root = root
	}
}

// WithClock replaces the time source used for build timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a Builder mirroring sources into dest.
// Sources keep their order, which is their precedence when resolving destinations.
func New(dest string, sources []string, opts ...Option) *Builder {
	b := &Builder{
		dest:     dest,
		resolver: resolver.New(dest, slices.Clone(sources)),
		pipeline: pipeline.New(),
		scanner:  fs.NewScanner(),
		cleaner:  fs.NewCleaner(),
		now:      time.Now,
		status:   Status{Build: domain.BuildStateIdle},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.root == "" {
		if wd, err := os.Getwd(); err == nil {
			b.root = wd
		}
	}
	return b
}

// Dest returns the destination root.
func (b *Builder) Dest() string {
	return b.dest
}

// Sources returns the configured source roots.
func (b *Builder) Sources() []string {
	return b.resolver.Roots()
}

// Handlers returns the names of the registered handlers in order.
func (b *Builder) Handlers() []string {
	return b.pipeline.Names()
}

// Use appends h to the handler chain.
// Handlers cannot be added while a build is running.
func (b *Builder) Use(h ports.Handler) error {
	if !b.running.TryLock() {
		return domain.ErrBuildInProgress
	}
	defer b.running.Unlock()

	return b.pipeline.Use(h)
}

// ResolveToDest returns the destination path mirroring p.
func (b *Builder) ResolveToDest(p string) (string, bool) {
	return b.resolver.ResolveToDest(p)
}

// PathInfo returns the FileInfo a handler would receive for p.
func (b *Builder) PathInfo(p string) domain.FileInfo {
	return b.resolver.PathInfo(p)
}

// Status returns the current progress.
func (b *Builder) Status() Status {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.status
}

func (b *Builder) setStatus(state domain.BuildState, file string, fileState domain.FileState) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.status = Status{Build: state, File: file, FileState: fileState}
}

// ClearDest empties the destination root.
func (b *Builder) ClearDest(ctx context.Context) error {
	if !b.running.TryLock() {
		return domain.ErrBuildInProgress
	}
	defer b.running.Unlock()

	if err := b.cleaner.Clear(ctx, b.dest); err != nil {
		b.publish(ctx, domain.Event{Kind: domain.EventError, Err: err})
		return err
	}
	return nil
}

// Search returns the build queue for paths, or for the configured roots when none are given.
func (b *Builder) Search(ctx context.Context, paths ...string) ([]string, error) {
	roots := b.effectiveRoots(paths)
	if len(roots) == 0 {
		b.publish(ctx, domain.Event{Kind: domain.EventError, Err: domain.ErrNoSources})
		return nil, domain.ErrNoSources
	}
	return b.search(ctx, roots)
}

func (b *Builder) search(ctx context.Context, roots []string) ([]string, error) {
	b.publish(ctx, domain.Event{Kind: domain.EventSearchStart, Paths: slices.Clone(roots)})

	queue, err := b.scanner.Scan(ctx, roots)
	if err != nil {
		return nil, err
	}

	b.publish(ctx, domain.Event{Kind: domain.EventSearchComplete, Paths: slices.Clone(queue)})
	return queue, nil
}

// Build clears the destination, scans the roots and runs every queued file
// through the handler chain.
//
// Roots given as arguments replace the configured roots for this build only.
// Relative roots are taken from the process working directory.
// A file whose handler fails does not stop the build: the build finalizes and
// the returned error joins domain.ErrBuildCompletedWithErrors with every file error.
// A failure while clearing or scanning aborts the build in the failed state.
func (b *Builder) Build(ctx context.Context, sources ...string) (*domain.Build, error) {
	if !b.running.TryLock() {
		return nil, domain.ErrBuildInProgress
	}
	defer b.running.Unlock()

	roots := b.effectiveRoots(sources)
	if len(roots) == 0 {
		b.publish(ctx, domain.Event{Kind: domain.EventError, Err: domain.ErrNoSources})
		return nil, domain.ErrNoSources
	}

	started := b.now()
	build := &domain.Build{
		ID:        b.nextID(started),
		Root:      b.root,
		Dest:      b.dest,
		Sources:   slices.Clone(roots),
		State:     domain.BuildStateIdle,
		StartedAt: started,
	}
	b.publish(ctx, domain.Event{Kind: domain.EventBuildStart, Build: build.Clone()})

	b.transition(build, domain.BuildStateClearing)
	if err := b.cleaner.Clear(ctx, b.dest); err != nil {
		return b.fail(ctx, build, err)
	}

	b.transition(build, domain.BuildStateScanning)
	queue, err := b.search(ctx, roots)
	if err != nil {
		return b.fail(ctx, build, err)
	}
	build.Queue = queue

	b.transition(build, domain.BuildStateIterating)
	res := b.resolver
	if len(sources) > 0 {
		res = res.Extend(roots...)
	}

	var fileErrs []error
	for _, p := range queue {
		record := b.buildFile(ctx, res, p)
		build.Files = append(build.Files, record)
		if record.Err != nil {
			fileErrs = append(fileErrs, record.Err)
		}
	}

	b.finish(build, domain.BuildStateFinalized)
	if len(fileErrs) > 0 {
		build.Err = errors.Join(append([]error{domain.ErrBuildCompletedWithErrors}, fileErrs...)...)
	}
	b.publish(ctx, domain.Event{Kind: domain.EventBuildComplete, Build: build.Clone()})

	return build, build.Err
}

// buildFile passes one file through the chain and publishes its events.
// For a failing file the error event precedes file-complete.
func (b *Builder) buildFile(ctx context.Context, res *resolver.Resolver, p string) domain.FileRecord {
	started := b.now()
	info := res.PathInfo(p)

	record := domain.FileRecord{Path: p, Dest: info.Dest, State: domain.FileStateStarting}
	b.setStatus(domain.BuildStateIterating, p, domain.FileStateStarting)
	starting := record
	b.publish(ctx, domain.Event{Kind: domain.EventFileStart, File: &info, Record: &starting})

	record.State = domain.FileStateTransforming
	b.setStatus(domain.BuildStateIterating, p, domain.FileStateTransforming)
	result := b.pipeline.Execute(ctx, info)

	record.State = domain.FileStateCompleted
	record.Outcome = result.Outcome
	record.Handlers = result.Handlers
	record.Err = result.Err
	record.Elapsed = b.now().Sub(started)
	b.setStatus(domain.BuildStateIterating, p, domain.FileStateCompleted)

	if record.Err != nil {
		errRecord := record
		b.publish(ctx, domain.Event{Kind: domain.EventError, File: &info, Record: &errRecord, Err: record.Err})
	}
	completed := record
	b.publish(ctx, domain.Event{Kind: domain.EventFileComplete, File: &info, Record: &completed})

	return record
}

func (b *Builder) fail(ctx context.Context, build *domain.Build, err error) (*domain.Build, error) {
	b.finish(build, domain.BuildStateFailed)
	build.Err = errors.Join(domain.ErrBuildFailed, err)
	b.publish(ctx, domain.Event{Kind: domain.EventError, Build: build.Clone(), Err: build.Err})
	return build, build.Err
}

func (b *Builder) finish(build *domain.Build, state domain.BuildState) {
	build.CompletedAt = b.now()
	build.Elapsed = build.CompletedAt.Sub(build.StartedAt)
	b.transition(build, state)
}

func (b *Builder) transition(build *domain.Build, state domain.BuildState) {
	build.State = state
	b.setStatus(state, "", "")
}

// effectiveRoots returns sources made absolute against the working directory,
// or the configured roots when sources is empty.
func (b *Builder) effectiveRoots(sources []string) []string {
	if len(sources) == 0 {
		return b.resolver.Roots()
	}
	roots := make([]string, 0, len(sources))
	for _, src := range sources {
		if abs, err := filepath.Abs(src); err == nil {
			src = abs
		}
		roots = append(roots, src)
	}
	return roots
}

func (b *Builder) nextID(started time.Time) string {
	key := fmt.Sprintf("%s|%s|%d|%d", b.root, b.dest, started.UnixNano(), b.seq.Add(1))
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

func (b *Builder) publish(ctx context.Context, event domain.Event) {
	for _, o := range b.observers {
		o.OnEvent(ctx, event)
	}
}
