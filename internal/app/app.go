// Package app implements the application layer for mason.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/mason/internal/adapters/handlers"
	"go.trai.ch/mason/internal/adapters/linear"
	"go.trai.ch/mason/internal/adapters/watcher"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/builder"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	opener       ports.ManifestOpener
	hasher       ports.Hasher
	scanner      ports.SourceScanner
	cleaner      ports.DestinationCleaner
	console      *linear.Observer
	observers    []ports.Observer
	closers      []func() error
	runner       ports.CommandRunner
	watcher      ports.Watcher
	debounce     time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	opener ports.ManifestOpener,
	hasher ports.Hasher,
	scanner ports.SourceScanner,
	cleaner ports.DestinationCleaner,
	console *linear.Observer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		opener:       opener,
		hasher:       hasher,
		scanner:      scanner,
		cleaner:      cleaner,
		console:      console,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithObservers adds observers that receive the events of every build.
func (a *App) WithObservers(obs ...ports.Observer) *App {
	for _, o := range obs {
		if o == nil {
			continue
		}
		a.observers = append(a.observers, o)
		if c, ok := o.(interface{ Close() error }); ok {
			a.closers = append(a.closers, c.Close)
		}
	}
	return a
}

// WithRunner sets the command runner used for the project's run commands.
func (a *App) WithRunner(r ports.CommandRunner) *App {
	a.runner = r
	return a
}

// WithWatcher sets the file watcher used by Watch.
func (a *App) WithWatcher(w ports.Watcher) *App {
	a.watcher = w
	return a
}

// WithDebounceWindow sets how long Watch waits for changes to settle before rebuilding.
func (a *App) WithDebounceWindow(d time.Duration) *App {
	a.debounce = d
	return a
}

// Close releases observers that hold resources.
func (a *App) Close() error {
	var errs error
	for _, c := range a.closers {
		errs = errors.Join(errs, c())
	}
	return errs
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Cwd is where the configuration search starts.
	Cwd string
	// Sources replace the configured source roots for this build when set.
	Sources []string
	// Verbose prints skipped files and file starts.
	Verbose bool
}

// Build loads the project and runs one full build.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*domain.Build, error) {
	a.setVerbose(opts.Verbose)

	s, err := a.open(opts.Cwd)
	if err != nil {
		return nil, err
	}
	sources, err := resolveArgs(opts.Cwd, opts.Sources)
	if err != nil {
		return nil, err
	}
	return a.runBuild(ctx, s, sources)
}

// SearchOptions configuration for the Search method.
type SearchOptions struct {
	Cwd   string
	Paths []string
}

// Search returns the files a build would process, in build order.
func (a *App) Search(ctx context.Context, opts SearchOptions) ([]string, error) {
	project, err := a.load(opts.Cwd)
	if err != nil {
		return nil, err
	}
	paths, err := resolveArgs(opts.Cwd, opts.Paths)
	if err != nil {
		return nil, err
	}
	return a.newBuilder(project).Search(ctx, paths...)
}

// resolveArgs makes command line paths absolute against cwd, matching the
// absolute roots the configuration loader produces.
func resolveArgs(cwd string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if cwd == "" {
		cwd = "."
	}
	base, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.IsAbs(p) {
			out = append(out, filepath.Clean(p))
			continue
		}
		out = append(out, filepath.Join(base, p))
	}
	return out, nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Cwd string
	// Manifest also removes the manifest file.
	Manifest bool
}

// Clean empties the destination root and optionally removes the manifest.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	project, err := a.load(opts.Cwd)
	if err != nil {
		return err
	}

	var errs error
	if err := a.newBuilder(project).ClearDest(ctx); err != nil {
		errs = errors.Join(errs, zerr.Wrap(err, "failed to clean build destination"))
	} else {
		a.logger.Info(fmt.Sprintf("cleared %s", project.Dest))
	}

	if opts.Manifest {
		if err := os.Remove(project.Manifest); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove manifest"), "path", project.Manifest))
		} else {
			a.logger.Info(fmt.Sprintf("removed %s", project.Manifest))
		}
	}
	return errs
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Cwd     string
	Verbose bool
}

// Watch builds once and rebuilds whenever files below the source roots change.
// It returns when ctx is done. Build failures are reported and do not stop watching.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	if a.watcher == nil {
		return zerr.New("no file watcher configured")
	}
	a.setVerbose(opts.Verbose)

	s, err := a.open(opts.Cwd)
	if err != nil {
		return err
	}

	if _, err := a.runBuild(ctx, s, nil); err != nil && !IsBuildError(err) {
		return err
	}

	if err := a.watcher.Start(ctx, s.project.Sources, s.project.Dest, s.project.Manifest); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()
	a.logger.Info(fmt.Sprintf("watching %d source root(s) for changes", len(s.project.Sources)))

	trigger := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case trigger <- paths:
		default:
			// A rebuild is already pending and covers these paths.
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case paths := <-trigger:
				a.logger.Info(fmt.Sprintf("%d path(s) changed, rebuilding", len(paths)))
				if _, err := a.runBuild(gctx, s, nil); err != nil && !IsBuildError(err) {
					a.logger.Error(err)
				}
			}
		}
	})

	return g.Wait()
}

// session is a loaded project with its builder and manifest.
type session struct {
	project *domain.Project
	builder *builder.Builder
	store   ports.ManifestStore
	relay   *relay
}

func (a *App) load(cwd string) (*domain.Project, error) {
	if cwd == "" {
		cwd = "."
	}
	project, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

func (a *App) open(cwd string) (*session, error) {
	project, err := a.load(cwd)
	if err != nil {
		return nil, err
	}

	store, err := a.opener.Open(project.Manifest)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open manifest")
	}

	s := &session{project: project, store: store}
	s.builder = a.newBuilder(project, builder.WithObserver(ports.ObserverFunc(func(ctx context.Context, e domain.Event) {
		s.relay.OnEvent(ctx, e)
	})))

	if len(project.Include) > 0 || len(project.Exclude) > 0 {
		if err := s.builder.Use(handlers.NewFilter(project.Include, project.Exclude)); err != nil {
			return nil, err
		}
	}
	if err := s.builder.Use(handlers.NewCopy()); err != nil {
		return nil, err
	}
	if len(project.Commands) > 0 {
		if a.runner == nil {
			return nil, zerr.New("project defines run commands but no command runner is configured")
		}
		if err := s.builder.Use(handlers.NewExec(a.runner, project.Commands, project.Root, project.Env)); err != nil {
			return nil, err
		}
	}
	if err := s.builder.Use(handlers.NewChecksum(a.hasher, store)); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) newBuilder(project *domain.Project, opts ...builder.Option) *builder.Builder {
	opts = append([]builder.Option{
		builder.WithProjectRoot(project.Root),
		builder.WithScanner(a.scanner),
		builder.WithCleaner(a.cleaner),
	}, opts...)
	return builder.New(project.Dest, project.Sources, opts...)
}

// runBuild resets the manifest and runs the builder while a second goroutine
// delivers its events to the observers.
func (a *App) runBuild(ctx context.Context, s *session, sources []string) (*domain.Build, error) {
	if err := s.store.Reset(); err != nil {
		return nil, zerr.Wrap(err, "failed to reset manifest")
	}

	s.relay = newRelay(a.buildObservers())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.relay.Run)

	var build *domain.Build
	g.Go(func() error {
		defer s.relay.Close()
		var err error
		build, err = s.builder.Build(gctx, sources...)
		return err
	})

	return build, g.Wait()
}

func (a *App) buildObservers() []ports.Observer {
	observers := make([]ports.Observer, 0, len(a.observers)+1)
	if a.console != nil {
		observers = append(observers, a.console)
	}
	return append(observers, a.observers...)
}

func (a *App) setVerbose(v bool) {
	if a.console != nil {
		a.console.Verbose = v
	}
}

// IsBuildError reports whether err is a build failure the build observers
// have already reported.
func IsBuildError(err error) bool {
	return errors.Is(err, domain.ErrBuildCompletedWithErrors) ||
		errors.Is(err, domain.ErrBuildFailed) ||
		errors.Is(err, domain.ErrNoSources)
}
