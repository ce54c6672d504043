package builder_test

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/core/ports/mocks"
	"go.trai.ch/mason/internal/engine/builder"
	"go.uber.org/mock/gomock"
)

// eventLog records every event it receives.
type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) OnEvent(_ context.Context, e domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []domain.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]domain.EventKind, len(l.events))
	for i, e := range l.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (l *eventLog) count(kind domain.EventKind) int {
	n := 0
	for _, k := range l.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
		require.NoError(t, os.WriteFile(p, []byte(f), domain.PrivateFilePerm))
	}
}

// copyHandler mirrors every file to its destination.
func copyHandler() ports.Handler {
	return ports.HandlerFunc(func(_ context.Context, f domain.FileInfo) (domain.Decision, error) {
		if !f.HasDest() {
			return domain.Stop, nil
		}
		if err := os.MkdirAll(filepath.Dir(f.Dest), domain.DirPerm); err != nil {
			return domain.Continue, err
		}
		in, err := os.Open(f.Path)
		if err != nil {
			return domain.Continue, err
		}
		defer in.Close() //nolint:errcheck // Read-only file
		out, err := os.Create(f.Dest)
		if err != nil {
			return domain.Continue, err
		}
		defer out.Close() //nolint:errcheck // Test helper
		_, err = io.Copy(out, in)
		return domain.Continue, err
	})
}

// destFiles lists every regular file below dest as slash paths relative to it.
func destFiles(t *testing.T, dest string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dest, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dest, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

type project struct {
	src  string
	dest string
}

func newProject(t *testing.T, files ...string) project {
	t.Helper()
	tmpDir := t.TempDir()
	p := project{src: filepath.Join(tmpDir, "src"), dest: filepath.Join(tmpDir, "app")}
	writeFiles(t, p.src, files...)
	return p
}

func TestBuild_CopiesEveryFile(t *testing.T) {
	p := newProject(t, "index.js", "style/site.css", "script/foo.js")
	log := &eventLog{}
	b := builder.New(p.dest, []string{p.src}, builder.WithObserver(log))
	require.NoError(t, b.Use(copyHandler()))

	build, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.BuildStateFinalized, build.State)
	assert.Equal(t, 3, build.FileCount())
	assert.Empty(t, build.Failed())
	assert.NotEmpty(t, build.ID)
	assert.ElementsMatch(t, []string{"index.js", "style/site.css", "script/foo.js"}, destFiles(t, p.dest))
	for _, rel := range []string{"index.js", "style/site.css", "script/foo.js"} {
		content, err := os.ReadFile(filepath.Join(p.dest, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, rel, string(content))
	}

	assert.Equal(t, 1, log.count(domain.EventBuildComplete))
	assert.Equal(t, 3, log.count(domain.EventFileStart))
	assert.Equal(t, 3, log.count(domain.EventFileComplete))
	assert.Zero(t, log.count(domain.EventError))
}

func TestBuild_EventOrder(t *testing.T) {
	p := newProject(t, "a.js", "b.js")
	log := &eventLog{}
	b := builder.New(p.dest, []string{p.src}, builder.WithObserver(log))

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.EventKind{
		domain.EventBuildStart,
		domain.EventSearchStart,
		domain.EventSearchComplete,
		domain.EventFileStart,
		domain.EventFileComplete,
		domain.EventFileStart,
		domain.EventFileComplete,
		domain.EventBuildComplete,
	}, log.kinds())

	first := log.events[0]
	require.NotNil(t, first.Build)
	assert.Equal(t, domain.BuildStateIdle, first.Build.State)
	assert.Equal(t, []string{p.src}, log.events[1].Paths)
	assert.Equal(t, []string{filepath.Join(p.src, "a.js"), filepath.Join(p.src, "b.js")}, log.events[2].Paths)

	fileStart := log.events[3]
	require.NotNil(t, fileStart.File)
	assert.Equal(t, "a", fileStart.File.Name)
	assert.Equal(t, filepath.Join(p.dest, "a.js"), fileStart.File.Dest)
	assert.Equal(t, domain.FileStateStarting, fileStart.Record.State)
	assert.Equal(t, domain.FileStateCompleted, log.events[4].Record.State)

	last := log.events[len(log.events)-1]
	assert.Equal(t, domain.BuildStateFinalized, last.Build.State)
	assert.Equal(t, 2, last.Build.FileCount())
}

func TestBuild_NoSourcesFailsBeforeTouchingDisk(t *testing.T) {
	ctrl := gomock.NewController(t)
	cleaner := mocks.NewMockDestinationCleaner(ctrl)
	scanner := mocks.NewMockSourceScanner(ctrl)
	log := &eventLog{}

	dest := filepath.Join(t.TempDir(), "app")
	b := builder.New(dest, nil,
		builder.WithCleaner(cleaner),
		builder.WithScanner(scanner),
		builder.WithObserver(log),
	)

	build, err := b.Build(context.Background())
	require.ErrorIs(t, err, domain.ErrNoSources)
	assert.Nil(t, build)
	assert.Equal(t, []domain.EventKind{domain.EventError}, log.kinds())

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_ClearFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	cleaner := mocks.NewMockDestinationCleaner(ctrl)
	scanner := mocks.NewMockSourceScanner(ctrl)
	log := &eventLog{}
	boom := errors.New("disk on fire")

	cleaner.EXPECT().Clear(gomock.Any(), "app").Return(boom)

	b := builder.New("app", []string{"src"},
		builder.WithCleaner(cleaner),
		builder.WithScanner(scanner),
		builder.WithObserver(log),
	)

	build, err := b.Build(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrBuildFailed)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, build)
	assert.Equal(t, domain.BuildStateFailed, build.State)
	assert.Equal(t, []domain.EventKind{domain.EventBuildStart, domain.EventError}, log.kinds())
	assert.Equal(t, domain.BuildStateFailed, log.events[1].Build.State)
}

func TestBuild_ScanFailure(t *testing.T) {
	tmpDir := t.TempDir()
	log := &eventLog{}
	b := builder.New(filepath.Join(tmpDir, "app"), []string{filepath.Join(tmpDir, "missing")}, builder.WithObserver(log))

	build, err := b.Build(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrPathNotFound.Error())
	assert.Equal(t, domain.BuildStateFailed, build.State)
	assert.Zero(t, log.count(domain.EventBuildComplete))
	assert.Equal(t, 1, log.count(domain.EventError))
}

func TestBuild_HandlerErrorDoesNotStopBuild(t *testing.T) {
	p := newProject(t, "bad.js", "good.js")
	log := &eventLog{}
	boom := errors.New("syntax error")
	b := builder.New(p.dest, []string{p.src}, builder.WithObserver(log))

	var seen []string
	require.NoError(t, b.Use(ports.HandlerFunc(func(_ context.Context, f domain.FileInfo) (domain.Decision, error) {
		seen = append(seen, f.Name)
		if f.Name == "bad" {
			return domain.Continue, boom
		}
		return domain.Continue, nil
	})))

	build, err := b.Build(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrBuildCompletedWithErrors)
	require.ErrorIs(t, err, domain.ErrHandlerExecution)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"bad", "good"}, seen)
	assert.Equal(t, domain.BuildStateFinalized, build.State)
	assert.Equal(t, 2, build.FileCount())
	require.Len(t, build.Failed(), 1)
	assert.Equal(t, filepath.Join(p.src, "bad.js"), build.Failed()[0].Path)
	assert.Equal(t, 1, log.count(domain.EventBuildComplete))

	kinds := log.kinds()
	assert.Equal(t, []domain.EventKind{
		domain.EventFileStart,
		domain.EventError,
		domain.EventFileComplete,
		domain.EventFileStart,
		domain.EventFileComplete,
		domain.EventBuildComplete,
	}, kinds[3:])
}

func TestBuild_StopIsRecorded(t *testing.T) {
	p := newProject(t, "keep.js", "skip.map")
	b := builder.New(p.dest, []string{p.src})

	require.NoError(t, b.Use(ports.HandlerFunc(func(_ context.Context, f domain.FileInfo) (domain.Decision, error) {
		if f.Ext == "map" {
			return domain.Stop, nil
		}
		return domain.Continue, nil
	})))
	require.NoError(t, b.Use(copyHandler()))

	build, err := b.Build(context.Background())
	require.NoError(t, err)

	rec, ok := build.File(filepath.Join(p.src, "skip.map"))
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeStopped, rec.Outcome)
	assert.Equal(t, 1, rec.Handlers)

	_, statErr := os.Stat(filepath.Join(p.dest, "skip.map"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(p.dest, "keep.js"))
	assert.NoError(t, statErr)
}

func TestBuild_ClearsStaleOutput(t *testing.T) {
	p := newProject(t, "a.js")
	writeFiles(t, p.dest, "stale/old.js")
	b := builder.New(p.dest, []string{p.src})
	require.NoError(t, b.Use(copyHandler()))

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(p.dest, "stale"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_SeesFilesAddedBetweenBuilds(t *testing.T) {
	p := newProject(t, "a.js")
	b := builder.New(p.dest, []string{p.src})

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.FileCount())

	writeFiles(t, p.src, "b.js")

	second, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.FileCount())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBuild_OverlappingRootsBuildEachFileOnce(t *testing.T) {
	p := newProject(t, "a.js", "sub/c.js")
	sub := filepath.Join(p.src, "sub")
	b := builder.New(p.dest, []string{p.src, sub})

	build, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, build.FileCount())

	rec, ok := build.File(filepath.Join(sub, "c.js"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(p.dest, "c.js"), rec.Dest)
}

func TestBuild_SourcesArgumentOverridesRoots(t *testing.T) {
	p := newProject(t, "a.js", "script/foo.js")
	script := filepath.Join(p.src, "script")
	b := builder.New(p.dest, []string{p.src})
	require.NoError(t, b.Use(copyHandler()))

	build, err := b.Build(context.Background(), script)
	require.NoError(t, err)

	assert.Equal(t, []string{script}, build.Sources)
	assert.Equal(t, []string{filepath.Join(script, "foo.js")}, build.Queue)
	_, statErr := os.Stat(filepath.Join(p.dest, "script", "foo.js"))
	assert.NoError(t, statErr)

	// The override only applies to that build.
	assert.Equal(t, []string{p.src}, b.Sources())
}

func TestBuild_RelativeSourcesArgumentKeepsMirroredPrefix(t *testing.T) {
	p := newProject(t, "a.js", "script/foo.js")
	t.Chdir(filepath.Dir(p.src))
	b := builder.New(p.dest, []string{p.src})
	require.NoError(t, b.Use(copyHandler()))

	build, err := b.Build(context.Background(), filepath.Join("src", "script"))
	require.NoError(t, err)

	script := filepath.Join(p.src, "script")
	assert.Equal(t, []string{script}, build.Sources)
	require.Len(t, build.Files, 1)
	assert.Equal(t, filepath.Join(p.dest, "script", "foo.js"), build.Files[0].Dest)
	assert.Equal(t, []string{"script/foo.js"}, destFiles(t, p.dest))
}

func TestBuild_RejectsConcurrentBuilds(t *testing.T) {
	p := newProject(t, "a.js")
	b := builder.New(p.dest, []string{p.src})

	var nestedBuildErr, nestedUseErr, nestedClearErr error
	require.NoError(t, b.Use(ports.HandlerFunc(func(ctx context.Context, _ domain.FileInfo) (domain.Decision, error) {
		_, nestedBuildErr = b.Build(ctx)
		nestedUseErr = b.Use(copyHandler())
		nestedClearErr = b.ClearDest(ctx)
		return domain.Continue, nil
	})))

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, nestedBuildErr, domain.ErrBuildInProgress)
	assert.ErrorIs(t, nestedUseErr, domain.ErrBuildInProgress)
	assert.ErrorIs(t, nestedClearErr, domain.ErrBuildInProgress)
	assert.Len(t, b.Handlers(), 1)
}

func TestBuild_UsesClock(t *testing.T) {
	p := newProject(t, "a.js")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks int
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	b := builder.New(p.dest, []string{p.src}, builder.WithClock(clock), builder.WithProjectRoot("/project"))
	build, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/project", build.Root)
	assert.Equal(t, base.Add(time.Second), build.StartedAt)
	assert.True(t, build.CompletedAt.After(build.StartedAt))
	assert.Equal(t, build.CompletedAt.Sub(build.StartedAt), build.Elapsed)
	assert.Equal(t, time.Second, build.Files[0].Elapsed)
}

func TestBuild_Status(t *testing.T) {
	p := newProject(t, "a.js")
	b := builder.New(p.dest, []string{p.src})
	assert.Equal(t, domain.BuildStateIdle, b.Status().Build)

	var during builder.Status
	require.NoError(t, b.Use(ports.HandlerFunc(func(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
		during = b.Status()
		return domain.Continue, nil
	})))

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.BuildStateIterating, during.Build)
	assert.Equal(t, filepath.Join(p.src, "a.js"), during.File)
	assert.Equal(t, domain.FileStateTransforming, during.FileState)
	assert.Equal(t, domain.BuildStateFinalized, b.Status().Build)
}

func TestSearch(t *testing.T) {
	p := newProject(t, "a.js", "b/c.js")
	log := &eventLog{}
	b := builder.New(p.dest, []string{p.src}, builder.WithObserver(log))

	queue, err := b.Search(context.Background())
	require.NoError(t, err)
	assert.Len(t, queue, 2)
	assert.Equal(t, []domain.EventKind{domain.EventSearchStart, domain.EventSearchComplete}, log.kinds())

	queue, err = b.Search(context.Background(), filepath.Join(p.src, "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(p.src, "b", "c.js")}, queue)

	_, err = builder.New(p.dest, nil).Search(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestResolveAndPathInfo(t *testing.T) {
	b := builder.New("app", []string{"src", "src/script"})

	dest, ok := b.ResolveToDest("src/script/foo.js")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("app", "foo.js"), dest)

	info := b.PathInfo("src/script/foo.bar.bundle.js")
	assert.Equal(t, "foo.bar.bundle", info.Name)
	assert.Equal(t, "js", info.Ext)
	assert.Equal(t, "app", b.Dest())
}

func TestClearDest(t *testing.T) {
	p := newProject(t)
	writeFiles(t, p.dest, "x/y.js")
	b := builder.New(p.dest, []string{p.src})

	require.NoError(t, b.ClearDest(context.Background()))
	require.NoError(t, b.ClearDest(context.Background()))

	entries, err := os.ReadDir(p.dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
