package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/pipeline"
)

var testFile = domain.FileInfo{Path: "src/script/foo.js", Dest: "app/script/foo.js", Name: "foo", Ext: "js"}

// recorder returns a handler that appends id to calls and returns decision.
func recorder(calls *[]int, id int, decision domain.Decision) ports.Handler {
	return ports.HandlerFunc(func(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
		*calls = append(*calls, id)
		return decision, nil
	})
}

func TestExecute_RunsInRegistrationOrder(t *testing.T) {
	p := pipeline.New()
	var calls []int
	for i := 1; i <= 3; i++ {
		require.NoError(t, p.Use(recorder(&calls, i, domain.Continue)))
	}

	res := p.Execute(context.Background(), testFile)

	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
	assert.Equal(t, 3, res.Handlers)
	assert.NoError(t, res.Err)
}

func TestExecute_StopEndsChainForFile(t *testing.T) {
	p := pipeline.New()
	var calls []int
	require.NoError(t, p.Use(recorder(&calls, 1, domain.Continue)))
	require.NoError(t, p.Use(recorder(&calls, 2, domain.Continue)))
	require.NoError(t, p.Use(recorder(&calls, 3, domain.Stop)))
	require.NoError(t, p.Use(recorder(&calls, 4, domain.Continue)))

	res := p.Execute(context.Background(), testFile)
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, domain.OutcomeStopped, res.Outcome)
	assert.Equal(t, 3, res.Handlers)

	// The stop applies to that file only; the next file runs the full chain again.
	calls = nil
	res = p.Execute(context.Background(), domain.FileInfo{Path: "src/other.js"})
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, domain.OutcomeStopped, res.Outcome)
}

func TestExecute_ErrorHaltsChain(t *testing.T) {
	p := pipeline.New()
	var calls []int
	boom := errors.New("boom")

	require.NoError(t, p.Use(recorder(&calls, 1, domain.Continue)))
	require.NoError(t, p.Use(pipeline.Named("minify", ports.HandlerFunc(
		func(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
			calls = append(calls, 2)
			return domain.Continue, boom
		},
	))))
	require.NoError(t, p.Use(recorder(&calls, 3, domain.Continue)))

	res := p.Execute(context.Background(), testFile)

	assert.Equal(t, []int{1, 2}, calls)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Equal(t, 2, res.Handlers)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, domain.ErrHandlerExecution)
	assert.ErrorIs(t, res.Err, boom)
	assert.ErrorContains(t, res.Err, "handler minify failed")
}

func TestExecute_PanicBecomesError(t *testing.T) {
	p := pipeline.New()
	require.NoError(t, p.Use(ports.HandlerFunc(func(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
		panic("kaboom")
	})))

	res := p.Execute(context.Background(), testFile)

	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrHandlerExecution)
	assert.ErrorContains(t, res.Err, "kaboom")
	assert.ErrorContains(t, res.Err, "#0(ports.HandlerFunc)")
}

func TestExecute_UnknownDecisionFails(t *testing.T) {
	p := pipeline.New()
	var calls []int
	require.NoError(t, p.Use(recorder(&calls, 1, domain.Decision(7))))
	require.NoError(t, p.Use(recorder(&calls, 2, domain.Continue)))

	res := p.Execute(context.Background(), testFile)

	assert.Equal(t, []int{1}, calls)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.ErrorContains(t, res.Err, "unknown decision")
}

func TestExecute_EmptyChain(t *testing.T) {
	res := pipeline.New().Execute(context.Background(), testFile)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
	assert.Zero(t, res.Handlers)
}

func TestExecute_HandlersReceiveOwnCopy(t *testing.T) {
	p := pipeline.New()
	require.NoError(t, p.Use(ports.HandlerFunc(func(_ context.Context, f domain.FileInfo) (domain.Decision, error) {
		f.Dest = "scratch"
		return domain.Continue, nil
	})))
	var seen domain.FileInfo
	require.NoError(t, p.Use(ports.HandlerFunc(func(_ context.Context, f domain.FileInfo) (domain.Decision, error) {
		seen = f
		return domain.Continue, nil
	})))

	p.Execute(context.Background(), testFile)
	assert.Equal(t, testFile, seen)
}

func TestUse_RejectsNilHandlers(t *testing.T) {
	p := pipeline.New()

	var nilFunc ports.HandlerFunc
	tests := []struct {
		name    string
		handler ports.Handler
	}{
		{"Nil interface", nil},
		{"Nil HandlerFunc", nilFunc},
		{"Nil cooperative", pipeline.Cooperative(nil)},
		{"Named nil", pipeline.Named("x", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Use(tt.handler)
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrInvalidHandler.Error())
		})
	}
	assert.Zero(t, p.Len())
}

func TestNames(t *testing.T) {
	p := pipeline.New()
	require.NoError(t, p.Use(pipeline.Named("copy", ports.HandlerFunc(passThrough))))
	require.NoError(t, p.Use(ports.HandlerFunc(passThrough)))

	assert.Equal(t, []string{"copy", "#1(ports.HandlerFunc)"}, p.Names())
}

func passThrough(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
	return domain.Continue, nil
}

func TestCooperative(t *testing.T) {
	tests := []struct {
		name     string
		fn       pipeline.CooperativeFunc
		expected domain.Outcome
		calls    []int
	}{
		{
			name: "next() continues",
			fn: func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
				next()
				return nil
			},
			expected: domain.OutcomeBuilt,
			calls:    []int{1, 2},
		},
		{
			name: "next(true) continues",
			fn: func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
				next(true)
				return nil
			},
			expected: domain.OutcomeBuilt,
			calls:    []int{1, 2},
		},
		{
			name: "next(false) stops",
			fn: func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
				next(false)
				return nil
			},
			expected: domain.OutcomeStopped,
			calls:    []int{1},
		},
		{
			name: "Returning without next continues",
			fn: func(_ context.Context, _ domain.FileInfo, _ pipeline.Next) error {
				return nil
			},
			expected: domain.OutcomeBuilt,
			calls:    []int{1, 2},
		},
		{
			name: "First call wins over later stop",
			fn: func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
				next()
				next(false)
				return nil
			},
			expected: domain.OutcomeBuilt,
			calls:    []int{1, 2},
		},
		{
			name: "First call wins over later continue",
			fn: func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
				next(false)
				next(true)
				return nil
			},
			expected: domain.OutcomeStopped,
			calls:    []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []int
			p := pipeline.New()
			fn := tt.fn
			require.NoError(t, p.Use(pipeline.Cooperative(func(ctx context.Context, f domain.FileInfo, next pipeline.Next) error {
				calls = append(calls, 1)
				return fn(ctx, f, next)
			})))
			require.NoError(t, p.Use(recorder(&calls, 2, domain.Continue)))

			res := p.Execute(context.Background(), testFile)
			assert.Equal(t, tt.expected, res.Outcome)
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestCooperative_WaitsForBlockingWork(t *testing.T) {
	p := pipeline.New()
	var order []string
	var mu sync.Mutex

	require.NoError(t, p.Use(pipeline.Cooperative(func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
		done := make(chan struct{})
		go func() {
			defer close(done)
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, "async work")
			mu.Unlock()
		}()
		<-done
		next()
		return nil
	})))
	require.NoError(t, p.Use(ports.HandlerFunc(func(_ context.Context, _ domain.FileInfo) (domain.Decision, error) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		return domain.Continue, nil
	})))

	res := p.Execute(context.Background(), testFile)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
	assert.Equal(t, []string{"async work", "second"}, order)
}

func TestCooperative_LateNextIsIgnored(t *testing.T) {
	p := pipeline.New()
	release := make(chan struct{})
	lateDone := make(chan struct{})

	require.NoError(t, p.Use(pipeline.Cooperative(func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
		go func() {
			defer close(lateDone)
			<-release
			next(false)
		}()
		return nil
	})))
	var calls []int
	require.NoError(t, p.Use(recorder(&calls, 2, domain.Continue)))

	// Execute must settle without waiting for the pending next call.
	res := p.Execute(context.Background(), testFile)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
	assert.Equal(t, []int{2}, calls)

	close(release)
	<-lateDone
}

func TestCooperative_ErrorFails(t *testing.T) {
	p := pipeline.New()
	boom := errors.New("boom")
	require.NoError(t, p.Use(pipeline.Cooperative(func(_ context.Context, _ domain.FileInfo, next pipeline.Next) error {
		next()
		return boom
	})))

	res := p.Execute(context.Background(), testFile)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
}
