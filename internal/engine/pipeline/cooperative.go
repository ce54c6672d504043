package pipeline

import (
	"context"
	"sync"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

// Next tells the chain how to proceed after a cooperative handler.
// Calling it with no argument or true continues; false stops the chain for the
// current file. Only the first call counts.
type Next func(proceed ...bool)

// CooperativeFunc is a handler written in the (file, next) style.
type CooperativeFunc func(ctx context.Context, file domain.FileInfo, next Next) error

// Cooperative adapts fn to ports.Handler.
//
// The handler's return is the settle point: returning without calling next counts
// as continue, and calls to next made after fn returned (for example from a
// goroutine fn started) are ignored. The chain never waits for next.
func Cooperative(fn CooperativeFunc) ports.Handler {
	if fn == nil {
		return nil
	}
	return ports.HandlerFunc(func(ctx context.Context, file domain.FileInfo) (domain.Decision, error) {
		var (
			mu       sync.Mutex
			called   bool
			settled  bool
			decision = domain.Continue
		)

		next := func(proceed ...bool) {
			mu.Lock()
			defer mu.Unlock()
			if called || settled {
				return
			}
			called = true
			if len(proceed) > 0 && !proceed[0] {
				decision = domain.Stop
			}
		}

		err := fn(ctx, file, next)

		mu.Lock()
		defer mu.Unlock()
		settled = true
		if err != nil {
			return domain.Continue, err
		}
		return decision, nil
	})
}
