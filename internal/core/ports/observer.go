package ports

import (
	"context"

	"go.trai.ch/mason/internal/core/domain"
)

// Observer receives build lifecycle events.
//
// Events are delivered synchronously and in order from the goroutine running
// the build, so an observer must not block for long.
//
//go:generate go run go.uber.org/mock/mockgen -source=observer.go -destination=mocks/mock_observer.go -package=mocks
type Observer interface {
	OnEvent(ctx context.Context, event domain.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event domain.Event)

// OnEvent calls f(ctx, event).
func (f ObserverFunc) OnEvent(ctx context.Context, event domain.Event) {
	f(ctx, event)
}
