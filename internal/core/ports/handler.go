package ports

import (
	"context"

	"go.trai.ch/mason/internal/core/domain"
)

// Handler is one unit of the per-file transformation chain.
//
// A handler returns domain.Continue to pass the file on, domain.Stop to end the
// chain for this file, or a non-nil error to fail the file. The call blocks until
// the handler's work has settled.
type Handler interface {
	Handle(ctx context.Context, file domain.FileInfo) (domain.Decision, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, file domain.FileInfo) (domain.Decision, error)

// Handle calls f(ctx, file).
func (f HandlerFunc) Handle(ctx context.Context, file domain.FileInfo) (domain.Decision, error) {
	return f(ctx, file)
}
