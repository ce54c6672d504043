// Package pipeline runs the ordered handler chain for a single file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// Pipeline holds the registered handlers in registration order.
// Registration is append-only; Execute never observes a partially registered handler
// because handlers are only added between builds.
type Pipeline struct {
	handlers []entry
}

type entry struct {
	name    string
	handler ports.Handler
}

// Result describes how the chain settled for one file.
type Result struct {
	Outcome domain.Outcome
	// Handlers is the number of handlers that were invoked, including a failing one.
	Handlers int
	Err      error
}

// New creates an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Use registers h at the end of the chain.
// It fails with domain.ErrInvalidHandler when h is nil or wraps a nil function.
func (p *Pipeline) Use(h ports.Handler) error {
	if isNil(h) {
		return zerr.With(domain.ErrInvalidHandler, "position", len(p.handlers))
	}
	p.handlers = append(p.handlers, entry{name: handlerName(h, len(p.handlers)), handler: h})
	return nil
}

// Len returns the number of registered handlers.
func (p *Pipeline) Len() int {
	return len(p.handlers)
}

// Names returns the handler identities in registration order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.handlers))
	for i, e := range p.handlers {
		names[i] = e.name
	}
	return names
}

// Execute passes file through every handler until one stops or fails.
func (p *Pipeline) Execute(ctx context.Context, file domain.FileInfo) Result {
	res := Result{Outcome: domain.OutcomeBuilt}

	for _, e := range p.handlers {
		res.Handlers++

		decision, err := invoke(ctx, e.handler, file)
		if err != nil {
			res.Outcome = domain.OutcomeFailed
			res.Err = executionError(err, e.name, file.Path)
			return res
		}

		switch decision {
		case domain.Continue:
			continue
		case domain.Stop:
			res.Outcome = domain.OutcomeStopped
			return res
		default:
			res.Outcome = domain.OutcomeFailed
			res.Err = executionError(
				zerr.With(zerr.New("handler returned an unknown decision"), "decision", int(decision)),
				e.name,
				file.Path,
			)
			return res
		}
	}

	return res
}

// invoke runs one handler and turns a panic into an error.
func invoke(ctx context.Context, h ports.Handler, file domain.FileInfo) (decision domain.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			decision = domain.Continue
			err = zerr.New(fmt.Sprintf("handler panicked: %v", r))
		}
	}()
	return h.Handle(ctx, file)
}

func executionError(err error, name, path string) error {
	wrapped := zerr.With(zerr.With(zerr.Wrap(err, "handler "+name+" failed"), "handler", name), "path", path)
	return errors.Join(domain.ErrHandlerExecution, wrapped)
}

// Named attaches an identity to h used in diagnostics.
func Named(name string, h ports.Handler) ports.Handler {
	if isNil(h) {
		return nil
	}
	return namedHandler{name: name, Handler: h}
}

type namedHandler struct {
	ports.Handler
	name string
}

func (n namedHandler) Name() string {
	return n.name
}

func handlerName(h ports.Handler, position int) string {
	if n, ok := h.(interface{ Name() string }); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("#%d(%T)", position, h)
}

func isNil(h ports.Handler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
