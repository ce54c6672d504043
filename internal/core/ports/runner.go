package ports

import (
	"context"

	"go.trai.ch/mason/internal/core/domain"
)

// CommandRunner runs external commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type CommandRunner interface {
	// Run starts cmd and blocks until it exits.
	Run(ctx context.Context, cmd domain.Command) error
}
