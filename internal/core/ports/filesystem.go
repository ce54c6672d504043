// Package ports defines the core interfaces for the application.
package ports

import "context"

// SourceScanner expands source roots into a build queue.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type SourceScanner interface {
	// Scan visits every root recursively and returns the distinct regular files
	// found, in discovery order. Scan state never outlives one call.
	Scan(ctx context.Context, roots []string) ([]string, error)
}

// DestinationCleaner empties a destination root before a build.
type DestinationCleaner interface {
	// Clear leaves dest present and empty, creating it when missing.
	// An empty dest is a no-op.
	Clear(ctx context.Context, dest string) error
}
