package ports

import "go.trai.ch/mason/internal/core/domain"

// ManifestStore defines the interface for recording digests of built files.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ManifestStore interface {
	// Get retrieves the digest recorded for a source path.
	// Returns nil, nil if not found.
	Get(path string) (*domain.FileDigest, error)

	// Put records the digest of a built file.
	Put(digest domain.FileDigest) error

	// Reset drops every recorded digest.
	Reset() error
}

// ManifestOpener opens the manifest store at a project's manifest path.
type ManifestOpener interface {
	Open(path string) (ManifestStore, error)
}
