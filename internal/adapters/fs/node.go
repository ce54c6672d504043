package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mason/internal/core/ports"
)

const (
	ScannerNodeID graft.ID = "adapter.fs.scanner"
	CleanerNodeID graft.ID = "adapter.fs.cleaner"
	HasherNodeID  graft.ID = "adapter.fs.hasher"
)

func init() {
	graft.Register(graft.Node[ports.SourceScanner]{
		ID:        ScannerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceScanner, error) {
			return NewScanner(), nil
		},
	})

	graft.Register(graft.Node[ports.DestinationCleaner]{
		ID:        CleanerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DestinationCleaner, error) {
			return NewCleaner(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
}
