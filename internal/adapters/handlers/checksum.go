package handlers

import (
	"context"
	"os"
	"time"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

var _ ports.Handler = (*Checksum)(nil)

// Checksum records the digest of each built file in the manifest.
// It hashes the destination copy when one exists and the source otherwise.
type Checksum struct {
	hasher ports.Hasher
	store  ports.ManifestStore
	now    func() time.Time
}

// NewChecksum creates a Checksum handler.
func NewChecksum(hasher ports.Hasher, store ports.ManifestStore) *Checksum {
	return &Checksum{hasher: hasher, store: store, now: time.Now}
}

// Name identifies the handler in diagnostics.
func (c *Checksum) Name() string {
	return "checksum"
}

// Handle hashes the file and stores the digest under its source path.
func (c *Checksum) Handle(_ context.Context, file domain.FileInfo) (domain.Decision, error) {
	target := file.Path
	if file.HasDest() {
		if st, err := os.Stat(file.Dest); err == nil && st.Mode().IsRegular() {
			target = file.Dest
		}
	}

	hash, size, err := c.hasher.ComputeFileHash(target)
	if err != nil {
		return domain.Continue, err
	}

	digest := domain.FileDigest{
		Path:    file.Path,
		Dest:    file.Dest,
		Hash:    hash,
		Size:    size,
		BuiltAt: c.now().UTC(),
	}
	if err := c.store.Put(digest); err != nil {
		return domain.Continue, err
	}
	return domain.Continue, nil
}
