package handlers

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Handler = (*Copy)(nil)

// Copy writes the source file to its destination path.
type Copy struct{}

// NewCopy creates a Copy handler.
func NewCopy() *Copy {
	return &Copy{}
}

// Name identifies the handler in diagnostics.
func (c *Copy) Name() string {
	return "copy"
}

// Handle copies file.Path to file.Dest, creating parent directories.
// Files without a destination stop the chain.
func (c *Copy) Handle(ctx context.Context, file domain.FileInfo) (domain.Decision, error) {
	if !file.HasDest() {
		return domain.Stop, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.Continue, err
	}

	if err := copyFile(file.Path, file.Dest); err != nil {
		return domain.Continue, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrFileCopyFailed.Error()), "path", file.Path), "dest", file.Dest)
	}
	return domain.Continue, nil
}

func copyFile(src, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // Path comes from the scanned source tree
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Read-only file

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm) //nolint:gosec // Destination is derived from the configured root
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
