package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DestinationCleaner = (*Cleaner)(nil)

// Cleaner empties destination roots.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clear leaves dest present and empty.
// A missing dest is created; a dest that is not a directory is left untouched.
// Removal continues past individual failures and reports all of them.
func (c *Cleaner) Clear(ctx context.Context, dest string) error {
	if dest == "" {
		return nil
	}

	info, err := os.Stat(dest)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "dest", dest)
		}
		return nil
	case err != nil:
		return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "dest", dest)
	case !info.IsDir():
		return zerr.With(domain.ErrDestinationNotDirectory, "dest", dest)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "dest", dest)
	}

	var errs error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return errors.Join(errs, err)
		}
		errs = errors.Join(errs, c.remove(filepath.Join(dest, entry.Name())))
	}
	return errs
}

// remove deletes p depth first: a directory is removed only after its contents.
// Symlinks are removed without following them.
func (c *Cleaner) remove(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "path", p)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(p)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "path", p)
		}
		var errs error
		for _, entry := range entries {
			errs = errors.Join(errs, c.remove(filepath.Join(p, entry.Name())))
		}
		if errs != nil {
			return errs
		}
	}

	if err := os.Remove(p); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "path", p)
	}
	return nil
}
