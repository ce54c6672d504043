// Package fs provides file system adapters for scanning, clearing and hashing files.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceScanner = (*Scanner)(nil)

// Scanner expands source roots into a build queue.
// It keeps no state between calls, so every scan sees the tree as it is now.
type Scanner struct{}

// NewScanner creates a new Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Search is the state of one scan: the classification cache and the queue it produced.
type Search struct {
	Queue []string
	Cache map[string]domain.Classification
}

// Scan returns the distinct regular files reachable from roots in discovery order.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]string, error) {
	search, err := s.Search(ctx, roots)
	if err != nil {
		return nil, err
	}
	return search.Queue, nil
}

// Search runs a scan and returns the queue together with the search cache.
//
// Roots are visited breadth first from a FIFO work list; directory children are
// pushed in lexical order. A path is classified at most once, keyed by its
// cleaned absolute path, so a symlink and its target are distinct entries.
// A directory that resolves to one of its own ancestors is classified but not
// expanded again.
func (s *Scanner) Search(ctx context.Context, roots []string) (*Search, error) {
	search := &Search{
		Cache: make(map[string]domain.Classification),
	}

	work := make([]workItem, 0, len(roots))
	for _, root := range roots {
		work = append(work, workItem{path: root})
	}

	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := work[0]
		work = work[1:]

		key := absPath(current.path)
		if _, seen := search.Cache[key]; seen {
			continue
		}

		info, err := os.Stat(current.path)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				// A dangling symlink exists but cannot be built.
				if _, lerr := os.Lstat(current.path); lerr == nil {
					search.Cache[key] = domain.ClassInvalid
					continue
				}
				return nil, zerr.With(domain.ErrPathNotFound, "path", current.path)
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrScanFailed.Error()), "path", current.path)
		}

		switch {
		case info.IsDir():
			search.Cache[key] = domain.ClassDirectory
			resolved := realPath(key)
			if slices.Contains(current.ancestors, resolved) {
				continue
			}
			entries, err := os.ReadDir(current.path)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrScanFailed.Error()), "path", current.path)
			}
			ancestors := append(slices.Clone(current.ancestors), resolved)
			for _, entry := range entries {
				work = append(work, workItem{path: filepath.Join(current.path, entry.Name()), ancestors: ancestors})
			}
		case info.Mode().IsRegular():
			search.Cache[key] = domain.ClassFile
			search.Queue = append(search.Queue, current.path)
		default:
			search.Cache[key] = domain.ClassInvalid
		}
	}

	return search, nil
}

// workItem is a pending path and the resolved directories above it.
type workItem struct {
	path      string
	ancestors []string
}

// absPath returns the cleaned absolute form of p, or the cleaned p when it has none.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// realPath resolves symlinks in an absolute path, returning it unchanged on failure.
func realPath(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
