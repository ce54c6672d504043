// Package cas implements the manifest of built file digests.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestStore = (*Store)(nil)

// Store implements ports.ManifestStore using a flat JSON file keyed by source path.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.FileDigest
}

// NewStore creates a new ManifestStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.FileDigest),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", s.path)
	}

	return nil
}

// save writes the cache to disk. The caller must hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}

	return nil
}

// Get retrieves the digest recorded for a source path.
func (s *Store) Get(path string) (*domain.FileDigest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	digest, ok := s.cache[path]
	if !ok {
		return nil, nil
	}
	return &digest, nil
}

// Put records the digest and persists the manifest.
func (s *Store) Put(digest domain.FileDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[digest.Path] = digest
	return s.save()
}

// Reset drops every entry and persists the empty manifest.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.cache)
	return s.save()
}

// Digests returns a copy of all recorded digests keyed by source path.
func (s *Store) Digests() map[string]domain.FileDigest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.FileDigest, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

// Opener implements ports.ManifestOpener for JSON manifests.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open loads the manifest at path, starting empty when the file does not exist.
func (o *Opener) Open(path string) (ports.ManifestStore, error) {
	return NewStore(path)
}
