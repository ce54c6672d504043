// Package resolver maps source paths onto the destination tree.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
)

// Resolver maps paths under registered source roots to the destination root.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	dest  string
	roots []sourceRoot
}

type sourceRoot struct {
	path     string
	segments []string
}

// New creates a Resolver for the given destination root and source roots.
// Sources keep their order, which is the precedence order among equally specific roots.
func New(dest string, sources []string) *Resolver {
	roots := make([]sourceRoot, 0, len(sources))
	for _, src := range sources {
		roots = append(roots, sourceRoot{path: src, segments: domain.PathSegments(src)})
	}
	return &Resolver{dest: dest, roots: roots}
}

// Dest returns the destination root.
func (r *Resolver) Dest() string {
	return r.dest
}

// Roots returns the registered source roots in precedence order.
func (r *Resolver) Roots() []string {
	out := make([]string, len(r.roots))
	for i, root := range r.roots {
		out[i] = root.path
	}
	return out
}

// Extend returns a Resolver that also knows the given roots.
// A root already covered by a registered root is left out, so it cannot
// shadow the registered root when mirroring paths below it.
func (r *Resolver) Extend(roots ...string) *Resolver {
	merged := r.Roots()
	for _, extra := range roots {
		if !r.covers(domain.PathSegments(extra)) {
			merged = append(merged, extra)
		}
	}
	return New(r.dest, merged)
}

func (r *Resolver) covers(segs []string) bool {
	for _, root := range r.roots {
		if domain.HasSegmentPrefix(segs, root.segments) {
			return true
		}
	}
	return false
}

// ResolveToDest returns the destination path mirroring p.
// It reports false when no source root contains p or no destination is configured.
func (r *Resolver) ResolveToDest(p string) (string, bool) {
	if r.dest == "" {
		return "", false
	}
	_, rel, ok := r.match(domain.PathSegments(p))
	if !ok {
		return "", false
	}
	return joinDest(r.dest, rel), true
}

// PathInfo builds the FileInfo handed to handlers for p.
func (r *Resolver) PathInfo(p string) domain.FileInfo {
	segs := domain.PathSegments(p)

	var filename string
	if len(segs) > 0 {
		filename = segs[len(segs)-1]
	}
	name, ext := splitFilename(filename)

	info := domain.FileInfo{
		Path: p,
		Name: name,
		Ext:  ext,
	}

	if root, rel, ok := r.match(segs); ok {
		info.Root = root.path
		info.Rel = strings.Join(rel, "/")
		if r.dest != "" {
			info.Dest = joinDest(r.dest, rel)
		}
	}

	if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
		info.Exists = true
	}

	return info
}

// match picks the root p is resolved against.
// Roots are tried in registration order; a matching root is skipped when another
// matching root is more specific, so "lib" never shadows "lib/script".
func (r *Resolver) match(segs []string) (sourceRoot, []string, bool) {
	var candidates []int
	for i, root := range r.roots {
		if domain.HasSegmentPrefix(segs, root.segments) {
			candidates = append(candidates, i)
		}
	}

	for _, i := range candidates {
		if r.tooGeneral(i, candidates) {
			continue
		}
		root := r.roots[i]
		return root, segs[len(root.segments):], true
	}

	return sourceRoot{}, nil, false
}

func (r *Resolver) tooGeneral(i int, candidates []int) bool {
	for _, j := range candidates {
		if len(r.roots[j].segments) > len(r.roots[i].segments) {
			return true
		}
	}
	return false
}

func joinDest(dest string, rel []string) string {
	parts := make([]string, 0, len(rel)+1)
	parts = append(parts, dest)
	parts = append(parts, rel...)
	return filepath.Join(parts...)
}

// segments splits p into cleaned segments, accepting both separator styles.
// An absolute path keeps a leading "/" segment so it never matches a relative root.
// splitFilename applies the dotfile rule: a leading dot keeps the whole name.
func splitFilename(filename string) (name, ext string) {
	if filename == "" || filename[0] == '.' {
		return filename, ""
	}
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return filename, ""
	}
	return filename[:idx], filename[idx+1:]
}
