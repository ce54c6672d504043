// Package handlers provides the built-in file handlers used by the mason CLI.
package handlers

import (
	"context"
	"path"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

var _ ports.Handler = (*Filter)(nil)

// Filter stops files whose base name is excluded or not included.
// Patterns use path.Match syntax and are matched against the file name only.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter creates a Filter. An empty include list admits every file.
func NewFilter(include, exclude []string) *Filter {
	return &Filter{include: include, exclude: exclude}
}

// Name identifies the handler in diagnostics.
func (f *Filter) Name() string {
	return "filter"
}

// Handle continues when the file passes both pattern lists.
func (f *Filter) Handle(_ context.Context, file domain.FileInfo) (domain.Decision, error) {
	base := filepath.Base(file.Path)

	if len(f.include) > 0 && !matchAny(f.include, base) {
		return domain.Stop, nil
	}
	if matchAny(f.exclude, base) {
		return domain.Stop, nil
	}
	return domain.Continue, nil
}

// Malformed patterns never match; the config loader rejects them up front.
func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
