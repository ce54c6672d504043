// Package config provides the configuration loader for mason.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds mason.yaml in cwd or the nearest ancestor and returns the project it describes.
// The directory holding the file is the project root; relative paths are resolved against it.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := FindConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var masonfile Masonfile
	if err := readAndUnmarshalYAML(configPath, &masonfile); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if masonfile.Version != "" && masonfile.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("unknown %s version %q, assuming %q",
			domain.ConfigFileName, masonfile.Version, SupportedVersion))
	}

	root := filepath.Dir(configPath)
	project, err := buildProject(root, &masonfile)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return project, nil
}

// FindConfiguration walks up from cwd until it finds mason.yaml.
func FindConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}

	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func buildProject(root string, m *Masonfile) (*domain.Project, error) {
	if strings.TrimSpace(m.Dest) == "" {
		return nil, domain.ErrMissingDestination
	}
	if len(m.Sources) == 0 {
		return nil, domain.ErrNoSources
	}

	for _, pattern := range append(append([]string{}, m.Include...), m.Exclude...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, zerr.With(domain.ErrInvalidPattern, "pattern", pattern)
		}
	}

	for i, argv := range m.Run {
		if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
			return nil, zerr.With(domain.ErrInvalidCommand, "index", i)
		}
	}

	project := &domain.Project{
		Root:     root,
		Dest:     resolvePath(root, m.Dest),
		Include:  m.Include,
		Exclude:  m.Exclude,
		Commands: m.Run,
		Env:      m.Env,
	}

	seen := make(map[string]bool, len(m.Sources))
	for _, src := range m.Sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		resolved := resolvePath(root, src)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true

		if domain.Within(project.Dest, resolved) {
			return nil, zerr.With(zerr.With(domain.ErrDestinationOverlapsSource, "dest", project.Dest), "source", resolved)
		}
		project.Sources = append(project.Sources, resolved)
	}
	if len(project.Sources) == 0 {
		return nil, domain.ErrNoSources
	}

	manifest := m.Manifest
	if manifest == "" {
		manifest = domain.DefaultManifestPath()
	}
	project.Manifest = resolvePath(root, manifest)

	return project, nil
}

// resolvePath makes p absolute relative to root.
func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
