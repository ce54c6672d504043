package domain

import "path/filepath"

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "mason.yaml"

	// MasonDirName is the name of the internal project directory.
	MasonDirName = ".mason"

	// ManifestFileName is the name of the default manifest file.
	ManifestFileName = "manifest.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultManifestPath returns the default manifest location relative to the project root.
// It joins .mason and manifest.json.
func DefaultManifestPath() string {
	return filepath.Join(MasonDirName, ManifestFileName)
}
