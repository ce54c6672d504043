package domain

import "go.trai.ch/zerr"

var (
	// ErrNoSources is returned when a build or search is requested without any source roots.
	ErrNoSources = zerr.New("no source roots configured")

	// ErrPathNotFound is returned when a path visited during a scan does not exist.
	ErrPathNotFound = zerr.New("path does not exist")

	// ErrInvalidHandler is returned when a nil handler is registered.
	ErrInvalidHandler = zerr.New("invalid handler: expected a callable handler")

	// ErrHandlerExecution is returned when a handler fails or panics while processing a file.
	ErrHandlerExecution = zerr.New("handler execution failed")

	// ErrDestinationNotDirectory is returned when the destination root exists but is not a directory.
	ErrDestinationNotDirectory = zerr.New("build destination is not a directory")

	// ErrDestinationOverlapsSource is returned when clearing the destination would remove a source root.
	ErrDestinationOverlapsSource = zerr.New("build destination contains a source root")

	// ErrBuildInProgress is returned when a build is started on a builder that is already building.
	ErrBuildInProgress = zerr.New("a build is already in progress on this builder")

	// ErrBuildCompletedWithErrors is returned when at least one file failed during an otherwise finished build.
	ErrBuildCompletedWithErrors = zerr.New("build completed with errors")

	// ErrBuildFailed is returned when a build aborted before all files were attempted.
	ErrBuildFailed = zerr.New("build failed")

	// ErrClearFailed is returned when a destination entry cannot be removed.
	ErrClearFailed = zerr.New("failed to clear build destination")

	// ErrScanFailed is returned when a directory cannot be read during a scan.
	ErrScanFailed = zerr.New("failed to scan source path")

	// ErrConfigNotFound is returned when no configuration file is found walking up from the working directory.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrMissingDestination is returned when the configuration does not name a destination root.
	ErrMissingDestination = zerr.New("missing build destination")

	// ErrInvalidPattern is returned when an include or exclude glob is malformed.
	ErrInvalidPattern = zerr.New("invalid file pattern")

	// ErrStoreReadFailed is returned when the manifest cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read manifest")

	// ErrStoreUnmarshalFailed is returned when the manifest cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal manifest")

	// ErrStoreMarshalFailed is returned when the manifest cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal manifest")

	// ErrStoreWriteFailed is returned when the manifest cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write manifest")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrFileCopyFailed is returned when a source file cannot be copied to its destination.
	ErrFileCopyFailed = zerr.New("failed to copy file")

	// ErrWatchFailed is returned when the source roots cannot be watched.
	ErrWatchFailed = zerr.New("failed to watch source roots")

	// ErrInvalidCommand is returned when a configured command has no executable.
	ErrInvalidCommand = zerr.New("invalid command: expected a non-empty argument list")

	// ErrCommandFailed is returned when a command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")
)
