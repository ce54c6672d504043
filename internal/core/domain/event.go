package domain

// EventKind names a build lifecycle event.
type EventKind string

const (
	// EventSearchStart is published before the scan with the pending root list.
	EventSearchStart EventKind = "search-start"
	// EventSearchComplete is published after the scan with the final queue.
	EventSearchComplete EventKind = "search-complete"
	// EventBuildStart is published with the new build record.
	EventBuildStart EventKind = "build-start"
	// EventFileStart is published before a file enters the handler chain.
	EventFileStart EventKind = "file-start"
	// EventFileComplete is published after the handler chain settled for a file.
	EventFileComplete EventKind = "file-complete"
	// EventBuildComplete is published with the finalized build record.
	EventBuildComplete EventKind = "build-complete"
	// EventError is published for every error, fatal or per file.
	EventError EventKind = "error"
)

// Event is the payload delivered to observers.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Paths holds the pending roots for search-start and the queue for search-complete.
	Paths []string
	// Build is a snapshot of the build record for build-start and build-complete.
	Build *Build
	// File is set for file-start, file-complete and per-file errors.
	File *FileInfo
	// Record is the settled file record for file-complete and per-file errors.
	Record *FileRecord
	// Err is set for error events.
	Err error
}
