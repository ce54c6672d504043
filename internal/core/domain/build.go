package domain

import (
	"slices"
	"time"
)

// BuildState represents the lifecycle state of a build.
type BuildState string

const (
	// BuildStateIdle indicates the build record was created but no work started.
	BuildStateIdle BuildState = "idle"
	// BuildStateClearing indicates the destination root is being emptied.
	BuildStateClearing BuildState = "clearing"
	// BuildStateScanning indicates source roots are being expanded into the queue.
	BuildStateScanning BuildState = "scanning"
	// BuildStateIterating indicates queued files are being passed through the handlers.
	BuildStateIterating BuildState = "iterating"
	// BuildStateFinalized indicates every queued file was attempted.
	BuildStateFinalized BuildState = "finalized"
	// BuildStateFailed indicates the build aborted before iteration completed.
	BuildStateFailed BuildState = "failed"
)

// IsTerminal checks if a state is a terminal state (Finalized, Failed).
func (s BuildState) IsTerminal() bool {
	return s == BuildStateFinalized || s == BuildStateFailed
}

// FileState represents the progress of a single file through the pipeline.
type FileState string

const (
	// FileStateStarting indicates the file info was created and file-start is published.
	FileStateStarting FileState = "starting"
	// FileStateTransforming indicates handlers are running for the file.
	FileStateTransforming FileState = "transforming"
	// FileStateCompleted indicates the handler chain settled for the file.
	FileStateCompleted FileState = "completed"
)

// Outcome is how the handler chain settled for a file.
type Outcome string

const (
	// OutcomeBuilt indicates every handler continued.
	OutcomeBuilt Outcome = "built"
	// OutcomeStopped indicates a handler ended the chain early.
	OutcomeStopped Outcome = "stopped"
	// OutcomeFailed indicates a handler returned an error or panicked.
	OutcomeFailed Outcome = "failed"
)

// FileRecord is the per-file entry of a build.
type FileRecord struct {
	Path     string
	Dest     string
	State    FileState
	Outcome  Outcome
	Handlers int
	Err      error
	Elapsed  time.Duration
}

// Build is the record of one build invocation.
type Build struct {
	ID          string
	Root        string
	Dest        string
	Sources     []string
	Queue       []string
	Files       []FileRecord
	State       BuildState
	StartedAt   time.Time
	CompletedAt time.Time
	Elapsed     time.Duration
	Err         error
}

// FileCount returns the number of files that were passed through the handler chain.
func (b *Build) FileCount() int {
	return len(b.Files)
}

// Failed returns the records of files whose handler chain failed.
func (b *Build) Failed() []FileRecord {
	var failed []FileRecord
	for _, f := range b.Files {
		if f.Outcome == OutcomeFailed {
			failed = append(failed, f)
		}
	}
	return failed
}

// File returns the record for the given source path.
func (b *Build) File(path string) (FileRecord, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileRecord{}, false
}

// Clone returns a deep copy safe to hand to observers.
func (b *Build) Clone() *Build {
	if b == nil {
		return nil
	}
	c := *b
	c.Sources = slices.Clone(b.Sources)
	c.Queue = slices.Clone(b.Queue)
	c.Files = slices.Clone(b.Files)
	return &c
}
