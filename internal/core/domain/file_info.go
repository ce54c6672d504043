package domain

// FileInfo describes one queued file at dispatch time.
//
// It is created fresh for every file and handed to handlers by value, so a
// handler that needs scratch state can modify its own copy without affecting
// the handlers that run after it.
type FileInfo struct {
	// Path is the source path as discovered by the scanner.
	Path string
	// Dest is the mirrored destination path, empty when no destination resolves.
	Dest string
	// Root is the source root the destination was resolved against.
	Root string
	// Rel is Path relative to Root, using forward slashes.
	Rel string
	// Name is the filename without its final extension, or the whole name for dotfiles.
	Name string
	// Ext is the final dot-delimited part of the filename, empty for dotfiles.
	Ext string
	// Exists reports whether a regular file was present at Path.
	Exists bool
}

// HasDest reports whether a destination path was resolved.
func (f FileInfo) HasDest() bool {
	return f.Dest != ""
}

// Filename returns the last path segment.
func (f FileInfo) Filename() string {
	if f.Ext == "" {
		return f.Name
	}
	return f.Name + "." + f.Ext
}

// Decision is the explicit result a handler returns for a file.
type Decision int

const (
	// Continue passes the file to the next handler.
	Continue Decision = iota
	// Stop ends the handler chain for the current file only.
	Stop
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Classification is the search cache entry for a visited path.
type Classification string

const (
	// ClassFile marks a regular file that was queued.
	ClassFile Classification = "file"
	// ClassDirectory marks a directory whose children were visited.
	ClassDirectory Classification = "directory"
	// ClassInvalid marks anything that is neither a file nor a directory.
	ClassInvalid Classification = "invalid"
)
