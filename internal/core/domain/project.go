package domain

import "time"

// Project is the loaded build configuration.
// All paths are absolute once returned by a ConfigLoader.
type Project struct {
	Root     string
	Dest     string
	Sources  []string
	Include  []string
	Exclude  []string
	Manifest string
	// Commands run for every copied file, with placeholders expanded.
	Commands [][]string
	// Env is added to the environment of every command.
	Env map[string]string
}

// Command is one external process invocation.
type Command struct {
	Args []string
	Dir  string
	Env  map[string]string
}

// FileDigest is the manifest entry recorded for a built file.
type FileDigest struct {
	Path    string    `json:"path,omitzero"`
	Dest    string    `json:"dest,omitzero"`
	Hash    string    `json:"hash,omitzero"`
	Size    int64     `json:"size,omitzero"`
	BuiltAt time.Time `json:"built_at,omitzero"`
}
