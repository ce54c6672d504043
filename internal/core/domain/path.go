package domain

import (
	"path"
	"strings"
)

// PathSegments splits p into cleaned segments, accepting either separator.
// An absolute path starts with a "/" segment; "." and "" have no segments.
func PathSegments(p string) []string {
	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if cleaned == "." {
		return nil
	}

	var segs []string
	if strings.HasPrefix(cleaned, "/") {
		segs = append(segs, "/")
		cleaned = strings.TrimPrefix(cleaned, "/")
		if cleaned == "" {
			return segs
		}
	}
	return append(segs, strings.Split(cleaned, "/")...)
}

// HasSegmentPrefix reports whether prefix is a leading run of segs.
func HasSegmentPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Within reports whether p is root or lies below it, comparing whole segments.
func Within(root, p string) bool {
	return HasSegmentPrefix(PathSegments(p), PathSegments(root))
}
