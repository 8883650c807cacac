// Package vcs implements the Versioned File Store: a line-oriented ASCII
// command protocol over a revision-tracked in-memory filesystem.
package vcs

import (
	"errors"
	"strings"
)

// ErrInvalidPath is returned by validateFilePath/validateDirPath when a path
// fails the segment or character rules from §3.3.
var ErrInvalidPath = errors.New("vcs: invalid path")

func isSegmentChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	}
	return false
}

// validateSegments checks that path is absolute, '/'-separated, with every
// segment matching [A-Za-z0-9._-]+ and no empty segments (trailing slash on
// a dir path yields one trailing empty segment, stripped by the caller
// before this check for directories).
func validateSegments(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	segments := strings.Split(path[1:], "/")
	for _, seg := range segments {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			if !isSegmentChar(seg[i]) {
				return false
			}
		}
	}
	return true
}

// validateFilePath requires an absolute path with no trailing slash.
func validateFilePath(path string) error {
	if path == "" || strings.HasSuffix(path, "/") || !validateSegments(path) {
		return ErrInvalidPath
	}
	return nil
}

// validateDirPath requires an absolute path; a trailing slash is permitted
// and stripped before segment validation. The single-character root path
// "/" is valid (§11.3 supplement).
func validateDirPath(path string) error {
	if path == "/" {
		return nil
	}
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" || !validateSegments(trimmed) {
		return ErrInvalidPath
	}
	return nil
}

// normalizeDir applies the "append a trailing slash only if longer than one
// character" rule from §12's design notes, preserved as-is.
func normalizeDir(dir string) string {
	if len(dir) > 1 && !strings.HasSuffix(dir, "/") {
		return dir + "/"
	}
	return dir
}
