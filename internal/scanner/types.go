// Package scanner enumerates the documents eligible for the knowledge
// base: regular files with an allowed extension beneath the docs and
// research directories of a knowledge base root.
package scanner

import (
	"time"
)

// DefaultExtensions is the allow-list of document suffixes.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".rst"}

// DefaultSourceDirs are the root subdirectories that hold documents.
var DefaultSourceDirs = []string{"docs", "research"}

// FileInfo describes one eligible document.
type FileInfo struct {
	Path    string    // Slash-separated key relative to the root's parent
	RelPath string    // Slash-separated path relative to the root itself
	AbsPath string    // Absolute path
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time
}

// Options configures which files are eligible.
type Options struct {
	// Extensions is the suffix allow-list, matched case-insensitively.
	// Empty means DefaultExtensions.
	Extensions []string

	// SourceDirs are walked recursively, relative to the root.
	// Empty means DefaultSourceDirs.
	SourceDirs []string
}
