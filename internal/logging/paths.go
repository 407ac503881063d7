package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.cmoskb/logs, or a temp directory when the
// home directory is unknown.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".cmoskb", "logs")
	}
	return filepath.Join(home, ".cmoskb", "logs")
}

// DefaultLogPath returns the default log file.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "cmoskb.log")
}
