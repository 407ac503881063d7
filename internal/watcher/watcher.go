// Package watcher reports changes to knowledge base documents so that
// `cmoskb index --watch` can re-run incremental indexing.
//
// Raw fsnotify events are filtered to eligible documents and coalesced
// per path by a Debouncer; consumers receive one batch per quiet period.
package watcher

import (
	"time"
)

// Operation is the kind of change observed for a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change to one document.
type FileEvent struct {
	Path      string // absolute
	Operation Operation
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a batch is emitted.
	Debounce time.Duration

	// Eligible decides whether a file path is worth reporting.
	// Nil reports every file.
	Eligible func(path string) bool

	// BufferSize is the number of batches that may queue up.
	BufferSize int
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 16
	}
	if o.Eligible == nil {
		o.Eligible = func(string) bool { return true }
	}
	return o
}
