// Package output defines where rendered documents are written.
package output

import (
	"context"
)

// Writer is the interface that output sinks must implement.
type Writer interface {
	// Write stores one rendered document. name identifies the source
	// message and is used for logging only.
	Write(ctx context.Context, name, text string) error

	// Name returns the human-readable name of this sink.
	Name() string
}

// New picks the sink for path: standard output for "" or "-", a file
// otherwise.
func New(path string) Writer {
	if path == "" || path == "-" {
		return NewStdout()
	}
	return NewFile(path)
}
