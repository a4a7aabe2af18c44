package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Stdout prints rendered documents to standard output.
type Stdout struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// NewStdout creates a Stdout sink that writes to os.Stdout.
func NewStdout() *Stdout {
	return &Stdout{writer: os.Stdout}
}

// NewWithWriter creates a Stdout sink that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Stdout {
	return &Stdout{writer: w}
}

// Write prints text unchanged.
func (s *Stdout) Write(ctx context.Context, name, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := io.WriteString(s.writer, text); err != nil {
		return fmt.Errorf("failed to write %s to stdout: %w", name, err)
	}

	slog.Debug("document written", "sink", s.Name(), "source", name, "bytes", len(text))
	return nil
}

// Name returns the sink name.
func (s *Stdout) Name() string {
	return "stdout"
}
