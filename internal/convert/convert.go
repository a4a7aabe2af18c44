// Package convert ties decoding and rendering into a single pass over one
// message.
package convert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shineum/eml2md/internal/formatter"
	"github.com/shineum/eml2md/internal/parser"
)

// ErrMessageTooLarge is returned when the input exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("message too large")

// Options configures a Converter.
type Options struct {
	// Format selects the formatter by name.
	Format string
	// MaxMessageSize bounds the input in bytes. Zero or less means no limit.
	MaxMessageSize int64
}

// Converter decodes raw messages and renders them with one formatter.
type Converter struct {
	formatter formatter.Formatter
	maxSize   int64
}

// New resolves the formatter before any input is read, so an unknown
// format fails early.
func New(opts Options) (*Converter, error) {
	f, err := formatter.New(opts.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to select formatter: %w", err)
	}
	return &Converter{formatter: f, maxSize: opts.MaxMessageSize}, nil
}

// Format returns the name of the selected formatter.
func (c *Converter) Format() string {
	return c.formatter.Name()
}

// Convert reads a whole message from r and returns the rendered document.
func (c *Converter) Convert(r io.Reader) (string, error) {
	if c.maxSize > 0 {
		r = io.LimitReader(r, c.maxSize+1)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	if c.maxSize > 0 && int64(len(raw)) > c.maxSize {
		return "", fmt.Errorf("%w: limit is %s", ErrMessageTooLarge, formatSize(int(c.maxSize)))
	}

	return c.ConvertBytes(raw)
}

// ConvertBytes renders an already loaded message. The size limit is not
// applied.
func (c *Converter) ConvertBytes(raw []byte) (string, error) {
	msg, err := parser.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}

	out := c.formatter.Render(msg)

	bodyKind := "plain"
	if msg.Body.IsHTML {
		bodyKind = "html"
	}
	attachments := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		name := att.Filename
		if name == "" {
			name = att.ContentType.MediaType()
		}
		attachments = append(attachments, fmt.Sprintf("%s (%s)", name, formatSize(att.Size())))
	}

	slog.Info("message converted",
		"format", c.formatter.Name(),
		"subject", msg.Header.Subject,
		"body", bodyKind,
		"attachments", strings.Join(attachments, ", "),
		"input_size", formatSize(len(raw)),
		"output_size", formatSize(len(out)),
	)

	return out, nil
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
