// Package formatter renders decoded emails as Markdown documents.
package formatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shineum/eml2md/internal/email"
)

// Format names accepted by New.
const (
	NameSimple = "simple"
	NameHTML   = "html"
)

// ErrUnknownFormat is returned by New for a format name it does not know.
var ErrUnknownFormat = errors.New("unknown format")

// Formatter is the interface that output dialects must implement.
type Formatter interface {
	// Render turns a decoded email into the output document. It has no side
	// effects: rendering the same email twice yields identical output.
	Render(msg *email.Email) string

	// Name returns the format name this formatter is selected by.
	Name() string
}

// New returns the formatter registered under name.
func New(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameSimple:
		return Plain{}, nil
	case NameHTML:
		return HTML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of: %s)",
			ErrUnknownFormat, name, strings.Join(Names(), ", "))
	}
}

// Names returns the accepted format names.
func Names() []string {
	return []string{NameSimple, NameHTML}
}

// document renders the header table followed by a blank line and the body.
func document(h email.Header, body string) string {
	var b strings.Builder

	b.WriteString("|||\n")
	b.WriteString("|---|---|\n")
	writeRow(&b, "From", email.FormatAddresses(h.From))
	writeRow(&b, "To", email.FormatAddresses(h.To))
	writeRow(&b, "CC", email.FormatAddresses(h.CC))
	writeRow(&b, "Date", h.DateString())
	b.WriteString("|Subject|" + cell(h.Subject) + "|")

	b.WriteString("\n\n")
	b.WriteString(body)

	return b.String()
}

func writeRow(b *strings.Builder, name, value string) {
	b.WriteString("|" + name + "|" + cell(value) + "|\n")
}

var cellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// cell makes a value safe to place inside a single table cell.
func cell(v string) string {
	return cellReplacer.Replace(v)
}
