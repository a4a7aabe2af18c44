// Package parser decodes raw RFC 5322 / MIME messages into email.Email
// values. It walks nested multipart trees, picks a single body and collects
// every other leaf part as an attachment.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"github.com/shineum/eml2md/internal/email"
)

// ErrInvalidFormat is returned when the input cannot be interpreted as a
// message at all. Every other oddity degrades to a fallback value.
var ErrInvalidFormat = errors.New("invalid message format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse parses a raw message into an Email. Missing headers, malformed
// content types, unknown charsets and broken part streams are logged and
// tolerated; only input without any recognizable header section fails.
func Parse(raw []byte) (*email.Email, error) {
	data, err := prepare(raw)
	if err != nil {
		return nil, err
	}

	entity, err := message.Read(bytes.NewReader(data))
	if entity == nil || (err != nil && !isSoftEntityError(err)) {
		return nil, fmt.Errorf("%w: failed to parse message: %v", ErrInvalidFormat, err)
	}
	if err != nil {
		slog.Warn("message body could not be fully decoded, keeping raw bytes", "error", err)
	}

	result := &email.Email{
		Header: parseHeader(mail.Header{Header: entity.Header}),
	}

	root := buildTree(entity)
	leaves := root.leaves(nil)

	selected := selectBody(leaves)
	if selected >= 0 {
		n := leaves[selected]
		result.Body = email.Body{
			Content: normalizeText(n.body, n.contentType.Param("charset")),
			IsHTML:  n.contentType.Is("text", "html"),
		}
	}

	for i, n := range leaves {
		if i == selected {
			continue
		}
		result.Attachments = append(result.Attachments, n.attachment())
	}

	slog.Debug("decoded message",
		"parts", len(leaves),
		"html_body", result.Body.IsHTML,
		"body_found", selected >= 0,
		"attachments", len(result.Attachments),
	)

	return result, nil
}

// prepare checks that raw starts with a header section, possibly empty, and
// makes sure the header section is terminated so it can be read.
func prepare(raw []byte) ([]byte, error) {
	data := bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	// A leading blank line is an empty header section.
	if bytes.HasPrefix(data, []byte("\r\n")) || bytes.HasPrefix(data, []byte("\n")) {
		return data, nil
	}

	// Messages exported from mbox files may still carry the "From " envelope
	// line.
	if bytes.HasPrefix(data, []byte("From ")) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = nil
		}
	}

	line, _, _ := bytes.Cut(data, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	name, _, ok := bytes.Cut(line, []byte(":"))
	if !ok || !isFieldName(name) {
		return nil, fmt.Errorf("%w: no header section found", ErrInvalidFormat)
	}

	if !bytes.Contains(data, []byte("\n\n")) && !bytes.Contains(data, []byte("\r\n\r\n")) {
		fixed := make([]byte, 0, len(data)+4)
		fixed = append(fixed, data...)
		if !bytes.HasSuffix(fixed, []byte("\n")) {
			fixed = append(fixed, "\r\n"...)
		}
		data = append(fixed, "\r\n"...)
	}

	return data, nil
}

// isFieldName reports whether b is a valid RFC 5322 field name: printable
// US-ASCII except colon.
func isFieldName(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 33 || c > 126 || c == ':' {
			return false
		}
	}
	return true
}

// isSoftEntityError reports whether err only means that the body could not be
// transfer- or charset-decoded. The entity is still usable in that case.
func isSoftEntityError(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func parseHeader(h mail.Header) email.Header {
	out := email.Header{
		From:    parseAddresses(h, "From"),
		To:      parseAddresses(h, "To"),
		CC:      parseAddresses(h, "Cc"),
		Subject: headerText(h.Header, "Subject"),
	}
	out.Date, out.RawDate = parseDate(h)
	return out
}

// headerText returns the RFC 2047 decoded value of a header, or the raw
// value when decoding fails.
func headerText(h message.Header, key string) string {
	v, err := h.Text(key)
	if err != nil {
		slog.Debug("failed to decode header, using raw value", "header", key, "error", err)
		return strings.TrimSpace(h.Get(key))
	}
	return strings.TrimSpace(v)
}

// parseDate parses the Date header, first as RFC 5322 and then in any format
// dateparse recognizes. An unparsable date is returned as raw text only.
func parseDate(h mail.Header) (time.Time, string) {
	raw := strings.TrimSpace(h.Get("Date"))
	if raw == "" {
		return time.Time{}, ""
	}

	if t, err := h.Date(); err == nil {
		return t, raw
	}
	// Dates without a zone are read as UTC.
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t, raw
	}

	slog.Warn("failed to parse date header, keeping raw value", "date", raw)
	return time.Time{}, raw
}
