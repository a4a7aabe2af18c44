package parser

import (
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"

	"github.com/shineum/eml2md/internal/contenttype"
	"github.com/shineum/eml2md/internal/email"
)

// node is one MIME part. Containers have children, leaves have a body.
type node struct {
	header      message.Header
	contentType contenttype.ContentType
	disposition string
	body        []byte
	children    []*node
	container   bool
}

// buildTree reads e and all of its descendants into memory.
func buildTree(e *message.Entity) *node {
	n := &node{
		header:      e.Header,
		contentType: contenttype.Parse(e.Header.Get("Content-Type")),
		disposition: partDisposition(e.Header),
	}

	if !n.contentType.IsMultipart() {
		n.body = readBody(e, n.contentType)
		return n
	}

	mr := e.MultipartReader()
	if mr == nil || n.contentType.Param("boundary") == "" {
		slog.Warn("multipart part without usable boundary, treating as text/plain",
			"content_type", n.contentType.String(),
		)
		n.contentType = contenttype.Default()
		n.body = readBody(e, n.contentType)
		return n
	}
	defer mr.Close()

	n.container = true
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && (part == nil || !isSoftEntityError(err)) {
			slog.Warn("failed to read next part, skipping the rest of this container",
				"content_type", n.contentType.MediaType(),
				"error", err,
			)
			break
		}
		if err != nil {
			slog.Warn("part could not be fully decoded, keeping raw bytes",
				"content_type", part.Header.Get("Content-Type"),
				"error", err,
			)
		}
		n.children = append(n.children, buildTree(part))
	}

	return n
}

// readBody reads the decoded body of a leaf part. Whatever was read before a
// decoding error is kept.
func readBody(e *message.Entity, ct contenttype.ContentType) []byte {
	data, err := io.ReadAll(e.Body)
	if err != nil {
		slog.Warn("failed to read part content, keeping partial data",
			"content_type", ct.MediaType(),
			"bytes_read", len(data),
			"error", err,
		)
	}
	return data
}

// partDisposition returns the lower-cased disposition type ("inline",
// "attachment") or an empty string when the header is absent.
func partDisposition(h message.Header) string {
	raw := h.Get("Content-Disposition")
	if raw == "" {
		return ""
	}
	if disp, _, err := h.ContentDisposition(); err == nil {
		return strings.ToLower(disp)
	}
	token, _ := contenttype.ParseValue(raw)
	return strings.ToLower(token)
}

// leaves appends the leaf parts under n to dst in document order.
func (n *node) leaves(dst []*node) []*node {
	if !n.container {
		return append(dst, n)
	}
	for _, c := range n.children {
		dst = c.leaves(dst)
	}
	return dst
}

// selectBody returns the index of the first text/html leaf, else the first
// text/plain leaf, else -1. Parts explicitly marked as attachments are never
// selected.
func selectBody(leaves []*node) int {
	plain := -1
	for i, n := range leaves {
		if n.disposition == "attachment" {
			continue
		}
		if n.contentType.Is("text", "html") {
			return i
		}
		if plain < 0 && n.contentType.Is("text", "plain") {
			plain = i
		}
	}
	return plain
}

// attachment converts a leaf that was not selected as the body.
func (n *node) attachment() email.Attachment {
	cid := email.TrimContentID(n.header.Get("Content-Id"))

	data := n.body
	if n.contentType.IsText() {
		data = []byte(normalizeText(n.body, n.contentType.Param("charset")))
	}

	return email.Attachment{
		ContentType: n.contentType,
		Filename:    n.filename(),
		ContentID:   cid,
		Inline:      n.disposition == "inline" || cid != "",
		Data:        data,
	}
}

// filename returns the Content-Disposition filename, falling back to the
// Content-Type name parameter.
func (n *node) filename() string {
	if _, params, err := n.header.ContentDisposition(); err == nil {
		if fn := params["filename"]; fn != "" {
			return decodeWords(fn)
		}
	} else if raw := n.header.Get("Content-Disposition"); raw != "" {
		_, params := contenttype.ParseValue(raw)
		if fn := params["filename"]; fn != "" {
			return decodeWords(fn)
		}
	}

	if name := n.contentType.Param("name"); name != "" {
		return decodeWords(name)
	}
	return ""
}
