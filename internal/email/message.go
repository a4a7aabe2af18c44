// Package email defines the decoded email data model that the parser
// produces and the formatters render.
package email

import (
	"strings"
	"time"

	"github.com/shineum/eml2md/internal/contenttype"
)

// DateLayout is the layout every decoded Date header is normalized to. Dates
// are converted to UTC before formatting.
const DateLayout = "2006-01-02 15:04:05"

// AddressDelimiter joins the entries of an address list for display.
const AddressDelimiter = "<br>"

// Email represents a decoded email message. It is built once by the parser
// and is not modified afterwards.
type Email struct {
	Header      Header
	Body        Body
	Attachments []Attachment
}

// Header holds the recognized header fields. Absent fields are left at their
// zero value.
type Header struct {
	From    []Address
	To      []Address
	CC      []Address
	Subject string

	// Date is the parsed Date header. It is zero when the header is missing
	// or could not be parsed, in which case RawDate keeps the original text.
	Date    time.Time
	RawDate string
}

// Address is a single mailbox.
type Address struct {
	Name    string
	Address string
}

// Body is the single text body selected from the message.
type Body struct {
	Content string
	IsHTML  bool
}

// Attachment is any leaf MIME part that was not selected as the body.
type Attachment struct {
	ContentType contenttype.ContentType
	Filename    string
	// ContentID is the part's Content-ID without the surrounding angle
	// brackets.
	ContentID string
	Inline    bool
	Data      []byte
}

// String renders the address as "Name <address>", or "<address>" when there
// is no display name.
func (a Address) String() string {
	if a.Name == "" {
		return "<" + a.Address + ">"
	}
	return a.Name + " <" + a.Address + ">"
}

// FormatAddresses joins an address list with AddressDelimiter.
func FormatAddresses(list []Address) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, AddressDelimiter)
}

// DateString returns the normalized date, the raw Date header when it could
// not be parsed, or an empty string when there was no Date header.
func (h Header) DateString() string {
	if !h.Date.IsZero() {
		return h.Date.UTC().Format(DateLayout)
	}
	return h.RawDate
}

// IsImage reports whether the attachment has an image/* content type.
func (a Attachment) IsImage() bool {
	return a.ContentType.IsImage()
}

// Size returns the decoded size of the attachment in bytes.
func (a Attachment) Size() int {
	return len(a.Data)
}

// InlineImages returns the image attachments that are marked inline, in
// document order.
func (e *Email) InlineImages() []Attachment {
	var out []Attachment
	for _, a := range e.Attachments {
		if a.Inline && a.IsImage() {
			out = append(out, a)
		}
	}
	return out
}

// AttachmentByContentID returns the first attachment whose Content-ID equals
// id. Angle brackets around id are ignored.
func (e *Email) AttachmentByContentID(id string) (Attachment, bool) {
	id = TrimContentID(id)
	if id == "" {
		return Attachment{}, false
	}
	for _, a := range e.Attachments {
		if a.ContentID == id {
			return a, true
		}
	}
	return Attachment{}, false
}

// AttachmentByName returns the first attachment whose filename, or
// Content-Type name parameter, equals name.
func (e *Email) AttachmentByName(name string) (Attachment, bool) {
	if name == "" {
		return Attachment{}, false
	}
	for _, a := range e.Attachments {
		if a.Filename == name || a.ContentType.Param("name") == name {
			return a, true
		}
	}
	return Attachment{}, false
}

// TrimContentID strips whitespace and one pair of surrounding angle brackets
// from a Content-ID value.
func TrimContentID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return strings.TrimSpace(id)
}
