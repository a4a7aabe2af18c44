package formatter

import "github.com/shineum/eml2md/internal/email"

// Plain renders the header table and the body exactly as decoded.
// Attachments are ignored.
type Plain struct{}

func (Plain) Render(msg *email.Email) string {
	return document(msg.Header, msg.Body.Content)
}

func (Plain) Name() string {
	return NameSimple
}
