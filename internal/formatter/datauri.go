package formatter

import (
	"encoding/base64"

	"github.com/shineum/eml2md/internal/contenttype"
)

// DataURI encodes data as a base64 data URI of the given content type,
// without parameters: data:<type>/<subtype>;base64,<payload>.
func DataURI(ct contenttype.ContentType, data []byte) string {
	return "data:" + ct.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}
