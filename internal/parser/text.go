package parser

import (
	"log/slog"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// normalizeText returns data as UTF-8. Parts with a known charset have
// already been converted while reading; anything still not valid UTF-8 is
// undeclared or mislabeled legacy text and is read as Windows-1252.
func normalizeText(data []byte, declared string) string {
	if utf8.Valid(data) {
		return string(data)
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		slog.Warn("failed to normalize text, replacing invalid bytes",
			"charset", declared,
			"error", err,
		)
		return strings.ToValidUTF8(string(data), "�")
	}

	slog.Debug("text was not valid UTF-8, decoded as windows-1252", "charset", declared)
	return string(decoded)
}

// decodeWords decodes RFC 2047 encoded words, as found in filenames written
// by some mail clients. The input is returned unchanged when it is not
// encoded or cannot be decoded.
func decodeWords(s string) string {
	if !strings.Contains(s, "=?") {
		return s
	}
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
