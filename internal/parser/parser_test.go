package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/eml2md/internal/contenttype"
	"github.com/shineum/eml2md/internal/email"
)

func TestParsePlainTextEmail(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: Sender <sender@example.com>",
		"To: recipient@example.com",
		"Subject: Test Subject",
		"Date: Mon, 1 Jan 2024 12:00:00 +0000",
		"Content-Type: text/plain",
		"",
		"Hello, World!",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []email.Address{{Name: "Sender", Address: "sender@example.com"}}, msg.Header.From)
	assert.Equal(t, []email.Address{{Address: "recipient@example.com"}}, msg.Header.To)
	assert.Nil(t, msg.Header.CC)
	assert.Equal(t, "Test Subject", msg.Header.Subject)
	assert.Equal(t, "2024-01-01 12:00:00", msg.Header.DateString())
	assert.Equal(t, "Hello, World!", msg.Body.Content)
	assert.False(t, msg.Body.IsHTML)
	assert.Empty(t, msg.Attachments)
}

func TestParseBodySelectionPrefersHTML(t *testing.T) {
	t.Parallel()

	plain := []string{
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Plain text body",
	}
	html := []string{
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>HTML body</p></body></html>",
	}

	tests := []struct {
		name  string
		parts [][]string
	}{
		{name: "plain first", parts: [][]string{plain, html}},
		{name: "html first", parts: [][]string{html, plain}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lines := []string{
				"From: sender@example.com",
				"Subject: Multipart Test",
				"Content-Type: multipart/alternative; boundary=b1",
				"",
			}
			for _, p := range tt.parts {
				lines = append(lines, p...)
			}
			lines = append(lines, "--b1--")

			msg, err := Parse([]byte(strings.Join(lines, "\r\n")))
			require.NoError(t, err)

			assert.True(t, msg.Body.IsHTML)
			assert.Equal(t, "<html><body><p>HTML body</p></body></html>", msg.Body.Content)

			// The unselected alternative is kept as an attachment.
			require.Len(t, msg.Attachments, 1)
			assert.Equal(t, "text/plain", msg.Attachments[0].ContentType.MediaType())
			assert.Equal(t, "Plain text body", string(msg.Attachments[0].Data))
		})
	}
}

func TestParseEmailWithAttachments(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: With Attachment",
		"Content-Type: multipart/mixed; boundary=mixedboundary",
		"",
		"--mixedboundary",
		"Content-Type: text/plain",
		"",
		"Email body text",
		"--mixedboundary",
		"Content-Type: application/pdf; name=\"ignored.pdf\"",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--mixedboundary--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "Email body text", msg.Body.Content)
	require.Len(t, msg.Attachments, 1)

	att := msg.Attachments[0]
	assert.Equal(t, "report.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType.MediaType())
	assert.Equal(t, "ignored.pdf", att.ContentType.Param("name"))
	assert.Equal(t, "Hello World", string(att.Data))
	assert.False(t, att.Inline)
	assert.Empty(t, att.ContentID)
}

func TestParseInlineImage(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: sender@example.com",
		"Subject: Inline",
		"Content-Type: multipart/related; boundary=rel",
		"",
		"--rel",
		"Content-Type: text/html",
		"",
		`<p><img src="cid:img1@example.com"></p>`,
		"--rel",
		"Content-Type: image/png; name=logo.png",
		"Content-ID: <img1@example.com>",
		"Content-Transfer-Encoding: base64",
		"",
		"iVBORw==",
		"--rel",
		"Content-Type: image/gif",
		"Content-Disposition: inline",
		"Content-Transfer-Encoding: base64",
		"",
		"R0lG",
		"--rel--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 2)

	logo := msg.Attachments[0]
	assert.True(t, logo.Inline)
	assert.Equal(t, "img1@example.com", logo.ContentID)
	assert.Equal(t, "logo.png", logo.Filename)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, logo.Data)

	gif := msg.Attachments[1]
	assert.True(t, gif.Inline)
	assert.Empty(t, gif.ContentID)
	assert.Equal(t, "GIF", string(gif.Data))
}

func TestParseInvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "zero bytes", raw: []byte{}},
		{name: "nil", raw: nil},
		{name: "whitespace only", raw: []byte(" \r\n\t\r\n")},
		{name: "binary garbage", raw: []byte("not a valid email at all\x00\x01\x02")},
		{name: "folded first line", raw: []byte(" Subject: x\r\n\r\nbody")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, err := Parse(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Nil(t, msg)
		})
	}
}

func TestParseDegradesGracefully(t *testing.T) {
	t.Parallel()

	t.Run("missing content type defaults to text/plain", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"From: sender@example.com",
			"Subject: No Content Type",
			"",
			"Body without content type header",
		}, "\r\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "Body without content type header", msg.Body.Content)
		assert.False(t, msg.Body.IsHTML)
	})

	t.Run("multipart missing boundary", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"From: sender@example.com",
			"Content-Type: multipart/mixed",
			"",
			"some body",
		}, "\r\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "some body", msg.Body.Content)
	})

	t.Run("headers only", func(t *testing.T) {
		t.Parallel()
		msg, err := Parse([]byte("Subject: Only a subject"))
		require.NoError(t, err)
		assert.Equal(t, "Only a subject", msg.Header.Subject)
		assert.Equal(t, "", msg.Body.Content)
	})

	t.Run("no headers at all", func(t *testing.T) {
		t.Parallel()
		msg, err := Parse([]byte("\r\nJust some text\r\n"))
		require.NoError(t, err)
		assert.Equal(t, email.Header{}, msg.Header)
		assert.Equal(t, email.Body{Content: "Just some text\r\n"}, msg.Body)
		assert.Empty(t, msg.Attachments)
	})

	t.Run("no headers with lf line endings", func(t *testing.T) {
		t.Parallel()
		msg, err := Parse([]byte("\nline one\nline two"))
		require.NoError(t, err)
		assert.Equal(t, email.Header{}, msg.Header)
		assert.Equal(t, "line one\nline two", msg.Body.Content)
	})

	t.Run("no recognized headers", func(t *testing.T) {
		t.Parallel()
		msg, err := Parse([]byte("X-Mailer: test\r\n\r\nhello"))
		require.NoError(t, err)
		assert.Equal(t, email.Header{}, msg.Header)
		assert.Equal(t, "hello", msg.Body.Content)
	})

	t.Run("unknown charset keeps raw text", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"Subject: Odd charset",
			"Content-Type: text/plain; charset=x-no-such-charset",
			"",
			"hello",
		}, "\r\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "hello", msg.Body.Content)
	})

	t.Run("no text part", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"Subject: Binary only",
			"Content-Type: application/octet-stream",
			"Content-Transfer-Encoding: base64",
			"",
			"SGVsbG8gV29ybGQ=",
		}, "\r\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, email.Body{}, msg.Body)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "Hello World", string(msg.Attachments[0].Data))
	})

	t.Run("mbox envelope line", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"From sender@example.com Mon Jan  1 12:00:00 2024",
			"Subject: From mbox",
			"",
			"body",
		}, "\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "From mbox", msg.Header.Subject)
		assert.Equal(t, "body", msg.Body.Content)
	})
}

func TestParseAttachedTextIsNotBody(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"Subject: Notes",
		"Content-Type: multipart/mixed; boundary=m",
		"",
		"--m",
		"Content-Type: text/plain; name=notes.txt",
		"Content-Disposition: attachment; filename=notes.txt",
		"",
		"attached notes",
		"--m--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, email.Body{}, msg.Body)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "notes.txt", msg.Attachments[0].Filename)
	assert.Equal(t, "attached notes", string(msg.Attachments[0].Data))
}

func TestParseDates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		date    string
		want    string
		wantRaw string
	}{
		{name: "rfc 5322 with offset", date: "Mon, 1 Jan 2024 12:00:00 +0900", want: "2024-01-01 03:00:00"},
		{name: "rfc 5322 negative offset", date: "Sun, 31 Dec 2023 22:30:00 -0500", want: "2024-01-01 03:30:00"},
		{name: "iso 8601 fallback", date: "2024-01-02T15:04:05+02:00", want: "2024-01-02 13:04:05"},
		{name: "no zone is read as utc", date: "2024-01-02 15:04:05", want: "2024-01-02 15:04:05"},
		{name: "unparsable", date: "not a date", want: "not a date", wantRaw: "not a date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := []byte("Date: " + tt.date + "\r\n\r\nbody")
			msg, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Header.DateString())
			if tt.wantRaw != "" {
				assert.True(t, msg.Header.Date.IsZero())
				assert.Equal(t, tt.wantRaw, msg.Header.RawDate)
			}
		})
	}
}

func TestParseEncodedHeaders(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: =?UTF-8?Q?Ren=C3=A9_Dupont?= <rene@example.com>",
		"To: \"Alice Example\" <alice@example.com>, bob@example.com",
		"Cc: carol@example.com",
		"Subject: =?UTF-8?Q?Caf=C3=A9_menu?=",
		"Content-Type: multipart/mixed; boundary=enc",
		"",
		"--enc",
		"Content-Type: text/plain",
		"",
		"body",
		"--enc",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf",
		"",
		"pdf",
		"--enc",
		"Content-Type: application/pdf; name=\"=?UTF-8?B?cmFwcG9ydC5wZGY=?=\"",
		"",
		"pdf",
		"--enc--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []email.Address{{Name: "René Dupont", Address: "rene@example.com"}}, msg.Header.From)
	assert.Equal(t, []email.Address{
		{Name: "Alice Example", Address: "alice@example.com"},
		{Address: "bob@example.com"},
	}, msg.Header.To)
	assert.Equal(t, []email.Address{{Address: "carol@example.com"}}, msg.Header.CC)
	assert.Equal(t, "Café menu", msg.Header.Subject)

	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "résumé.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "rapport.pdf", msg.Attachments[1].Filename)
}

func TestParseCharsets(t *testing.T) {
	t.Parallel()

	t.Run("declared latin-1 quoted-printable", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"Content-Type: text/plain; charset=iso-8859-1",
			"Content-Transfer-Encoding: quoted-printable",
			"",
			"caf=E9",
		}, "\r\n"))

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "café", msg.Body.Content)
	})

	t.Run("undeclared 8bit falls back to windows-1252", func(t *testing.T) {
		t.Parallel()
		raw := []byte("Content-Type: text/plain\r\n\r\ncaf\xe9 \x93quoted\x94")

		msg, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "café “quoted”", msg.Body.Content)
	})
}

func TestParseBase64AttachmentWithCRLF(t *testing.T) {
	t.Parallel()

	raw := []byte("From: sender@example.com\r\n" +
		"To: recipient@example.com\r\n" +
		"Subject: CRLF Base64\r\n" +
		"Content-Type: multipart/mixed; boundary=bound\r\n" +
		"\r\n" +
		"--bound\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n" +
		"--bound\r\n" +
		"Content-Type: application/pdf; name=\"file.pdf\"\r\n" +
		"Content-Disposition: attachment; filename=\"file.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"SGVs\r\n" +
		"bG8g\r\n" +
		"V29y\r\n" +
		"bGQ=\r\n" +
		"--bound--\r\n")

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)

	att := msg.Attachments[0]
	assert.Equal(t, "file.pdf", att.Filename)
	assert.Equal(t, "Hello World", string(att.Data))
}

func TestParseAttachmentWithoutFilename(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"Subject: No Filename",
		"Content-Type: multipart/mixed; boundary=bound",
		"",
		"--bound",
		"Content-Type: text/plain",
		"",
		"body",
		"--bound",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--bound--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "", msg.Attachments[0].Filename)
	assert.Equal(t, "Hello World", string(msg.Attachments[0].Data))
}

func TestParseNestedMultipart(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: sender@example.com",
		"Subject: Nested Multipart",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/related; boundary=middle",
		"",
		"--middle",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain",
		"",
		"Plain text part",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>HTML part</p>",
		"--inner--",
		"--middle",
		"Content-Type: image/png",
		"Content-ID: <logo>",
		"",
		"png",
		"--middle--",
		"--outer",
		"Content-Type: application/octet-stream; name=\"data.bin\"",
		"Content-Disposition: attachment; filename=\"data.bin\"",
		"",
		"binarydata",
		"--outer--",
	}, "\r\n"))

	msg, err := Parse(raw)
	require.NoError(t, err)

	assert.True(t, msg.Body.IsHTML)
	assert.Equal(t, "<p>HTML part</p>", msg.Body.Content)

	require.Len(t, msg.Attachments, 3)
	assert.Equal(t, "text/plain", msg.Attachments[0].ContentType.MediaType())
	assert.Equal(t, "logo", msg.Attachments[1].ContentID)
	assert.Equal(t, "data.bin", msg.Attachments[2].Filename)
	assert.Equal(t, "binarydata", string(msg.Attachments[2].Data))
}

func TestSplitAddresses(t *testing.T) {
	t.Parallel()

	got := splitAddresses(`John Smith john@example.com, <jane@example.com>, "Support" help@example.com,  ,`)
	assert.Equal(t, []email.Address{
		{Name: "John Smith", Address: "john@example.com"},
		{Address: "jane@example.com"},
		{Name: "Support", Address: "help@example.com"},
	}, got)
}

func TestSelectBody(t *testing.T) {
	t.Parallel()

	leaf := func(ct, disp string) *node {
		n := &node{disposition: disp}
		n.contentType = contenttype.Parse(ct)
		return n
	}

	assert.Equal(t, -1, selectBody(nil))
	assert.Equal(t, -1, selectBody([]*node{leaf("image/png", "")}))
	assert.Equal(t, 1, selectBody([]*node{leaf("image/png", ""), leaf("text/plain", ""), leaf("text/plain", "")}))
	assert.Equal(t, 2, selectBody([]*node{leaf("text/plain", ""), leaf("text/html", "attachment"), leaf("text/html", "")}))
	assert.Equal(t, 1, selectBody([]*node{leaf("text/plain", "attachment"), leaf("text/plain", "inline")}))
}
