package formatter

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shineum/eml2md/internal/email"
)

// HTML renders the header table and the body, embedding the image
// attachments the body references as data URIs. Attachments that are not
// referenced, or are not images, are left out.
//
// HTML bodies reference images through "cid:" attribute values. Plain text
// bodies exported by some clients carry "[image: name]" placeholders instead,
// which become Markdown images.
type HTML struct{}

func (HTML) Render(msg *email.Email) string {
	body := msg.Body.Content
	if msg.Body.IsHTML {
		body = embedContentIDs(body, msg)
	} else {
		body = embedPlaceholders(body, msg)
	}
	return document(msg.Header, body)
}

func (HTML) Name() string {
	return NameHTML
}

// referencedImage returns the first attachment carrying id, provided it is
// an image.
func referencedImage(msg *email.Email, id string) (email.Attachment, bool) {
	a, ok := msg.AttachmentByContentID(id)
	if !ok || !a.IsImage() {
		return email.Attachment{}, false
	}
	return a, true
}

// embedContentIDs rewrites "cid:<id>" attribute values and CSS
// "url(cid:<id>)" references, in style attributes and <style> elements,
// whose id names an image attachment. Everything else is copied byte for
// byte.
func embedContentIDs(body string, msg *email.Email) string {
	if len(msg.InlineImages()) == 0 || !strings.Contains(strings.ToLower(body), "cid:") {
		return body
	}

	z := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	b.Grow(len(body))
	inStyle := false

	for {
		tt := z.Next()
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			b.WriteString(raw)
			return b.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tt == html.StartTagToken && tok.DataAtom == atom.Style {
				inStyle = true
			}
			if rewriteAttrs(&tok, msg) {
				b.WriteString(tok.String())
				continue
			}

		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "style" {
				inStyle = false
			}

		case html.TextToken:
			if inStyle {
				if css, ok := embedCSSURLs(raw, msg); ok {
					b.WriteString(css)
					continue
				}
			}
		}

		b.WriteString(raw)
	}
}

func rewriteAttrs(tok *html.Token, msg *email.Email) bool {
	changed := false
	for i, attr := range tok.Attr {
		if id, ok := contentIDRef(attr.Val); ok {
			if img, ok := referencedImage(msg, id); ok {
				tok.Attr[i].Val = DataURI(img.ContentType, img.Data)
				changed = true
			}
			continue
		}
		if css, ok := embedCSSURLs(attr.Val, msg); ok {
			tok.Attr[i].Val = css
			changed = true
		}
	}
	return changed
}

// contentIDRef extracts the Content-ID from a "cid:" URL.
func contentIDRef(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) <= len("cid:") || !strings.EqualFold(v[:len("cid:")], "cid:") {
		return "", false
	}
	id := v[len("cid:"):]
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return email.TrimContentID(id), true
}

var cssURLPattern = regexp.MustCompile(`(?i)url\(\s*(['"]?)(cid:[^'")\s]+)(['"]?)\s*\)`)

// embedCSSURLs replaces url(cid:<id>) references in CSS text. It reports
// whether anything was replaced.
func embedCSSURLs(css string, msg *email.Email) (string, bool) {
	if !strings.Contains(strings.ToLower(css), "cid:") {
		return css, false
	}
	changed := false
	out := cssURLPattern.ReplaceAllStringFunc(css, func(m string) string {
		sub := cssURLPattern.FindStringSubmatch(m)
		id, ok := contentIDRef(sub[2])
		if !ok {
			return m
		}
		img, ok := referencedImage(msg, id)
		if !ok {
			return m
		}
		changed = true
		return "url(" + sub[1] + DataURI(img.ContentType, img.Data) + sub[3] + ")"
	})
	return out, changed
}

var placeholderPattern = regexp.MustCompile(`\[image: ([^\]\r\n]+)\]`)

// embedPlaceholders replaces "[image: name]" with a Markdown image when an
// image attachment carries that name.
func embedPlaceholders(body string, msg *email.Email) string {
	if len(msg.Attachments) == 0 {
		return body
	}
	return placeholderPattern.ReplaceAllStringFunc(body, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		img, ok := msg.AttachmentByName(name)
		if !ok || !img.IsImage() {
			return m
		}
		return "![" + name + "](" + DataURI(img.ContentType, img.Data) + ")"
	})
}
