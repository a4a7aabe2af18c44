// Package contenttype parses MIME Content-Type header values into a
// type/subtype pair and a parameter map.
package contenttype

import (
	"maps"
	"slices"
	"strings"
)

// Default type used when a header is missing or cannot be parsed.
const (
	DefaultType    = "text"
	DefaultSubtype = "plain"
)

// ContentType is a parsed Content-Type header value.
type ContentType struct {
	Type    string
	Subtype string
	// Params maps lower-cased parameter names to their values. Values keep
	// their original case.
	Params map[string]string
}

// Default returns text/plain with no parameters.
func Default() ContentType {
	return ContentType{
		Type:    DefaultType,
		Subtype: DefaultSubtype,
		Params:  map[string]string{},
	}
}

// Parse parses a Content-Type header value such as
// `text/html; charset="utf-8"`. It never fails: a missing or malformed
// type/subtype degrades to text/plain while any parameters that could be
// read are still kept.
func Parse(value string) ContentType {
	token, params := ParseValue(value)

	ct := ContentType{Params: params}

	typ, sub, ok := strings.Cut(token, "/")
	typ = strings.ToLower(strings.TrimSpace(typ))
	sub = strings.ToLower(strings.TrimSpace(sub))
	if !ok || typ == "" || sub == "" {
		typ, sub = DefaultType, DefaultSubtype
	}
	ct.Type = typ
	ct.Subtype = sub

	return ct
}

// ParseValue splits a parameterized header value of the form
// `token; key=value; key2="value 2"` into its leading token and parameters.
// Segments without an "=" are ignored. Surrounding double quotes are removed
// from values, with no further escape processing.
func ParseValue(value string) (string, map[string]string) {
	params := make(map[string]string)

	segments := strings.Split(value, ";")
	token := strings.TrimSpace(segments[0])

	for _, seg := range segments[1:] {
		key, val, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		params[key] = unquote(strings.TrimSpace(val))
	}

	return token, params
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// MediaType returns the "type/subtype" string.
func (c ContentType) MediaType() string {
	return c.Type + "/" + c.Subtype
}

// Param returns the named parameter, or an empty string. The lookup is
// case-insensitive.
func (c ContentType) Param(name string) string {
	return c.Params[strings.ToLower(name)]
}

// Is reports whether the content type is typ/subtype. An empty subtype
// matches any subtype.
func (c ContentType) Is(typ, subtype string) bool {
	if !strings.EqualFold(c.Type, typ) {
		return false
	}
	return subtype == "" || strings.EqualFold(c.Subtype, subtype)
}

func (c ContentType) IsText() bool      { return c.Is("text", "") }
func (c ContentType) IsImage() bool     { return c.Is("image", "") }
func (c ContentType) IsMultipart() bool { return c.Is("multipart", "") }

// String renders the content type back into header form. Parameters are
// sorted by name so the output is stable.
func (c ContentType) String() string {
	var b strings.Builder
	b.WriteString(c.MediaType())
	for _, k := range slices.Sorted(maps.Keys(c.Params)) {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteString("=")
		v := c.Params[k]
		if strings.ContainsAny(v, " \t;\"()<>@,:\\/[]?=") {
			b.WriteString(`"` + v + `"`)
		} else {
			b.WriteString(v)
		}
	}
	return b.String()
}
