package ofx

import (
	"regexp"
	"strings"
)

// Document is a split OFX/QFX file: the colon-delimited header block and the
// SGML-flavored body rooted at <OFX>.
type Document struct {
	Header []HeaderField
	Body   string
}

// HeaderField is one KEY:VALUE line from the header block, kept in file
// order so the document can be reassembled faithfully.
type HeaderField struct {
	Key   string
	Value string
}

// HeaderValue looks up a header field by key.
func (d *Document) HeaderValue(key string) string {
	for _, f := range d.Header {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Split separates the colon-delimited header block from the body. The header
// runs until the literal <OFX> line; files that start straight at the body
// (OFX 2.x XML) simply produce an empty header.
func Split(raw string) *Document {
	doc := &Document{}
	rest := raw
	for {
		line, remainder, found := cutLine(rest)
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "<") {
			// Body starts here; everything from this line on is SGML.
			doc.Body = rest
			return doc
		}
		if trimmed != "" {
			key, value, ok := strings.Cut(trimmed, ":")
			if ok {
				doc.Header = append(doc.Header, HeaderField{
					Key:   strings.TrimSpace(key),
					Value: strings.TrimSpace(value),
				})
			}
		}
		if !found {
			return doc
		}
		rest = remainder
	}
}

func cutLine(s string) (line, rest string, found bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSuffix(s[:i], "\r"), s[i+1:], true
	}
	return s, "", false
}

// vendorTagPattern matches institution-specific non-standard tags; these
// carry a dot in the tag name (e.g. <INTU.BID>) and are not part of the OFX
// schema, so they are dropped before the body is reassembled.
var vendorTagPattern = regexp.MustCompile(`(?m)^\s*</?[A-Za-z0-9]+\.[A-Za-z0-9.]+>.*(?:\r?\n|$)`)

// StripVendorTags removes vendor-specific tag lines from the body.
func StripVendorTags(body string) string {
	return vendorTagPattern.ReplaceAllString(body, "")
}

// leafTagPattern matches a <TAG>value line with a non-empty value and no
// closing tag: the SGML style most institutions emit.
var leafTagPattern = regexp.MustCompile(`^(\s*)<([A-Za-z0-9._]+)>([^<]+?)\s*$`)

// CloseTag synthesizes the matching </TAG> for a <TAG>value line. Lines
// that are empty, already closed, or tag-only (a container open) pass
// through unchanged.
func CloseTag(line string) string {
	m := leafTagPattern.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	return m[1] + "<" + m[2] + ">" + m[3] + "</" + m[2] + ">"
}

// CloseTags applies CloseTag to every line of the body, producing
// well-formed XML from the SGML-flavored input.
func CloseTags(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = CloseTag(line)
	}
	return strings.Join(lines, "\n")
}

// Sanitize strips vendor tags and closes dangling leaf tags, returning a
// body that parses as a well-formed XML tree.
func Sanitize(body string) string {
	return CloseTags(StripVendorTags(body))
}

// Reassemble rebuilds a complete OFX document from the sanitized body. When
// the original carried a version-1 colon header it is re-emitted verbatim;
// otherwise an OFX 2.x XML declaration is synthesized so downstream parsers
// see a self-describing document.
func Reassemble(doc *Document, body string) string {
	var b strings.Builder
	if len(doc.Header) > 0 {
		for _, f := range doc.Header {
			b.WriteString(f.Key)
			b.WriteString(":")
			b.WriteString(f.Value)
			b.WriteString("\r\n")
		}
		b.WriteString("\r\n")
	} else {
		b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>`)
		b.WriteString("\r\n")
		b.WriteString(`<?OFX OFXHEADER="200" VERSION="202" SECURITY="NONE" OLDFILEUID="NONE" NEWFILEUID="NONE"?>`)
		b.WriteString("\r\n")
	}
	b.WriteString(body)
	return b.String()
}
