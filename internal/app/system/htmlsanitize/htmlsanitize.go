// Package htmlsanitize cleans user-supplied markup before it is stored.
//
// Task descriptions may carry rich text from the client editor; they go
// through Sanitize. Titles, checklist text and notification messages are
// plain text and go through StripTags.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "pre", "code")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	return p
}

// Sanitize removes scripts, event handlers, unsafe URLs and unknown
// elements, keeping ordinary formatting.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// StripTags removes all markup and returns the text content, unescaped.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like sequence.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Description prepares a task description for storage: markup is
// sanitized, plain text is stored as typed.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		return s
	}
	return Sanitize(s)
}
