// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Discussion bodies may carry a small amount of formatting (the mobile editor
// emits <p>, <strong>, <em>, lists and links); everything else is stripped.
// Titles and names are reduced to plain text.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	once.Do(func() {
		rich = bluemonday.UGCPolicy()
		rich.AllowElements("u", "s", "mark")
		rich.RequireNoFollowOnLinks(true)

		strict = bluemonday.StrictPolicy()
	})
	return rich, strict
}

// Sanitize keeps safe formatting and drops scripts, styles, iframes, event
// handlers and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	p, _ := policies()
	return strings.TrimSpace(p.Sanitize(s))
}

// PlainText strips all markup and returns unescaped text, for fields the
// client renders verbatim (issue titles, project names).
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	_, p := policies()
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}

