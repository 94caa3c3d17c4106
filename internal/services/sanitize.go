package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// plain text fields lose every tag
	textPolicy = bluemonday.StrictPolicy()
	// bodies may keep harmless formatting markup
	bodyPolicy = bluemonday.UGCPolicy()
)

// sanitizeText strips markup from a plain text field. The policy escapes what
// it keeps, so the entities are decoded again to store the text as typed.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// sanitizeBody keeps the body as HTML
func sanitizeBody(s string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(s))
}
