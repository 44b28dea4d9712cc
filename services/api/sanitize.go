package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from inbound text before validation and storage.
func sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(value)))
}
