// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize wraps bluemonday policies for user-supplied text.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps a conservative subset of user-generated HTML and strips
// scripts, event handlers, and javascript: URLs.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}

// StripTags removes all HTML, leaving plain text. Used for fields that
// are stored and later rendered verbatim, like proxy request reasons and
// roster display names.
func StripTags(s string) string {
	return strictPolicy.Sanitize(s)
}
