// Package htmlsanitize strips markup from user-supplied text before it is
// stored. Event and playlist names are plain text; anything that looks like
// HTML is removed rather than escaped.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.StrictPolicy()

// Sanitize removes all HTML tags and attributes from s, returning the
// remaining text content.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}
