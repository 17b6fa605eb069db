// Package normalize provides canonical forms for user-supplied values so
// that lookups and uniqueness checks behave the same regardless of how the
// value was typed.
package normalize

import "strings"

// Email lowercases and trims an email address. Empty or all-whitespace
// input normalizes to "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Mood lowercases and trims a mood keyword used for catalog filtering.
func Mood(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PlayerID trims and validates a bingo player identifier, normalizing
// anything else to "". Valid ids are 24-char user object-id hexes or
// "guest-<uuid>" strings. Ids become Mongo update field paths, so the
// shape check also keeps "." and "$" out of document keys.
func PlayerID(s string) string {
	s = strings.TrimSpace(s)
	if isHex(s, 24) {
		return s
	}
	if rest, ok := strings.CutPrefix(s, "guest-"); ok && isUUID(rest) {
		return s
	}
	return ""
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexByte(s[i]) {
			return false
		}
	}
	return true
}

func isHexByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// isUUID checks the canonical 8-4-4-4-12 form.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if s[i] != '-' {
				return false
			}
			continue
		}
		if !isHexByte(s[i]) {
			return false
		}
	}
	return true
}
