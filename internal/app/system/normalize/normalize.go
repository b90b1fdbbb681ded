// internal/app/system/normalize/normalize.go

// Package normalize provides input normalization helpers used by stores
// and handlers so that identity comparisons are consistent everywhere.
package normalize

import "strings"

// Username returns the canonical member username for a handle.
//
// Handles arrive as either a bare username or an email-like identifier;
// the local part preceding "@" is the stable identity, lowercased.
func Username(handle string) string {
	h := strings.TrimSpace(strings.ToLower(handle))
	if at := strings.IndexByte(h, '@'); at >= 0 {
		h = h[:at]
	}
	return h
}

// Name trims surrounding whitespace from a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// SessionID trims a scanned QR payload. QR decoders occasionally pad the
// decoded text with whitespace or newlines.
func SessionID(s string) string {
	return strings.TrimSpace(s)
}
