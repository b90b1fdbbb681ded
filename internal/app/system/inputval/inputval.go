// Package inputval validates user-supplied input fields.
package inputval

import "strings"

// MaxEmailLength follows the RFC 5321 path limit.
const MaxEmailLength = 254

// IsValidEmail reports whether s looks like a usable email address.
// Single-label domains are accepted so dev and test environments with
// hostnames like "mailserver" keep working.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxEmailLength {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	local, domain := s[:at], s[at+1:]
	if !validLocalPart(local) {
		return false
	}
	return validDomain(domain)
}

func validLocalPart(local string) bool {
	if local == "" || len(local) > 64 {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("!#$%&'*+-/=?^_`{|}~.", r):
		default:
			return false
		}
	}
	return true
}

func validDomain(domain string) bool {
	if domain == "" {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
	}
	return true
}
