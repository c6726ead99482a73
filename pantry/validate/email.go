// pantry/validate/email.go
package validate

import (
	"net/mail"
	"strings"
)

// EmailValid reports whether s is a bare local@domain address: it must parse
// as an RFC 5322 address with no display name, stay within the RFC 5321
// length limits, and have a dotted domain without empty labels.
// Local-only domains such as "user@localhost" are rejected.
func EmailValid(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}

	at := strings.LastIndexByte(s, '@')
	local, domain := s[:at], s[at+1:]
	if local == "" || len(local) > 64 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}
