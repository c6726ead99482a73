package contact

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fields are the four submitted values after sanitizing.
type Fields struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitize normalizes raw form values. Name, phone and message are
// NFC-normalized, HTML-escaped and trimmed. Email keeps only the characters
// allowed in an address and is trimmed. It never fails.
func Sanitize(name, email, phone, message string) Fields {
	return Fields{
		Name:    escapeText(name),
		Email:   strings.TrimSpace(filterEmail(email)),
		Phone:   escapeText(phone),
		Message: escapeText(message),
	}
}

func escapeText(s string) string {
	return strings.TrimSpace(htmlEscaper.Replace(norm.NFC.String(s)))
}

// filterEmail drops every rune that is not an ASCII letter, digit or one of
// !#$%&'*+-=?^_`{|}~@.[]
func filterEmail(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("!#$%&'*+-=?^_`{|}~@.[]", r):
			return r
		}
		return -1
	}, s)
}
