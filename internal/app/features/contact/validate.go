package contact

import (
	"fmt"
	"unicode/utf8"

	"github.com/dalemusser/contactd/pantry/validate"
)

// Result is the outcome of Validate. The zero value means success.
type Result struct {
	Field  string
	Reason string
}

// OK reports whether validation passed.
func (r Result) OK() bool { return r.Field == "" }

func failed(field, reason string, args ...any) Result {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return Result{Field: field, Reason: reason}
}

// Validate checks f against rules and returns the first failure, in this
// order: required name, email, message; name length; message length; email
// format; phone pattern (only when a phone was given). Lengths count runes
// of the sanitized value.
func Validate(f Fields, rules Rules) Result {
	switch {
	case rules.Name.Required && f.Name == "":
		return failed("name", "Le nom est obligatoire")
	case rules.Email.Required && f.Email == "":
		return failed("email", "L'email est obligatoire")
	case rules.Message.Required && f.Message == "":
		return failed("message", "Le message est obligatoire")
	}

	if r := checkLength("name", "Le nom", f.Name, rules.Name); !r.OK() {
		return r
	}
	if r := checkLength("message", "Le message", f.Message, rules.Message); !r.OK() {
		return r
	}

	if !validate.EmailValid(f.Email) {
		return failed("email", "Adresse email invalide")
	}
	if f.Phone != "" && !rules.Phone.Match(f.Phone) {
		return failed("phone", "Format de téléphone invalide")
	}
	return Result{}
}

func checkLength(field, label, v string, rule FieldRule) Result {
	n := utf8.RuneCountInString(v)
	if rule.MinLength > 0 && n < rule.MinLength {
		return failed(field, "%s doit contenir au moins %d caractères", label, rule.MinLength)
	}
	if rule.MaxLength > 0 && n > rule.MaxLength {
		return failed(field, "%s ne peut pas dépasser %d caractères", label, rule.MaxLength)
	}
	return Result{}
}
