package contact

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldRule constrains one form field. Zero lengths mean "no bound".
type FieldRule struct {
	MinLength int    `json:"min_length,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Required  bool   `json:"required"`

	re *regexp.Regexp
}

// Match reports whether v matches the rule's pattern. A rule without a
// pattern matches everything.
func (f FieldRule) Match(v string) bool {
	return f.re == nil || f.re.MatchString(v)
}

// Rules is the validation rule set for the contact form. The same value is
// enforced by the handler and served to the browser by /config.
type Rules struct {
	Name    FieldRule `json:"name"`
	Email   FieldRule `json:"email"`
	Message FieldRule `json:"message"`
	Phone   FieldRule `json:"phone"`
}

// DefaultRules returns the stock rules for the site's form.
func DefaultRules() Rules {
	return Rules{
		Name:    FieldRule{MinLength: 2, MaxLength: 100, Required: true},
		Email:   FieldRule{Required: true},
		Message: FieldRule{MinLength: 10, MaxLength: 2000, Required: true},
		Phone:   FieldRule{Pattern: `/^[0-9\s\-\+\(\)\.]{10,20}$/`, Required: false},
	}
}

// Compile checks the bounds and compiles the patterns. Patterns may be
// written with or without surrounding slashes; the browser strips them.
func (r *Rules) Compile() error {
	fields := []struct {
		name string
		rule *FieldRule
	}{
		{"name", &r.Name},
		{"email", &r.Email},
		{"message", &r.Message},
		{"phone", &r.Phone},
	}
	for _, f := range fields {
		if f.rule.MinLength < 0 || f.rule.MaxLength < 0 {
			return fmt.Errorf("contact: %s: lengths must be >= 0", f.name)
		}
		if f.rule.MaxLength > 0 && f.rule.MinLength > f.rule.MaxLength {
			return fmt.Errorf("contact: %s: min_length %d exceeds max_length %d", f.name, f.rule.MinLength, f.rule.MaxLength)
		}
		f.rule.re = nil
		if f.rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(stripDelimiters(f.rule.Pattern))
		if err != nil {
			return fmt.Errorf("contact: %s: bad pattern: %w", f.name, err)
		}
		f.rule.re = re
	}
	return nil
}

func stripDelimiters(p string) string {
	if len(p) >= 2 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") {
		return p[1 : len(p)-1]
	}
	return p
}

// Messages are the client-facing outcome texts.
type Messages struct {
	Success         string `json:"success"`
	ErrorGeneric    string `json:"error_generic"`
	ErrorValidation string `json:"error_validation"`
}

// DefaultMessages returns the stock French messages.
func DefaultMessages() Messages {
	return Messages{
		Success:         "Votre message a été envoyé avec succès! Je vous recontacterai dans les plus brefs délais.",
		ErrorGeneric:    "Erreur lors de l'envoi du message. Veuillez réessayer.",
		ErrorValidation: "Veuillez corriger les erreurs dans le formulaire",
	}
}
