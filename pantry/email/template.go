// pantry/email/template.go
package email

import "strings"

// Render replaces every {key} in tpl with vars[key]. Substituted values are
// inserted verbatim and never rescanned; unknown placeholders are left as is.
func Render(tpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
