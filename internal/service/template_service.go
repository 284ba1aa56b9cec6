// internal/service/template_service.go
package service

import (
	"strings"
)

// RenderTemplate substitutes {{key}} and {key} tokens from data. Tokens with
// no matching key are left as written, and substituted values are never
// rescanned.
func RenderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*4)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
