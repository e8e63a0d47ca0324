package template

import "regexp"

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Render substitutes {{identifier}} tokens in template with values from vars.
// Tokens with no matching key are left verbatim so unresolved variables stay
// visible in the output instead of disappearing silently.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := tokenPattern.FindStringSubmatch(token)[1]
		if value, ok := vars[key]; ok {
			return value
		}
		return token
	})
}
