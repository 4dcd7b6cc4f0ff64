package templates

import (
	"regexp"

	"github.com/ib-outreach/backend/internal/models"
)

// placeholderRe matches well-formed {{name}} tokens. Stray single braces
// and empty {{}} are not placeholders.
var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractVariables returns the distinct placeholder names in text, ordered
// by first occurrence. Text without placeholders yields nil.
func ExtractVariables(text string) []string {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Fill substitutes every {{name}} placeholder in text with vars[name].
// Names absent from vars become the empty string; text without placeholders
// is returned unchanged. Fill never fails.
func Fill(text string, vars models.Variables) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[2 : len(tok)-2]
		return vars[name]
	})
}
