package templates

import (
	"reflect"
	"testing"

	"github.com/ib-outreach/backend/internal/models"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text, no placeholders", nil},
		{"single", "Hi {{name}}", []string{"name"}},
		{"duplicates collapsed", "Hi {{name}}, {{name}} again", []string{"name"}},
		{"first occurrence order", "{{b}} then {{a}} then {{b}}", []string{"b", "a"}},
		{"word chars only", "{{first_name}} at {{bank_name}}", []string{"first_name", "bank_name"}},
		{"malformed single brace", "keep {name} and { {x} } alone", nil},
		{"empty braces", "{{}} is not a placeholder", nil},
		{"space inside", "{{bad name}} is ignored", nil},
		{"mixed", "{{school}} student, see {school} and {{year}}", []string{"school", "year"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractVariablesIdempotent(t *testing.T) {
	text := "Dear {{banker_name}}, I am {{your_name}} from {{school}}. Thanks, {{your_name}}"
	first := ExtractVariables(text)
	second := ExtractVariables(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not idempotent: %v vs %v", first, second)
	}
}

func TestFill(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars models.Variables
		want string
	}{
		{"basic", "Hi {{name}}", models.Variables{"name": "Ana"}, "Hi Ana"},
		{"repeated placeholder", "{{name}}, yes {{name}}", models.Variables{"name": "Ana"}, "Ana, yes Ana"},
		{"missing blanks out", "Hi {{name}}", models.Variables{}, "Hi "},
		{"nil map blanks out", "Hi {{name}}", nil, "Hi "},
		{"empty value", "Hi {{name}}!", models.Variables{"name": ""}, "Hi !"},
		{"extra keys are no-ops", "Hi {{name}}", models.Variables{"name": "Ana", "school": "NYU"}, "Hi Ana"},
		{"no partial match", "{{nam}} and {{name}}", models.Variables{"name": "Ana"}, " and Ana"},
		{"no placeholders", "nothing to do", models.Variables{"name": "Ana"}, "nothing to do"},
		{"malformed left alone", "{name} {{name}}", models.Variables{"name": "Ana"}, "{name} Ana"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fill(tt.text, tt.vars)
			if got != tt.want {
				t.Fatalf("Fill(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
