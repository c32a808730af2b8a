package analysis

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"escaped newline and placeholder", `Hello\nundefinedWorld`, "Hello\nWorld"},
		{"surrounding whitespace", "  Sunny week ahead.  \n", "Sunny week ahead."},
		{"spliced placeholder", "undefundefinedined rain", "rain"},
		{"only placeholder", " undefined undefined ", ""},
		{"placeholder between spaces", "Cool undefined   nights", "Cool    nights"},
		{"no changes", "Mild and dry.", "Mild and dry."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.raw); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`Hello\nundefinedWorld`,
		`  \n undefined \n Rain \\n later undefined`,
		"undefundefinedined",
		"plain text",
		`\n\n\n`,
	}

	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("input %q: expected idempotent result %q, got %q", in, once, twice)
		}
		if strings.Contains(once, PlaceholderToken) {
			t.Fatalf("input %q: placeholder survived in %q", in, once)
		}
		if strings.Contains(once, `\n`) {
			t.Fatalf("input %q: escaped newline survived in %q", in, once)
		}
		if once != strings.TrimSpace(once) {
			t.Fatalf("input %q: result %q has edge whitespace", in, once)
		}
	}
}

func TestApplyCustomPasses(t *testing.T) {
	got := Apply("  N/A hot  ", RemoveToken("N/A"), strings.TrimSpace)
	if got != "hot" {
		t.Fatalf("expected %q, got %q", "hot", got)
	}

	if got := Apply("keep"); got != "keep" {
		t.Fatalf("expected no-op without passes, got %q", got)
	}
	if got := CollapseToken(PlaceholderToken)("a undefined\tb"); got != "ab" {
		t.Fatalf("expected token and surrounding whitespace removed, got %q", got)
	}
	if got := RemoveToken("")("abc"); got != "abc" {
		t.Fatalf("expected empty token to be a no-op, got %q", got)
	}
}
