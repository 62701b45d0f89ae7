package suggest

import "testing"

func TestClosest(t *testing.T) {
	candidates := []string{"dist/index.mjs", "dist/index.cjs", "dist/utils/format.mjs"}
	tests := []struct {
		target   string
		expected string
	}{
		{"./dist/indx.mjs", "dist/index.mjs"},
		{"dist/index.js", "dist/index.mjs"},
		{"dist/utils/formt.mjs", "dist/utils/format.mjs"},
		{"lib/something/else.js", ""},
		{"dist/index.mjs", ""},
	}
	for _, tt := range tests {
		if got := Closest(tt.target, candidates); got != tt.expected {
			t.Fatalf("Closest(%q): expected %q, got %q", tt.target, tt.expected, got)
		}
	}
	if got := Closest("dist/index.mjs", nil); got != "" {
		t.Fatalf("Expected no suggestion without candidates, got %q", got)
	}
}

func TestAnnotate(t *testing.T) {
	warning := Annotate("Could not find entrypoint for `./dist/indx.mjs`", "./dist/indx.mjs", []string{"dist/index.mjs"})
	if warning != "Could not find entrypoint for `./dist/indx.mjs`, did you mean `dist/index.mjs`?" {
		t.Fatalf("Unexpected warning: %s", warning)
	}
}
