package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestColorFunctions(t *testing.T) {
	tests := []struct {
		name    string
		colorFn func(...any) string
	}{
		{"Green", Green},
		{"Yellow", Yellow},
		{"Red", Red},
		{"Blue", Blue},
		{"Cyan", Cyan},
		{"Bold", Bold},
		{"Dim", Dim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.colorFn("test"); !strings.Contains(got, "test") {
				t.Errorf("%s() = %q, want it to contain the input", tt.name, got)
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "All checks passed")
	if !strings.Contains(buf.String(), "✓ All checks passed") {
		t.Errorf("Success() wrote %q", buf.String())
	}
}

func TestStatusLinesGoToStderr(t *testing.T) {
	var buf bytes.Buffer
	old := Stderr
	Stderr = &buf
	defer func() { Stderr = old }()

	Error("boom 1")
	Warningf("careful %s", "now")
	Infof("note %d", 2)
	Hint("try again")

	out := buf.String()
	for _, want := range []string{"Error:", "boom 1", "careful now", "note 2", "try again"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr = %q, missing %q", out, want)
		}
	}
}
