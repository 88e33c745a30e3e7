package config

import (
	"fmt"
	"strings"

	"github.com/undrift/tuxmux/internal/kdl"
)

// Diagnostic is a configuration error pinned to a location in a file.
type Diagnostic struct {
	Path    string
	Line    int
	Column  int
	Length  int
	Message string
	// Source is the full text of the offending line.
	Source string
}

func (d *Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Path, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Line, d.Column, d.Message)
}

// Snippet renders the offending source line with a caret under the span.
func (d *Diagnostic) Snippet() string {
	if d.Line == 0 || d.Source == "" {
		return ""
	}

	gutter := fmt.Sprintf("%d", d.Line)
	pad := strings.Repeat(" ", len(gutter))

	col := d.Column
	if col < 1 {
		col = 1
	}
	width := d.Length
	if width < 1 {
		width = 1
	}
	if rest := len([]rune(d.Source)) - (col - 1); rest > 0 && width > rest {
		width = rest
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s |\n", pad)
	fmt.Fprintf(&b, "%s | %s\n", gutter, d.Source)
	fmt.Fprintf(&b, "%s | %s%s", pad, strings.Repeat(" ", col-1), strings.Repeat("^", width))
	return b.String()
}

// spanDiagnostic builds a diagnostic from a byte span in src.
func spanDiagnostic(path, src string, span kdl.Span, format string, args ...any) *Diagnostic {
	line, col := kdl.Position(src, span.Offset)
	text := src[min(span.Offset, len(src)):min(span.End(), len(src))]
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	length := len([]rune(text))
	return &Diagnostic{
		Path:    path,
		Line:    line,
		Column:  col,
		Length:  length,
		Message: fmt.Sprintf(format, args...),
		Source:  kdl.LineAt(src, span.Offset),
	}
}

// lineDiagnostic builds a diagnostic for a 1-based line number.
func lineDiagnostic(path, src string, line int, format string, args ...any) *Diagnostic {
	d := &Diagnostic{Path: path, Line: line, Column: 1, Message: fmt.Sprintf(format, args...)}
	lines := strings.Split(src, "\n")
	if line >= 1 && line <= len(lines) {
		d.Source = strings.TrimRight(lines[line-1], "\r")
		trimmed := strings.TrimLeft(d.Source, " \t")
		d.Column = len(d.Source) - len(trimmed) + 1
		d.Length = len([]rune(strings.TrimRight(trimmed, " \t")))
	}
	return d
}

// keyLine finds the first line that assigns or opens key in a TOML or YAML
// document. It returns 0 when the key cannot be located.
func keyLine(src, key string) int {
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "["+key+"]" || line == "[["+key+"]]":
			return i + 1
		case strings.HasPrefix(line, key):
			rest := strings.TrimSpace(line[len(key):])
			if strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, ":") {
				return i + 1
			}
		}
	}
	return 0
}
