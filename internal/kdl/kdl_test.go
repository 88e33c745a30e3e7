package kdl

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParse_Basic(t *testing.T) {
	src := `
// search space
paths {
    workspace "~/code" "~/work"
    single "~/notes"
}
depth 5
default_worktree #false
mux "tmux"
picker_mode { percentage 0.5 }
`
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(doc.Nodes) != 5 {
		t.Fatalf("Parse() nodes = %d, want 5", len(doc.Nodes))
	}

	paths := doc.Get("paths")
	if paths == nil || len(paths.Children) != 2 {
		t.Fatalf("paths children = %+v", paths)
	}

	ws := paths.Child("workspace")
	if len(ws.Args) != 2 || ws.Args[0].Str != "~/code" || ws.Args[1].Str != "~/work" {
		t.Errorf("workspace args = %+v", ws.Args)
	}

	depth := doc.Get("depth")
	if depth.Args[0].Kind != KindInt || depth.Args[0].Int != 5 {
		t.Errorf("depth = %+v, want int 5", depth.Args[0])
	}

	dw := doc.Get("default_worktree")
	if dw.Args[0].Kind != KindBool || dw.Args[0].Bool {
		t.Errorf("default_worktree = %+v, want #false", dw.Args[0])
	}

	pct := doc.Get("picker_mode").Child("percentage")
	if pct.Args[0].Kind != KindFloat || pct.Args[0].Float != 0.5 {
		t.Errorf("percentage = %+v, want 0.5", pct.Args[0])
	}
}

func TestParse_Semicolons(t *testing.T) {
	doc, err := Parse(`paths { workspace "~/code"; single "~/notes" }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	paths := doc.Get("paths")
	if paths.Child("workspace") == nil || paths.Child("single") == nil {
		t.Errorf("paths children = %+v", paths.Children)
	}
}

func TestParse_DashChildrenAndProps(t *testing.T) {
	src := `exclude_path default=#false {
    - "node_modules"
    - ".direnv"
}`
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	n := doc.Get("exclude_path")
	prop, ok := n.Prop("default")
	if !ok || prop.Value.Kind != KindBool || prop.Value.Bool {
		t.Errorf("default prop = %+v, %v", prop, ok)
	}

	if len(n.Children) != 2 || n.Children[0].Name != "-" || n.Children[1].Args[0].Str != ".direnv" {
		t.Errorf("children = %+v", n.Children)
	}
}

func TestParse_V1Keywords(t *testing.T) {
	doc, err := Parse("default_worktree true\nmux null\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if v := doc.Get("default_worktree").Args[0]; v.Kind != KindBool || !v.Bool {
		t.Errorf("true = %+v", v)
	}
	if v := doc.Get("mux").Args[0]; v.Kind != KindNull {
		t.Errorf("null = %+v", v)
	}
}

func TestParse_Values(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Value
	}{
		{"hex", "n 0xff", Value{Kind: KindInt, Int: 255}},
		{"octal", "n 0o17", Value{Kind: KindInt, Int: 15}},
		{"binary", "n 0b101", Value{Kind: KindInt, Int: 5}},
		{"underscores", "n 1_000", Value{Kind: KindInt, Int: 1000}},
		{"negative", "n -3", Value{Kind: KindInt, Int: -3}},
		{"exponent", "n 1.5e2", Value{Kind: KindFloat, Float: 150}},
		{"raw v2", `n #"C:\path"#`, Value{Kind: KindString, Str: `C:\path`}},
		{"raw v1", `n r#"say "hi""#`, Value{Kind: KindString, Str: `say "hi"`}},
		{"escapes", `n "a\tb\n\u{e9}"`, Value{Kind: KindString, Str: "a\tb\né"}},
		{"bare ident", "n tmux", Value{Kind: KindString, Str: "tmux"}},
		{"type annotation", "n (u8)40", Value{Kind: KindInt, Int: 40}},
		{"null", "n #null", Value{Kind: KindNull}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := doc.Nodes[0].Args[0]
			got.Span = Span{}
			if got != tt.want {
				t.Errorf("value = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_Inf(t *testing.T) {
	doc, err := Parse("n #inf #-inf #nan")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	args := doc.Nodes[0].Args
	if !math.IsInf(args[0].Float, 1) || !math.IsInf(args[1].Float, -1) || !math.IsNaN(args[2].Float) {
		t.Errorf("args = %+v", args)
	}
}

func TestParse_Comments(t *testing.T) {
	src := `/* block /* nested */ comment */
/-depth 3
depth /-9 5 // trailing
mux \
    "zellij"
paths /-{ workspace "x" } {
    single "y"
}
`
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(doc.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(doc.Nodes))
	}

	depth := doc.Get("depth")
	if len(depth.Args) != 1 || depth.Args[0].Int != 5 {
		t.Errorf("depth args = %+v", depth.Args)
	}

	if doc.Get("mux").Args[0].Str != "zellij" {
		t.Errorf("mux = %+v", doc.Get("mux").Args)
	}

	paths := doc.Get("paths")
	if paths.Child("workspace") != nil || paths.Child("single") == nil {
		t.Errorf("paths children = %+v", paths.Children)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		at   int
	}{
		{"unclosed block", "paths {\n  workspace \"x\"\n", 6},
		{"unterminated string", `mux "tmux`, 4},
		{"stray brace", "}", 0},
		{"bad keyword", "n #yes", 2},
		{"bad number", "n 12abc", 2},
		{"keyword node name", "true 1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if perr.Offset != tt.at {
				t.Errorf("offset = %d, want %d (%s)", perr.Offset, tt.at, perr.Msg)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	src := "depth 5\nmux \"tmux\"\n"
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	mux := doc.Get("mux")
	v := mux.Args[0]
	if got := src[v.Span.Offset:v.Span.End()]; got != `"tmux"` {
		t.Errorf("value span text = %q", got)
	}

	if got := src[mux.Span.Offset:mux.Span.End()]; got != `mux "tmux"` {
		t.Errorf("node span text = %q", got)
	}

	line, col := Position(src, v.Span.Offset)
	if line != 2 || col != 5 {
		t.Errorf("Position() = %d:%d, want 2:5", line, col)
	}

	if got := LineAt(src, v.Span.Offset); got != `mux "tmux"` {
		t.Errorf("LineAt() = %q", got)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	single := NewNode("single").SetProp("default", Bool(false))
	single.HasChildren = true
	paths := NewNode("paths").
		AddChild(NewNode("workspace").AddChild(NewNode("-", String("~/code")))).
		AddChild(single)
	doc := &Document{Nodes: []*Node{
		paths,
		NewNode("depth", Int(5)),
		NewNode("picker_mode").AddChild(NewNode("percentage", Float(0.5))),
		NewNode("exact", Bool(false)),
		NewNode("name with space", String(`quote " and \ slash`)),
		NewNode("ratio", Float(1)),
	}}

	text := doc.String()
	if !strings.Contains(text, "depth 5\n") || !strings.Contains(text, "    percentage 0.5\n") {
		t.Errorf("String() = %s", text)
	}
	if !strings.Contains(text, "single default=#false {}") {
		t.Errorf("String() should keep empty children block: %s", text)
	}

	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(String()) error = %v\n%s", err, text)
	}

	if back.String() != text {
		t.Errorf("round trip mismatch:\n%s\nvs\n%s", back.String(), text)
	}

	if v := back.Get("ratio").Args[0]; v.Kind != KindFloat || v.Float != 1 {
		t.Errorf("ratio = %+v, want float 1", v)
	}

	if v := back.Get("name with space").Args[0]; v.Str != `quote " and \ slash` {
		t.Errorf("escaped string = %q", v.Str)
	}
}
