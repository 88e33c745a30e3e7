// Package kdl implements the subset of the KDL document language used by
// tm's configuration files: nodes with arguments, properties and children,
// quoted and raw strings, numbers, keywords, type annotations, comments and
// slashdash. Both the v1 (bare true/false/null) and v2 (#true/#false/#null)
// keyword spellings are accepted. Every node and value carries the byte span
// it was parsed from so callers can report precise diagnostics.
package kdl

import (
	"fmt"
	"math"
	"strconv"
)

// Span is a byte range in the source document.
type Span struct {
	Offset int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Offset + s.Length }

// Kind identifies the type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt, KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is a KDL scalar.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Span  Span
}

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int creates an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float creates a floating point value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null creates a null value.
func Null() Value { return Value{Kind: KindNull} }

// AsFloat returns the numeric value of an int or float.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	}
	return 0, false
}

// Text renders the value as KDL source.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return quote(v.Str)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		switch {
		case math.IsInf(v.Float, 1):
			return "#inf"
		case math.IsInf(v.Float, -1):
			return "#-inf"
		case math.IsNaN(v.Float):
			return "#nan"
		}
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !containsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case KindBool:
		if v.Bool {
			return "#true"
		}
		return "#false"
	default:
		return "#null"
	}
}

// Prop is a key=value entry on a node.
type Prop struct {
	Name  string
	Value Value
	Span  Span
}

// Node is a KDL node.
type Node struct {
	Name     string
	NameSpan Span
	Args     []Value
	Props    []Prop
	Children []*Node
	// HasChildren distinguishes `node {}` from `node`.
	HasChildren bool
	Span        Span
}

// NewNode creates a node with the given arguments.
func NewNode(name string, args ...Value) *Node {
	return &Node{Name: name, Args: args}
}

// SetProp appends a property to the node.
func (n *Node) SetProp(name string, v Value) *Node {
	n.Props = append(n.Props, Prop{Name: name, Value: v})
	return n
}

// AddChild appends a child node.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	n.HasChildren = true
	return n
}

// Prop returns the last property with the given name.
func (n *Node) Prop(name string) (Prop, bool) {
	for i := len(n.Props) - 1; i >= 0; i-- {
		if n.Props[i].Name == name {
			return n.Props[i], true
		}
	}
	return Prop{}, false
}

// Child returns the first child with the given name.
func (n *Node) Child(name string) *Node {
	return find(n.Children, name)
}

// Document is a parsed KDL document.
type Document struct {
	Nodes []*Node
}

// Get returns the first top-level node with the given name.
func (d *Document) Get(name string) *Node {
	return find(d.Nodes, name)
}

func find(nodes []*Node, name string) *Node {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// ParseError reports a syntax error at a byte offset.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// Position converts a byte offset into a 1-based line and column.
func Position(src string, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(src) {
		offset = len(src)
	}
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// LineAt returns the full source line that contains offset, without the
// trailing newline.
func LineAt(src string, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(src) && src[end] != '\n' && src[end] != '\r' {
		end++
	}
	return src[start:end]
}

func containsAny(s, chars string) bool {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return true
			}
		}
	}
	return false
}
