package kdl

import (
	"fmt"
	"strings"
	"unicode"
)

// String renders the document as KDL v2 text.
func (d *Document) String() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		writeNode(&b, n, 0)
	}
	return b.String()
}

// String renders a single node and its children.
func (n *Node) String() string {
	var b strings.Builder
	writeNode(&b, n, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("    ", depth)
	b.WriteString(indent)
	b.WriteString(ident(n.Name))
	for _, a := range n.Args {
		b.WriteByte(' ')
		b.WriteString(a.Text())
	}
	for _, p := range n.Props {
		b.WriteByte(' ')
		b.WriteString(ident(p.Name))
		b.WriteByte('=')
		b.WriteString(p.Value.Text())
	}
	if n.HasChildren || len(n.Children) > 0 {
		if len(n.Children) == 0 {
			b.WriteString(" {}\n")
			return
		}
		b.WriteString(" {\n")
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("}")
	}
	b.WriteByte('\n')
}

// ident renders s bare when it is a valid identifier, quoted otherwise.
func ident(s string) string {
	if s == "" || isKeyword(s) || startsNumber(s) {
		return quote(s)
	}
	for _, r := range s {
		if !isIdentChar(r) {
			return quote(s)
		}
	}
	if s[0] == '#' {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if !unicode.IsPrint(r) {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
