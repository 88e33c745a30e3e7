package kdl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse parses a KDL document.
func Parse(src string) (*Document, error) {
	p := &parser{src: src}
	if strings.HasPrefix(src, "\uFEFF") {
		p.pos = len("\uFEFF")
	}
	nodes, err := p.nodes(false)
	if err != nil {
		return nil, err
	}
	return &Document{Nodes: nodes}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) advance() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func isNewline(r rune) bool {
	switch r {
	case '\n', '\r', '\u0085', '\u000C', '\u2028', '\u2029':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	return r == '\uFEFF' || (r != -1 && !isNewline(r) && unicode.IsSpace(r))
}

func isIdentChar(r rune) bool {
	if r == -1 || isSpace(r) || isNewline(r) {
		return false
	}
	switch r {
	case '\\', '/', '(', ')', '{', '}', '<', '>', ';', '[', ']', '=', ',', '"':
		return false
	}
	return unicode.IsPrint(r)
}

// nodes parses a sequence of nodes until EOF or, inside a block, a closing
// brace (left unconsumed). An unclosed block is reported by children.
func (p *parser) nodes(inBlock bool) ([]*Node, error) {
	var out []*Node
	for {
		if err := p.skipLineSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return out, nil
		}
		if p.peek() == '}' {
			if inBlock {
				return out, nil
			}
			return nil, p.errorf(p.pos, "unexpected '}'")
		}

		slashdash := false
		if p.hasPrefix("/-") {
			p.pos += 2
			if err := p.skipLineSpace(); err != nil {
				return nil, err
			}
			slashdash = true
		}

		node, err := p.node()
		if err != nil {
			return nil, err
		}
		if !slashdash {
			out = append(out, node)
		}
	}
}

// skipLineSpace skips whitespace, newlines, semicolons and comments between
// nodes.
func (p *parser) skipLineSpace() error {
	for !p.eof() {
		r := p.peek()
		switch {
		case isSpace(r) || isNewline(r) || r == ';':
			p.advance()
		case p.hasPrefix("//"):
			p.skipLineComment()
		case p.hasPrefix("/*"):
			if err := p.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// skipNodeSpace skips whitespace, block comments and line continuations
// inside a node. It reports whether anything was skipped.
func (p *parser) skipNodeSpace() (bool, error) {
	start := p.pos
	for !p.eof() {
		r := p.peek()
		switch {
		case isSpace(r):
			p.advance()
		case p.hasPrefix("/*"):
			if err := p.skipBlockComment(); err != nil {
				return false, err
			}
		case r == '\\':
			p.advance()
			for isSpace(p.peek()) {
				p.advance()
			}
			if p.hasPrefix("//") {
				p.skipLineComment()
				continue
			}
			if p.eof() {
				continue
			}
			if !isNewline(p.peek()) {
				return false, p.errorf(p.pos, "expected newline after line continuation")
			}
			p.skipNewline()
		default:
			return p.pos > start, nil
		}
	}
	return p.pos > start, nil
}

func (p *parser) skipNewline() {
	if p.hasPrefix("\r\n") {
		p.pos += 2
		return
	}
	p.advance()
}

func (p *parser) skipLineComment() {
	for !p.eof() && !isNewline(p.peek()) {
		p.advance()
	}
}

func (p *parser) skipBlockComment() error {
	start := p.pos
	p.pos += 2
	depth := 1
	for depth > 0 {
		if p.eof() {
			return p.errorf(start, "unterminated block comment")
		}
		switch {
		case p.hasPrefix("/*"):
			p.pos += 2
			depth++
		case p.hasPrefix("*/"):
			p.pos += 2
			depth--
		default:
			p.advance()
		}
	}
	return nil
}

func (p *parser) skipTypeAnnotation() error {
	if p.peek() != '(' {
		return nil
	}
	start := p.pos
	p.advance()
	if _, _, err := p.identOrString(); err != nil {
		return err
	}
	if p.peek() != ')' {
		return p.errorf(start, "unterminated type annotation")
	}
	p.advance()
	return nil
}

func (p *parser) node() (*Node, error) {
	start := p.pos
	if err := p.skipTypeAnnotation(); err != nil {
		return nil, err
	}

	nameStart := p.pos
	name, bare, err := p.identOrString()
	if err != nil {
		return nil, err
	}
	if bare && isKeyword(name) {
		return nil, p.errorf(nameStart, "keyword %q cannot be used as a node name", name)
	}
	node := &Node{Name: name, NameSpan: Span{nameStart, p.pos - nameStart}}
	end := p.pos

	for {
		spaced, err := p.skipNodeSpace()
		if err != nil {
			return nil, err
		}
		if p.eof() {
			break
		}

		r := p.peek()
		if isNewline(r) || r == ';' {
			p.skipNewline()
			break
		}
		if r == '}' {
			break
		}
		if p.hasPrefix("//") {
			p.skipLineComment()
			break
		}

		if p.hasPrefix("/-") {
			p.pos += 2
			if _, err := p.skipNodeSpace(); err != nil {
				return nil, err
			}
			if p.peek() == '{' {
				if _, err := p.children(); err != nil {
					return nil, err
				}
				continue
			}
			if _, _, err := p.entry(); err != nil {
				return nil, err
			}
			continue
		}

		if r == '{' {
			children, err := p.children()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, children...)
			node.HasChildren = true
			end = p.pos
			continue
		}

		if !spaced {
			return nil, p.errorf(p.pos, "expected whitespace before entry")
		}
		if node.HasChildren {
			return nil, p.errorf(p.pos, "entries must come before children")
		}

		prop, isProp, err := p.entry()
		if err != nil {
			return nil, err
		}
		if isProp {
			node.Props = append(node.Props, prop)
		} else {
			node.Args = append(node.Args, prop.Value)
		}
		end = p.pos
	}

	node.Span = Span{start, end - start}
	return node, nil
}

func (p *parser) children() ([]*Node, error) {
	open := p.pos
	p.advance()
	nodes, err := p.nodes(true)
	if err != nil {
		return nil, err
	}
	if p.peek() != '}' {
		return nil, p.errorf(open, "unclosed '{'")
	}
	p.advance()
	return nodes, nil
}

// entry parses an argument or property. For arguments the value is returned
// in Prop.Value with an empty name.
func (p *parser) entry() (Prop, bool, error) {
	start := p.pos
	if err := p.skipTypeAnnotation(); err != nil {
		return Prop{}, false, err
	}

	r := p.peek()
	if r == '"' || (isIdentChar(r) && !startsNumber(p.src[p.pos:]) && r != '#') {
		tokStart := p.pos
		text, bare, err := p.identOrString()
		if err != nil {
			return Prop{}, false, err
		}
		if p.peek() == '=' {
			p.advance()
			if err := p.skipTypeAnnotation(); err != nil {
				return Prop{}, false, err
			}
			v, err := p.value()
			if err != nil {
				return Prop{}, false, err
			}
			return Prop{Name: text, Value: v, Span: Span{start, p.pos - start}}, true, nil
		}

		v := Value{Kind: KindString, Str: text, Span: Span{tokStart, p.pos - tokStart}}
		if bare {
			switch text {
			case "true", "false":
				v = Value{Kind: KindBool, Bool: text == "true", Span: v.Span}
			case "null":
				v = Value{Kind: KindNull, Span: v.Span}
			}
		}
		return Prop{Value: v, Span: v.Span}, false, nil
	}

	v, err := p.value()
	if err != nil {
		return Prop{}, false, err
	}
	return Prop{Value: v, Span: Span{start, p.pos - start}}, false, nil
}

func isKeyword(s string) bool {
	switch s {
	case "true", "false", "null", "inf", "-inf", "nan":
		return true
	}
	return false
}

func startsNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s != "" && s[0] == '.' {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func (p *parser) value() (Value, error) {
	start := p.pos
	r := p.peek()

	switch {
	case r == -1:
		return Value{}, p.errorf(start, "expected value")
	case r == '"':
		s, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: s, Span: Span{start, p.pos - start}}, nil
	case r == '#':
		return p.hashValue()
	case r == 'r' && (p.hasPrefix(`r"`) || p.hasPrefix(`r#`)):
		p.advance()
		s, err := p.raw()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: s, Span: Span{start, p.pos - start}}, nil
	case startsNumber(p.src[p.pos:]):
		return p.number()
	case isIdentChar(r):
		s, _, err := p.identOrString()
		if err != nil {
			return Value{}, err
		}
		v := Value{Kind: KindString, Str: s, Span: Span{start, p.pos - start}}
		switch s {
		case "true", "false":
			v = Value{Kind: KindBool, Bool: s == "true", Span: v.Span}
		case "null":
			v = Value{Kind: KindNull, Span: v.Span}
		}
		return v, nil
	}
	return Value{}, p.errorf(start, "unexpected character %q", r)
}

func (p *parser) hashValue() (Value, error) {
	start := p.pos
	rest := p.src[p.pos:]
	n := 0
	for n < len(rest) && rest[n] == '#' {
		n++
	}
	if n < len(rest) && rest[n] == '"' {
		s, err := p.raw()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: s, Span: Span{start, p.pos - start}}, nil
	}

	p.advance()
	word := p.bare()
	span := Span{start, p.pos - start}
	switch word {
	case "true":
		return Value{Kind: KindBool, Bool: true, Span: span}, nil
	case "false":
		return Value{Kind: KindBool, Bool: false, Span: span}, nil
	case "null":
		return Value{Kind: KindNull, Span: span}, nil
	case "inf":
		return Value{Kind: KindFloat, Float: math.Inf(1), Span: span}, nil
	case "-inf":
		return Value{Kind: KindFloat, Float: math.Inf(-1), Span: span}, nil
	case "nan":
		return Value{Kind: KindFloat, Float: math.NaN(), Span: span}, nil
	}
	return Value{}, p.errorf(start, "unknown keyword #%s", word)
}

func (p *parser) bare() string {
	start := p.pos
	for isIdentChar(p.peek()) {
		p.advance()
	}
	return p.src[start:p.pos]
}

func (p *parser) number() (Value, error) {
	start := p.pos
	tok := p.bare()
	span := Span{start, p.pos - start}
	clean := strings.ReplaceAll(tok, "_", "")

	sign := ""
	body := clean
	if body != "" && (body[0] == '+' || body[0] == '-') {
		sign, body = body[:1], body[1:]
	}
	if sign == "+" {
		sign = ""
	}

	base := 0
	switch {
	case strings.HasPrefix(body, "0x"):
		base = 16
	case strings.HasPrefix(body, "0o"):
		base = 8
	case strings.HasPrefix(body, "0b"):
		base = 2
	}
	if base != 0 {
		i, err := strconv.ParseInt(sign+body[2:], base, 64)
		if err != nil {
			return Value{}, p.errorf(start, "invalid number %q", tok)
		}
		return Value{Kind: KindInt, Int: i, Span: span}, nil
	}

	if strings.ContainsAny(body, ".eE") {
		f, err := strconv.ParseFloat(sign+body, 64)
		if err != nil {
			return Value{}, p.errorf(start, "invalid number %q", tok)
		}
		return Value{Kind: KindFloat, Float: f, Span: span}, nil
	}

	i, err := strconv.ParseInt(sign+body, 10, 64)
	if err != nil {
		return Value{}, p.errorf(start, "invalid number %q", tok)
	}
	return Value{Kind: KindInt, Int: i, Span: span}, nil
}

// identOrString parses a node name or property key. bare reports whether it
// was an unquoted identifier.
func (p *parser) identOrString() (string, bool, error) {
	start := p.pos
	switch {
	case p.peek() == '"':
		s, err := p.quoted()
		return s, false, err
	case p.peek() == '#' || p.hasPrefix(`r"`) || p.hasPrefix(`r#"`):
		if p.peek() == 'r' {
			p.advance()
		}
		s, err := p.raw()
		return s, false, err
	}

	if startsNumber(p.src[p.pos:]) {
		return "", false, p.errorf(start, "identifier cannot start with a digit")
	}
	s := p.bare()
	if s == "" {
		if p.eof() {
			return "", false, p.errorf(start, "unexpected end of input")
		}
		return "", false, p.errorf(start, "unexpected character %q", p.peek())
	}
	return s, true, nil
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	if p.hasPrefix(`"""`) {
		return "", p.errorf(start, "multi-line strings are not supported")
	}
	p.advance()

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf(start, "unterminated string")
		}
		r := p.advance()
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	at := p.pos - 1
	if p.eof() {
		return p.errorf(at, "unterminated escape")
	}
	r := p.advance()
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case '\\':
		b.WriteByte('\\')
	case '"':
		b.WriteByte('"')
	case '/':
		b.WriteByte('/')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 's':
		b.WriteByte(' ')
	case 'u':
		if p.peek() != '{' {
			return p.errorf(at, "invalid unicode escape")
		}
		p.advance()
		hexStart := p.pos
		for !p.eof() && p.peek() != '}' {
			p.advance()
		}
		if p.eof() {
			return p.errorf(at, "unterminated unicode escape")
		}
		code, err := strconv.ParseUint(p.src[hexStart:p.pos], 16, 32)
		p.advance()
		if err != nil || !utf8.ValidRune(rune(code)) {
			return p.errorf(at, "invalid unicode escape")
		}
		b.WriteRune(rune(code))
	default:
		if isSpace(r) || isNewline(r) {
			for isSpace(p.peek()) || isNewline(p.peek()) {
				p.advance()
			}
			return nil
		}
		return p.errorf(at, "invalid escape '\\%c'", r)
	}
	return nil
}

// raw parses #"..."# (v2) or the part after 'r' of r#"..."# (v1).
func (p *parser) raw() (string, error) {
	start := p.pos
	hashes := 0
	for p.peek() == '#' {
		p.advance()
		hashes++
	}
	if p.peek() != '"' {
		return "", p.errorf(start, "invalid raw string")
	}
	if p.hasPrefix(`"""`) {
		return "", p.errorf(start, "multi-line strings are not supported")
	}
	p.advance()

	closing := `"` + strings.Repeat("#", hashes)
	end := strings.Index(p.src[p.pos:], closing)
	if end < 0 {
		return "", p.errorf(start, "unterminated raw string")
	}
	s := p.src[p.pos : p.pos+end]
	p.pos += end + len(closing)
	return s, nil
}
