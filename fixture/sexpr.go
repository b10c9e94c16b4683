package fixture

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node.
type NodeType int

const (
	NodeAtom NodeType = iota
	NodeQuoted
	NodeEllipsis
	NodeList
)

// Node is one datum of a typed-tree dump or of an expected pattern.
type Node struct {
	Type NodeType
	// Text holds atoms and quoted literals verbatim, quotes and escapes included.
	Text  string
	Items []*Node
}

func (n *Node) String() string {
	switch n.Type {
	case NodeEllipsis:
		return "..."
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return n.Text
	}
}

// ParseSexprs parses a sequence of top-level data.
func ParseSexprs(input string) ([]*Node, error) {
	p := &sexprParser{lexer: &sexprLexer{input: input}}
	p.nextToken()

	var nodes []*Node
	for p.current.Type != tokenEOF {
		node, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if p.lexer.err != nil {
		return nil, p.lexer.err
	}
	return nodes, nil
}

// MatchSexprs checks a dump against an expected pattern. Inside a list, or
// at the top level, "..." matches any number of items.
func MatchSexprs(pattern, actual string) error {
	want, err := ParseSexprs(pattern)
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	got, err := ParseSexprs(actual)
	if err != nil {
		return fmt.Errorf("actual: %w", err)
	}
	if !matchItems(want, got) {
		return fmt.Errorf("mismatch:\nwant: %s\ngot:  %s", joinNodes(want), joinNodes(got))
	}
	return nil
}

func matchNode(want, got *Node) bool {
	if want.Type != got.Type {
		return false
	}
	if want.Type == NodeList {
		return matchItems(want.Items, got.Items)
	}
	return want.Text == got.Text
}

func matchItems(want, got []*Node) bool {
	if len(want) == 0 {
		return len(got) == 0
	}
	if want[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(got); skip++ {
			if matchItems(want[1:], got[skip:]) {
				return true
			}
		}
		return false
	}
	return len(got) > 0 && matchNode(want[0], got[0]) && matchItems(want[1:], got[1:])
}

func joinNodes(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

type sexprParser struct {
	lexer   *sexprLexer
	current sexprToken
}

func (p *sexprParser) nextToken() {
	p.current = p.lexer.nextToken()
}

func (p *sexprParser) parseDatum() (*Node, error) {
	tok := p.current
	switch tok.Type {
	case tokenAtom:
		p.nextToken()
		if tok.Value == "..." {
			return &Node{Type: NodeEllipsis}, nil
		}
		return &Node{Type: NodeAtom, Text: tok.Value}, nil
	case tokenQuoted:
		p.nextToken()
		return &Node{Type: NodeQuoted, Text: tok.Value}, nil
	case tokenLParen:
		return p.parseList()
	default:
		if p.lexer.err != nil {
			return nil, p.lexer.err
		}
		return nil, fmt.Errorf("offset %d: unexpected %s", tok.Position, tok.Type)
	}
}

func (p *sexprParser) parseList() (*Node, error) {
	p.nextToken() // consume '('
	list := &Node{Type: NodeList}
	for p.current.Type != tokenRParen && p.current.Type != tokenEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
	if p.current.Type != tokenRParen {
		if p.lexer.err != nil {
			return nil, p.lexer.err
		}
		return nil, fmt.Errorf("offset %d: expected ')' but got %s", p.current.Position, p.current.Type)
	}
	p.nextToken() // consume ')'
	return list, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenLParen
	tokenRParen
	tokenAtom
	tokenQuoted
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenAtom:
		return "atom"
	case tokenQuoted:
		return "quoted literal"
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type sexprToken struct {
	Type     tokenType
	Value    string
	Position int
}

type sexprLexer struct {
	input    string
	position int
	err      error
}

func (l *sexprLexer) nextToken() sexprToken {
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch {
		case unicode.IsSpace(rune(c)):
			l.position++
		case c == ';':
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}
		default:
			return l.readToken()
		}
	}
	return sexprToken{Type: tokenEOF, Position: l.position}
}

func (l *sexprLexer) readToken() sexprToken {
	start := l.position
	switch c := l.input[start]; c {
	case '(':
		l.position++
		return sexprToken{Type: tokenLParen, Value: "(", Position: start}
	case ')':
		l.position++
		return sexprToken{Type: tokenRParen, Value: ")", Position: start}
	case '"', '\'':
		l.position++
		for l.position < len(l.input) && l.input[l.position] != c {
			if l.input[l.position] == '\\' {
				l.position++
			}
			l.position++
		}
		if l.position >= len(l.input) {
			l.err = fmt.Errorf("offset %d: unterminated literal", start)
			return sexprToken{Type: tokenEOF, Position: start}
		}
		l.position++
		return sexprToken{Type: tokenQuoted, Value: l.input[start:l.position], Position: start}
	}
	for l.position < len(l.input) && isAtomChar(l.input[l.position]) {
		l.position++
	}
	return sexprToken{Type: tokenAtom, Value: l.input[start:l.position], Position: start}
}

func isAtomChar(c byte) bool {
	return !unicode.IsSpace(rune(c)) && c != '(' && c != ')' && c != '"' && c != ';'
}
