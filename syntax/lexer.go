package syntax

import (
	"fmt"
	"unicode/utf8"
)

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT    TokenType = "IDENT"
	KEYWORD  TokenType = "KEYWORD"
	NUMBER   TokenType = "NUMBER"
	STRING   TokenType = "STRING"
	CHAR     TokenType = "CHAR"
	OPERATOR TokenType = "OPERATOR"
)

var keywords = map[string]bool{
	"let":    true,
	"fn":     true,
	"ref":    true,
	"while":  true,
	"true":   true,
	"false":  true,
	"set":    true,
	"vec":    true,
	"if":     true,
	"else":   true,
	"is":     true,
	"isnt":   true,
	"return": true,
	"enum":   true,
	"struct": true,
	"expect": true,
}

// two-character operators; every other operator is a single character
var longOperators = map[string]bool{
	"&&": true,
	"||": true,
	"++": true,
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
	"->": true,
}

const singleOperators = "(){}[]=;:,.&|<>+-*!"

type Token struct {
	Type    TokenType
	Literal string // identifier/keyword/operator text, or the decoded string literal
	Char    rune   // only meaningful when Type == CHAR
	Pos     Pos
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string %q", t.Literal)
	case CHAR:
		return fmt.Sprintf("character %q", t.Char)
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}

// Lexer turns source text into tokens. It keeps one token of lookahead.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	Curr Token
	Next Token
}

func NewLexer(input []byte) *Lexer {
	l := &Lexer{input: input, line: 1, col: 1}
	return l
}

// Prime fills the current and lookahead tokens.
func (l *Lexer) Prime() error {
	if err := l.NextToken(); err != nil {
		return err
	}
	return l.NextToken()
}

// NextToken advances by one token.
func (l *Lexer) NextToken() error {
	l.Curr = l.Next
	tok, err := l.scan()
	if err != nil {
		return err
	}
	l.Next = tok
	return nil
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) here() Pos { return Pos{Line: l.line, Col: l.col} }

func (l *Lexer) scan() (Token, error) {
	l.skipWhitespace()
	start := l.here()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Pos: start}, nil
	}

	c := l.input[l.pos]
	switch {
	case isLetter(c):
		word := l.readIdentifier()
		if keywords[word] {
			return Token{Type: KEYWORD, Literal: word, Pos: start}, nil
		}
		return Token{Type: IDENT, Literal: word, Pos: start}, nil

	case isDigit(c):
		return Token{Type: NUMBER, Literal: l.readNumber(), Pos: start}, nil

	case c == '"':
		s, err := l.readString()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: STRING, Literal: s, Pos: start}, nil

	case c == '\'':
		r, err := l.readCharLiteral()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: CHAR, Char: r, Literal: string(r), Pos: start}, nil
	}

	if l.pos+1 < len(l.input) {
		two := string(l.input[l.pos : l.pos+2])
		if longOperators[two] {
			l.advance()
			l.advance()
			return Token{Type: OPERATOR, Literal: two, Pos: start}, nil
		}
	}
	for i := 0; i < len(singleOperators); i++ {
		if singleOperators[i] == c {
			l.advance()
			return Token{Type: OPERATOR, Literal: string(c), Pos: start}, nil
		}
	}
	return Token{}, &Error{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.advance()
			continue
		}
		if c == '/' && l.peekByte(1) == '/' {
			l.skipLineComment()
			continue
		}
		return
	}
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readEscape(start Pos) (rune, error) {
	if l.pos >= len(l.input) {
		return 0, &Error{Pos: start, Msg: "unterminated escape sequence", Incomplete: true}
	}
	c := l.input[l.pos]
	l.advance()
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case '\\', '\'', '"':
		return rune(c), nil
	}
	return 0, &Error{Pos: start, Msg: fmt.Sprintf("invalid escape sequence \\%c", c)}
}

func (l *Lexer) readString() (string, error) {
	start := l.here()
	l.advance() // opening quote
	var out []rune
	for {
		if l.pos >= len(l.input) {
			return "", &Error{Pos: start, Msg: "unterminated string literal", Incomplete: true}
		}
		c := l.input[l.pos]
		if c == '"' {
			l.advance()
			return string(out), nil
		}
		if c == '\\' {
			l.advance()
			r, err := l.readEscape(start)
			if err != nil {
				return "", err
			}
			out = append(out, r)
			continue
		}
		r, size := utf8.DecodeRune(l.input[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		out = append(out, r)
	}
}

func (l *Lexer) readCharLiteral() (rune, error) {
	start := l.here()
	l.advance() // opening quote
	if l.pos >= len(l.input) {
		return 0, &Error{Pos: start, Msg: "unterminated character literal", Incomplete: true}
	}
	var r rune
	if l.input[l.pos] == '\\' {
		l.advance()
		esc, err := l.readEscape(start)
		if err != nil {
			return 0, err
		}
		r = esc
	} else {
		decoded, size := utf8.DecodeRune(l.input[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		r = decoded
	}
	if l.pos >= len(l.input) {
		return 0, &Error{Pos: start, Msg: "unterminated character literal", Incomplete: true}
	}
	if l.input[l.pos] != '\'' {
		return 0, &Error{Pos: start, Msg: "character literal must hold exactly one character"}
	}
	l.advance()
	return r, nil
}
