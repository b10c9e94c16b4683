package syntax

import (
	"testing"

	"github.com/nalgeon/be"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer([]byte(input))
	be.Err(t, l.Prime(), nil)
	var toks []Token
	for l.Curr.Type != EOF {
		toks = append(toks, l.Curr)
		be.Err(t, l.NextToken(), nil)
	}
	return toks
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "let foo = isnt_x is Some;")
	be.Equal(t, len(toks), 7)
	be.Equal(t, toks[0].Type, KEYWORD)
	be.Equal(t, toks[0].Literal, "let")
	be.Equal(t, toks[1].Type, IDENT)
	be.Equal(t, toks[1].Literal, "foo")
	be.Equal(t, toks[3].Type, IDENT)
	be.Equal(t, toks[3].Literal, "isnt_x")
	be.Equal(t, toks[4].Type, KEYWORD)
	be.Equal(t, toks[6].Literal, ";")
}

func TestLexOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a->b", []string{"a", "->", "b"}},
		{"++x", []string{"++", "x"}},
		{"a<=b>=c", []string{"a", "<=", "b", ">=", "c"}},
		{"a&&b||!c", []string{"a", "&&", "b", "||", "!", "c"}},
		{"x == y != z", []string{"x", "==", "y", "!=", "z"}},
		{"f(&a, b)", []string{"f", "(", "&", "a", ",", "b", ")"}},
		{"a - -1", []string{"a", "-", "-", "1"}},
	}

	for _, test := range tests {
		toks := lexAll(t, test.input)
		var got []string
		for _, tok := range toks {
			got = append(got, tok.Literal)
		}
		be.Equal(t, got, test.expected)
	}
}

func TestLexLiterals(t *testing.T) {
	toks := lexAll(t, `"a\tb\n" 'x' '\'' 1234`)
	be.Equal(t, len(toks), 4)
	be.Equal(t, toks[0].Type, STRING)
	be.Equal(t, toks[0].Literal, "a\tb\n")
	be.Equal(t, toks[1].Type, CHAR)
	be.Equal(t, toks[1].Char, 'x')
	be.Equal(t, toks[2].Char, '\'')
	be.Equal(t, toks[3].Type, NUMBER)
	be.Equal(t, toks[3].Literal, "1234")
}

func TestLexCommentsAndPositions(t *testing.T) {
	toks := lexAll(t, "// leading comment\nfn main() { // trailing\n  x;\n}")
	be.Equal(t, toks[0].Literal, "fn")
	be.Equal(t, toks[0].Pos, Pos{Line: 2, Col: 1})
	be.Equal(t, toks[5].Literal, "x")
	be.Equal(t, toks[5].Pos, Pos{Line: 3, Col: 3})
}

func TestLexUnterminatedStringIsIncomplete(t *testing.T) {
	l := NewLexer([]byte(`"abc`))
	err := l.Prime()
	be.True(t, err != nil)
	be.True(t, IsIncomplete(err))
}

func TestLexInvalidCharacter(t *testing.T) {
	l := NewLexer([]byte("a # b"))
	err := l.Prime()
	be.True(t, err != nil)
	be.True(t, !IsIncomplete(err))
	be.Equal(t, err.Error(), `1:3: unexpected character '#'`)
}

func TestLexCharacterLiteralTooLong(t *testing.T) {
	l := NewLexer([]byte("'ab'"))
	err := l.Prime()
	be.True(t, err != nil)
	be.Equal(t, err.Error(), "1:1: character literal must hold exactly one character")
}
