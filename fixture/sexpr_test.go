package fixture

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSexprs(t *testing.T) {
	nodes, err := ParseSexprs("(fn main\n  (let s \"a b\")\n  (let c '(')) ; trailing\n(fn geo$make)")
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 2)
	be.Equal(t, nodes[0].String(), `(fn main (let s "a b") (let c '('))`)
	be.Equal(t, nodes[1].String(), "(fn geo$make)")

	let := nodes[0].Items[2]
	be.Equal(t, let.Type, NodeList)
	be.Equal(t, let.Items[2].Type, NodeQuoted)
}

func TestParseSexprsEscapes(t *testing.T) {
	nodes, err := ParseSexprs(`(call $println "say \"hi\"") '\''`)
	be.Err(t, err, nil)
	be.Equal(t, nodes[0].Items[2].Text, `"say \"hi\""`)
	be.Equal(t, nodes[1].Text, `'\''`)
}

func TestParseSexprsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed list", "(fn main"},
		{"stray paren", ")"},
		{"unterminated string", `(let s "abc)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSexprs(tt.input)
			be.Err(t, err)
		})
	}
}

func TestMatchSexprs(t *testing.T) {
	dump := "(fn main (let p (new P (x -1))) (call $println \"ok\") (return))\n(fn helper (return 1))\n"
	tests := []struct {
		name    string
		pattern string
		match   bool
	}{
		{"exact", "(fn main (let p (new P (x -1))) (call $println \"ok\") (return)) (fn helper (return 1))", true},
		{"whitespace", "(fn main\n  (let p (new P (x -1)))\n  (call $println \"ok\")\n  (return))\n(fn helper (return 1))", true},
		{"leading items", "(fn main ... (return)) ...", true},
		{"inner items", "(fn main (let p (new P ...)) ...) (fn helper ...)", true},
		{"empty ellipsis", "(fn main (let p (new P (x -1) ...)) ...) ...", true},
		{"different atom", "(fn main (let p (new P (x 1))) ...) ...", false},
		{"missing function", "(fn main ...)", false},
		{"extra item", "(fn main ... (return) (return)) ...", false},
		{"atom against list", "(fn main p ...) ...", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MatchSexprs(tt.pattern, dump)
			be.Equal(t, err == nil, tt.match)
		})
	}
}
