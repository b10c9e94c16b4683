package fixture

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_Basic(t *testing.T) {
	markdown := `# Arithmetic

## Test: addition
` + fence + `idg
fn main() { println(to_str(1 + 2)); }
` + fence + `
` + fence + `stdout
3
` + fence + `

## Test: overflow
` + fence + `idg
fn main() { let x = 4294967296; }
` + fence + `
` + fence + `compile-error
TypeMismatch
` + fence

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	be.Equal(t, cases[0].Name, "addition")
	be.Equal(t, cases[0].Modules, map[string]string{
		"index": "fn main() { println(to_str(1 + 2)); }\n",
	})
	be.Equal(t, len(cases[0].Assertions), 1)
	be.Equal(t, cases[0].Assertions[0].Type, AssertionTypeStdout)
	be.Equal(t, cases[0].Assertions[0].Content, "3")

	be.Equal(t, cases[1].Name, "overflow")
	be.Equal(t, cases[1].Assertions[0].Type, AssertionTypeCompileError)
	be.Equal(t, cases[1].Assertions[0].Content, "TypeMismatch")
}

func TestExtractTestCases_NamedModules(t *testing.T) {
	markdown := `## Test: modules
` + fence + `idg
fn main() { geo.hello(); }
` + fence + `
` + fence + `idg geo
fn hello() {}
` + fence + `
` + fence + `typed
(fn main (call geo$hello))
(fn geo$hello)
` + fence

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)
	be.Equal(t, len(cases[0].Modules), 2)
	be.Equal(t, cases[0].Modules["geo"], "fn hello() {}\n")
	be.Equal(t, cases[0].Assertions[0].Type, AssertionTypeTyped)
}

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		message  string
	}{
		{
			"source outside test",
			"# Doc\n\n" + fence + "idg\nfn main() {}\n" + fence + "\n",
			"idg fence found outside of test case",
		},
		{
			"unknown fence outside test",
			"# Doc\n\n" + fence + "go\nfunc main() {}\n" + fence + "\n",
			"unknown fence language 'go' found outside of test case",
		},
		{
			"unknown fence in test",
			"## Test: t\n" + fence + "python\nprint()\n" + fence + "\n",
			"unknown fence language 'python' in test 't'",
		},
		{
			"no source",
			"## Test: t\n" + fence + "stdout\n1\n" + fence + "\n",
			"test 't' has no source fence",
		},
		{
			"no assertion",
			"## Test: t\n" + fence + "idg\nfn main() {}\n" + fence + "\n",
			"test 't' has no assertion fences",
		},
		{
			"duplicate module",
			"## Test: t\n" + fence + "idg\nfn a() {}\n" + fence + "\n" + fence + "idg index\nfn b() {}\n" + fence + "\n",
			"multiple source fences for module 'index'",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.Err(t, err)
			be.True(t, strings.Contains(err.Error(), test.message))
		})
	}
}

func TestExtractTestCases_LineNumbers(t *testing.T) {
	markdown := "# Doc\n\ntext\n\n" + fence + "stdout\n1\n" + fence + "\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
	be.True(t, strings.Contains(err.Error(), "line 6:"))
}

func TestExtractTestCases_PlainFencesAllowed(t *testing.T) {
	markdown := "# Doc\n\n" + fence + "\nnot a test\n" + fence + "\n"
	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 0)
}
