// Package fixture extracts end-to-end compiler test cases from Markdown.
//
// A test case starts at a heading "Test: <name>". It holds one or more
// source fences (language "idg", optionally followed by a module name,
// "index" by default) and one or more assertion fences.
package fixture

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SourceFence is the fence language of a source module.
const SourceFence = "idg"

// DefaultModule names a source fence without an explicit module.
const DefaultModule = "index"

// AssertionType is the fence language of an assertion.
type AssertionType string

const (
	// AssertionTypeTyped matches the typed tree dump against a pattern (see MatchSexprs).
	AssertionTypeTyped AssertionType = "typed"
	// AssertionTypeStdout runs the program and compares what it prints.
	AssertionTypeStdout AssertionType = "stdout"
	// AssertionTypeCompileError names the kind of error compilation fails with.
	AssertionTypeCompileError AssertionType = "compile-error"
	// AssertionTypeRuntimeError runs the program and expects it to fail with
	// a message containing the fence content.
	AssertionTypeRuntimeError AssertionType = "runtime-error"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type TestCase struct {
	Name string
	// Modules maps module names to source text.
	Modules    map[string]string
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and returns its test cases
// in document order.
func ExtractTestCases(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var current *TestCase
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{Name: strings.TrimPrefix(heading, "Test: "), Modules: map[string]string{}}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			line := lineNumber(n, source)
			if language == "" {
				return ast.WalkContinue, nil
			}
			if current == nil {
				if language == SourceFence || isAssertion(language) {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
				}
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", line, language)
			}

			content := fenceContent(n, source)
			switch {
			case language == SourceFence:
				module := DefaultModule
				if fields := strings.Fields(fenceInfo(n, source)); len(fields) > 1 {
					module = fields[1]
				}
				if _, ok := current.Modules[module]; ok {
					return ast.WalkStop, fmt.Errorf("line %d: multiple source fences for module '%s' in test '%s'", line, module, current.Name)
				}
				current.Modules[module] = content
			case isAssertion(language):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func isAssertion(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeTyped, AssertionTypeStdout, AssertionTypeCompileError, AssertionTypeRuntimeError:
		return true
	}
	return false
}

func validate(tc *TestCase) error {
	if len(tc.Modules) == 0 {
		return fmt.Errorf("test '%s' has no source fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceInfo(block *ast.FencedCodeBlock, source []byte) string {
	if block.Info == nil {
		return ""
	}
	return string(block.Info.Segment.Value(source))
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
