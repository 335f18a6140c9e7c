// Package testcase extracts compiler test cases from Markdown documents.
//
// A test case starts at a heading "Test: <name>" and holds one `beginc`
// fence with the program, followed by one or more assertion fences:
//
//	ast           S-expression of the simplified program (whitespace-insensitive)
//	derivation    rule numbers of the left-most derivation, space separated
//	ir            lines that must appear, in order, in the generated IR
//	error         substring of the error returned by a default compilation
//	strict-error  substring of the error returned with the strict check on
package testcase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const InputFence = "beginc"

type AssertionType string

const (
	AssertionAST         AssertionType = "ast"
	AssertionDerivation  AssertionType = "derivation"
	AssertionIR          AssertionType = "ir"
	AssertionError       AssertionType = "error"
	AssertionStrictError AssertionType = "strict-error"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type TestCase struct {
	Name       string
	Input      string
	Line       int
	Assertions []Assertion
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionAST, AssertionDerivation, AssertionIR, AssertionError, AssertionStrictError:
		return true
	}
	return false
}

// Extract parses a Markdown document and returns its test cases in
// document order.
func Extract(markdown []byte) ([]TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var testCases []TestCase
	var current *TestCase

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		testCases = append(testCases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, markdown)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{
				Name: strings.TrimPrefix(heading, "Test: "),
				Line: lineNumber(n, markdown),
			}
		case *ast.FencedCodeBlock:
			language := string(n.Language(markdown))
			content := strings.TrimRight(blockContent(n, markdown), "\n")
			line := lineNumber(n, markdown)

			if language != InputFence && !isAssertionFence(language) {
				if language == "" {
					return ast.WalkContinue, nil
				}
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s'", line, language)
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
			}

			if language == InputFence {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", line, current.Name)
				}
				current.Input = content
			} else {
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: content,
					Line:    line,
				})
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return testCases, nil
}

func validate(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no %s fence", tc.Name, InputFence)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

// lineNumber counts newlines before the first line of node.
func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}

	start := node.Lines().At(0).Start
	line := 1
	for i := 0; i < start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}

// ContainsInOrder reports the first expected line, trimmed, that cannot be
// found in actual after the previous match. It returns "" when all are found.
func ContainsInOrder(actual string, expected string) string {
	lines := strings.Split(actual, "\n")
	pos := 0

	for _, want := range strings.Split(expected, "\n") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}

		found := false
		for pos < len(lines) {
			got := strings.TrimSpace(lines[pos])
			pos++
			if got == want {
				found = true
				break
			}
		}
		if !found {
			return want
		}
	}

	return ""
}

// NormalizeSpace collapses runs of whitespace so S-expressions can be
// compared regardless of layout.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
