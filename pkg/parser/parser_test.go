package parser

import (
	"errors"
	"testing"

	"github.com/kartiknair/beginc/pkg/lexer"
	"github.com/kartiknair/beginc/pkg/parsetree"
	"github.com/kartiknair/beginc/pkg/token"
	"github.com/nalgeon/be"
)

func parse(t *testing.T, source string) (*parsetree.Tree, []int, error) {
	t.Helper()
	tokens, err := lexer.Lex(source)
	be.Err(t, err, nil)

	p := New(tokens)
	tree, err := p.Parse()
	return tree, p.Derivation(), err
}

func syntaxError(t *testing.T, err error) *SyntaxError {
	t.Helper()
	var syntaxErr *SyntaxError
	be.True(t, errors.As(err, &syntaxErr))
	return syntaxErr
}

func TestParseEmptyProgram(t *testing.T) {
	tree, derivation, err := parse(t, "BEGIN p END")
	be.Err(t, err, nil)

	be.Equal(t, derivation, []int{1, 3})
	be.Equal(t, tree.SExpr(), "(<Program> BEGIN VARNAME(p) (<Code> ε) END)")
}

func TestParseDerivation(t *testing.T) {
	_, derivation, err := parse(t, "BEGIN p print(x) END")
	be.Err(t, err, nil)
	be.Equal(t, derivation, []int{1, 2, 9, 32, 5, 3})

	_, derivation, err = parse(t, "BEGIN p x := 1 + 2, print(x) END")
	be.Err(t, err, nil)
	be.Equal(t, derivation, []int{
		1, 2, 6, 11, 12, 16, 22, 19, 13, 16, 22, 19, 15, 4,
		2, 9, 32, 5, 3,
	})
}

func TestParseDerivationNamesRules(t *testing.T) {
	_, derivation, err := parse(t, "BEGIN p x := -(a * b), read(a) END")
	be.Err(t, err, nil)

	for _, rule := range derivation {
		be.True(t, rule >= ruleProgram && rule <= ruleRead)
		be.True(t, Rules[rule] != "")
	}
	be.Equal(t, Rules[derivation[0]], "<Program> -> BEGIN VARNAME <Code> END")
}

func TestParseFrontierIsInput(t *testing.T) {
	source := `BEGIN p
		read(n),
		i := 0,
		while (i < n) do
			if (i = 2 * (i / 2)) then print(i) else x := -i end,
			i := i + 1
		end
	END`

	tokens, err := lexer.Lex(source)
	be.Err(t, err, nil)

	tree, err := Parse(tokens)
	be.Err(t, err, nil)

	// Every consumed token appears once, in order; only EOS is not part
	// of the tree.
	be.Equal(t, tree.Frontier(), tokens[:len(tokens)-1])
}

func TestParseIfShapes(t *testing.T) {
	tree, _, err := parse(t, "BEGIN p if (x > 0) then print(x) end END")
	be.Err(t, err, nil)

	instruction := tree.Children[2].Children[0]
	ifNode := instruction.Children[0]
	be.Equal(t, ifNode.Label.Type, token.NT_IF)
	be.Equal(t, len(ifNode.Children), 7)
	be.Equal(t, len(ifNode.Children[6].Children), 1)

	tree, _, err = parse(t, "BEGIN p if (x > 0) then print(x) else read(x), END END")
	be.Err(t, err, nil)

	ifNode = tree.Children[2].Children[0].Children[0]
	tail := ifNode.Children[6]
	be.Equal(t, tail.Label.Type, token.NT_IF_SEQ)
	be.Equal(t, len(tail.Children), 3)
	be.Equal(t, tail.Children[0].Label.Type, token.ELSE)
}

func TestParseSeparatorBeforeBlockEnd(t *testing.T) {
	sources := []string{
		"BEGIN p x := 1, END",
		"BEGIN p x := 1 END",
		"BEGIN p while (x < 1) do x := x + 1 end END",
		"BEGIN p while (x < 1) do x := x + 1, end, END",
	}

	for _, source := range sources {
		_, _, err := parse(t, source)
		be.Err(t, err, nil)
	}
}

func TestParseMissingSeparator(t *testing.T) {
	_, _, err := parse(t, "BEGIN p x := 1 print(x) END")
	syntaxErr := syntaxError(t, err)

	be.Equal(t, syntaxErr.Pos, token.Pos{Line: 1, Column: 16})
	be.Equal(t, syntaxErr.Found.Type, token.PRINT)
	be.True(t, syntaxErr.Expects(token.COMMA))
	be.True(t, syntaxErr.Expects(token.END))
	be.True(t, !syntaxErr.Expects(token.PRINT))
	be.Err(t, err, "parse-error: 1:16: found PRINT 'print', expected one of:")
}

func TestParseMissingEnd(t *testing.T) {
	_, _, err := parse(t, "BEGIN p\nx := 1,")
	syntaxErr := syntaxError(t, err)

	// The missing keyword is reported where it should have been written.
	be.Equal(t, syntaxErr.Pos, token.Pos{Line: 2, Column: 8})
	be.Equal(t, syntaxErr.Found.Type, token.EOS)
	be.True(t, syntaxErr.Expects(token.END))
	be.True(t, syntaxErr.Expects(token.VARNAME))
	be.Err(t, err, "found end of input")
}

func TestParseWithoutTerminator(t *testing.T) {
	tokens, err := lexer.Lex("BEGIN p\nx := 1,")
	be.Err(t, err, nil)
	be.Equal(t, tokens[len(tokens)-1], token.EndOfStream(tokens[:len(tokens)-1]))

	// Dropping EOS from the stream changes nothing about the report.
	_, err = New(tokens[:len(tokens)-1]).Parse()
	syntaxErr := syntaxError(t, err)
	be.Equal(t, syntaxErr.Pos, token.Pos{Line: 2, Column: 8})
	be.Equal(t, syntaxErr.Found.Type, token.EOS)
	be.True(t, syntaxErr.Expects(token.END))

	_, err = New(nil).Parse()
	syntaxErr = syntaxError(t, err)
	be.Equal(t, syntaxErr.Pos, token.Pos{Line: 1, Column: 1})
	be.True(t, syntaxErr.Expects(token.BEGIN))
}

func TestParseTrailingTokens(t *testing.T) {
	tree, _, err := parse(t, "BEGIN p print(x) END END")
	be.True(t, tree == nil)

	syntaxErr := syntaxError(t, err)
	be.Equal(t, syntaxErr.Pos, token.Pos{Line: 1, Column: 22})
	be.Equal(t, syntaxErr.Expected, []token.TokenType{token.EOS})
	be.Err(t, err, "parse-error: 1:22: found END 'END', expected EOS")
}

func TestParseExpectedKindsAreSorted(t *testing.T) {
	_, _, err := parse(t, "BEGIN p x := END")
	syntaxErr := syntaxError(t, err)

	be.Equal(t, syntaxErr.Expected, []token.TokenType{
		token.VARNAME, token.NUMBER, token.LEFT_PAREN, token.MINUS,
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source string
		pos    token.Pos
		found  token.TokenType
	}{
		{"p END", token.Pos{Line: 1, Column: 1}, token.VARNAME},
		{"BEGIN END", token.Pos{Line: 1, Column: 7}, token.END},
		{"BEGIN p if x > 0 then end END", token.Pos{Line: 1, Column: 12}, token.VARNAME},
		{"BEGIN p if (x) then end END", token.Pos{Line: 1, Column: 14}, token.RIGHT_PAREN},
		{"BEGIN p while (1 < 2) x := 1 end END", token.Pos{Line: 1, Column: 23}, token.VARNAME},
		{"BEGIN p print(1) END", token.Pos{Line: 1, Column: 15}, token.NUMBER},
		{"BEGIN p x := (1 + 2 END", token.Pos{Line: 1, Column: 21}, token.END},
		{"BEGIN p else END", token.Pos{Line: 1, Column: 9}, token.ELSE},
	}

	for _, tt := range tests {
		tree, _, err := parse(t, tt.source)
		be.True(t, tree == nil)

		syntaxErr := syntaxError(t, err)
		be.Equal(t, syntaxErr.Pos, tt.pos)
		be.Equal(t, syntaxErr.Found.Type, tt.found)
	}
}

func TestParseIsRepeatable(t *testing.T) {
	tokens, err := lexer.Lex("BEGIN p read(x), print(x) END")
	be.Err(t, err, nil)

	p := New(tokens)
	first, err := p.Parse()
	be.Err(t, err, nil)
	firstDerivation := p.Derivation()

	second, err := p.Parse()
	be.Err(t, err, nil)
	be.Equal(t, first.SExpr(), second.SExpr())
	be.Equal(t, p.Derivation(), firstDerivation)
}
