package token

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestRanges(t *testing.T) {
	be.True(t, IF.IsKeyword())
	be.True(t, END.IsKeyword())
	be.True(t, !VARNAME.IsKeyword())

	be.True(t, SLASH.IsArithmeticOperator())
	be.True(t, !EQUAL.IsArithmeticOperator())
	be.True(t, GREATER.IsComparativeOperator())
	be.True(t, !ASSIGN.IsComparativeOperator())

	be.True(t, NT_PROGRAM.IsNonterminal())
	be.True(t, NT_READ.IsNonterminal())
	be.True(t, !READ.IsNonterminal())
}

func TestStrings(t *testing.T) {
	be.Equal(t, Token{Lexeme: "x", Type: VARNAME}.String(), "VARNAME 'x'")
	be.Equal(t, Nonterminal(NT_EXPR_ARITH_PRIME).String(), "<ExprArith'>")
	be.Equal(t, Nonterminal(NT_CODE).Lexeme, "<Code>")
	be.Equal(t, Epsilon().Type, EPSILON)
	be.Equal(t, STAR.String(), "TIMES")
	be.Equal(t, Pos{Line: 3, Column: 14}.String(), "3:14")
}

func TestEndOfStream(t *testing.T) {
	be.Equal(t, EndOfStream(nil), Token{Type: EOS, Pos: Pos{Line: 1, Column: 1}})

	tokens := []Token{
		{Lexeme: "BEGIN", Type: BEGIN, Pos: Pos{Line: 1, Column: 1}},
		{Lexeme: "prog", Type: VARNAME, Pos: Pos{Line: 1, Column: 7}},
		{Lexeme: "END", Type: END, Pos: Pos{Line: 3, Column: 2}},
	}
	be.Equal(t, EndOfStream(tokens), Token{Type: EOS, Pos: Pos{Line: 3, Column: 5}})
	be.Equal(t, EndOfStream(tokens[:2]).Pos, Pos{Line: 1, Column: 11})
}

func TestKeywords(t *testing.T) {
	be.Equal(t, Keywords["END"], END)
	be.Equal(t, Keywords["end"], END)
	_, ok := Keywords["While"]
	be.True(t, !ok)
}
