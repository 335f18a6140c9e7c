package token

import "fmt"

type TokenType int

const (
	VARNAME TokenType = iota
	NUMBER
	EOS
	EPSILON

	KEYWORD_BEGIN
	BEGIN
	END
	IF
	THEN
	ELSE
	WHILE
	DO
	PRINT
	READ
	KEYWORD_END

	LEFT_PAREN
	RIGHT_PAREN
	COMMA
	ASSIGN

	arithop_begin
	PLUS
	MINUS
	STAR
	SLASH
	arithop_end

	compop_begin
	EQUAL
	LESSER
	GREATER
	compop_end

	// Parse-tree labels for grammar variables.
	nonterminal_begin
	NT_PROGRAM
	NT_CODE
	NT_INST_SEP
	NT_INSTRUCTION
	NT_ASSIGN
	NT_EXPR_ARITH
	NT_EXPR_ARITH_PRIME
	NT_MUL_DIV
	NT_MUL_DIV_PRIME
	NT_ATOM
	NT_IF
	NT_IF_SEQ
	NT_COND
	NT_COMP
	NT_WHILE
	NT_PRINT
	NT_READ
	nonterminal_end
)

var names = map[TokenType]string{
	VARNAME: "VARNAME",
	NUMBER:  "NUMBER",
	EOS:     "EOS",
	EPSILON: "EPSILON",

	BEGIN: "BEGIN",
	END:   "END",
	IF:    "IF",
	THEN:  "THEN",
	ELSE:  "ELSE",
	WHILE: "WHILE",
	DO:    "DO",
	PRINT: "PRINT",
	READ:  "READ",

	LEFT_PAREN:  "LPAREN",
	RIGHT_PAREN: "RPAREN",
	COMMA:       "COMMA",
	ASSIGN:      "ASSIGN",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "TIMES",
	SLASH:       "DIVIDE",
	EQUAL:       "EQUAL",
	LESSER:      "SMALLER",
	GREATER:     "GREATER",

	NT_PROGRAM:          "<Program>",
	NT_CODE:             "<Code>",
	NT_INST_SEP:         "<InstSep>",
	NT_INSTRUCTION:      "<Instruction>",
	NT_ASSIGN:           "<Assign>",
	NT_EXPR_ARITH:       "<ExprArith>",
	NT_EXPR_ARITH_PRIME: "<ExprArith'>",
	NT_MUL_DIV:          "<MulDiv>",
	NT_MUL_DIV_PRIME:    "<MulDiv'>",
	NT_ATOM:             "<Atom>",
	NT_IF:               "<If>",
	NT_IF_SEQ:           "<IfSeq>",
	NT_COND:             "<Cond>",
	NT_COMP:             "<Comp>",
	NT_WHILE:            "<While>",
	NT_PRINT:            "<Print>",
	NT_READ:             "<Read>",
}

func (t TokenType) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

func (t TokenType) IsKeyword() bool {
	return t > KEYWORD_BEGIN && t < KEYWORD_END
}

func (t TokenType) IsArithmeticOperator() bool {
	return t > arithop_begin && t < arithop_end
}

func (t TokenType) IsComparativeOperator() bool {
	return t > compop_begin && t < compop_end
}

func (t TokenType) IsNonterminal() bool {
	return t > nonterminal_begin && t < nonterminal_end
}

type Token struct {
	Lexeme string
	Type   TokenType
	Pos    Pos
}

func (t Token) String() string {
	if t.Type.IsNonterminal() {
		return t.Type.String()
	}
	return fmt.Sprintf("%s '%s'", t.Type, t.Lexeme)
}

// Nonterminal builds the label used by parse-tree nodes for grammar variables.
func Nonterminal(typ TokenType) Token {
	return Token{Lexeme: typ.String(), Type: typ}
}

// Epsilon builds the label of an empty-production leaf.
func Epsilon() Token {
	return Token{Lexeme: "ε", Type: EPSILON}
}

// EndOfStream is the EOS token that follows tokens. It sits right after the
// last token so that a missing terminator is reported where it should have
// been written.
func EndOfStream(tokens []Token) Token {
	pos := Pos{Line: 1, Column: 1}
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		pos = Pos{Line: last.Pos.Line, Column: last.Pos.Column + len(last.Lexeme)}
	}
	return Token{Lexeme: "", Type: EOS, Pos: pos}
}

type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Keywords are case-sensitive. Both spellings of END close a block.
var Keywords = map[string]TokenType{
	"BEGIN": BEGIN,
	"END":   END,
	"end":   END,
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"while": WHILE,
	"do":    DO,
	"print": PRINT,
	"read":  READ,
}
