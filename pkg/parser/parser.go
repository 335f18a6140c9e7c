package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kartiknair/beginc/pkg/parsetree"
	"github.com/kartiknair/beginc/pkg/token"
)

type Parser struct {
	tokens     []token.Token
	current    int
	derivation []int
}

type SyntaxError struct {
	Pos      token.Pos
	Found    token.Token
	Expected []token.TokenType
}

func (e *SyntaxError) Error() string {
	found := "end of input"
	if e.Found.Type != token.EOS {
		found = e.Found.String()
	}

	expected := make([]string, len(e.Expected))
	for i, t := range e.Expected {
		expected[i] = t.String()
	}

	if len(expected) == 1 {
		return fmt.Sprintf("parse-error: %s: found %s, expected %s", e.Pos, found, expected[0])
	}
	return fmt.Sprintf(
		"parse-error: %s: found %s, expected one of: %s",
		e.Pos, found, strings.Join(expected, ", "),
	)
}

func (e *SyntaxError) Position() token.Pos {
	return e.Pos
}

// Expects reports whether typ is among the kinds that would have been accepted.
func (e *SyntaxError) Expects(typ token.TokenType) bool {
	return contains(e.Expected, typ)
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// syntaxError aborts the parse. The panic is recovered by Parse.
func (p *Parser) syntaxError(expected ...token.TokenType) {
	found := p.peek()
	kinds := union(expected)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	panic(&SyntaxError{Pos: found.Pos, Found: found, Expected: kinds})
}

func (p *Parser) peek() token.Token {
	if p.current < len(p.tokens) {
		return p.tokens[p.current]
	}
	// A stream without its terminator ends right after its last token.
	return token.EndOfStream(p.tokens)
}

func (p *Parser) match(typ token.TokenType) *parsetree.Tree {
	t := p.peek()
	if t.Type != typ {
		p.syntaxError(typ)
	}

	p.current++
	return parsetree.Leaf(t)
}

func (p *Parser) apply(rule int) {
	p.derivation = append(p.derivation, rule)
}

func epsilon(typ token.TokenType) *parsetree.Tree {
	return parsetree.Node(typ, parsetree.Leaf(token.Epsilon()))
}

func (p *Parser) program() *parsetree.Tree {
	p.apply(ruleProgram)
	begin := p.match(token.BEGIN)
	name := p.match(token.VARNAME)
	code := p.code()
	end := p.match(token.END)
	return parsetree.Node(token.NT_PROGRAM, begin, name, code, end)
}

func (p *Parser) code() *parsetree.Tree {
	t := p.peek().Type

	if contains(followCode, t) {
		p.apply(ruleCodeEpsilon)
		return epsilon(token.NT_CODE)
	} else if contains(firstInstruction, t) {
		p.apply(ruleCode)
		instruction := p.instruction()
		separator := p.instSep()
		rest := p.code()
		return parsetree.Node(token.NT_CODE, instruction, separator, rest)
	}

	p.syntaxError(union(firstInstruction, followCode)...)
	return nil
}

// instSep only lets the separator be omitted after the last instruction
// of a block.
func (p *Parser) instSep() *parsetree.Tree {
	t := p.peek().Type

	if t == token.COMMA {
		p.apply(ruleInstSepComma)
		return parsetree.Node(token.NT_INST_SEP, p.match(token.COMMA))
	} else if contains(followCode, t) {
		p.apply(ruleInstSepEpsilon)
		return epsilon(token.NT_INST_SEP)
	}

	p.syntaxError(union([]token.TokenType{token.COMMA}, followCode)...)
	return nil
}

func (p *Parser) instruction() *parsetree.Tree {
	var child *parsetree.Tree

	switch p.peek().Type {
	case token.VARNAME:
		p.apply(ruleInstructionAssign)
		child = p.assign()
	case token.IF:
		p.apply(ruleInstructionIf)
		child = p.ifStmt()
	case token.WHILE:
		p.apply(ruleInstructionWhile)
		child = p.whileStmt()
	case token.PRINT:
		p.apply(ruleInstructionPrint)
		child = p.print()
	case token.READ:
		p.apply(ruleInstructionRead)
		child = p.read()
	default:
		p.syntaxError(firstInstruction...)
	}

	return parsetree.Node(token.NT_INSTRUCTION, child)
}

func (p *Parser) assign() *parsetree.Tree {
	p.apply(ruleAssign)
	name := p.match(token.VARNAME)
	op := p.match(token.ASSIGN)
	value := p.exprArith()
	return parsetree.Node(token.NT_ASSIGN, name, op, value)
}

func (p *Parser) exprArith() *parsetree.Tree {
	p.apply(ruleExprArith)
	left := p.mulDiv()
	rest := p.exprArithPrime()
	return parsetree.Node(token.NT_EXPR_ARITH, left, rest)
}

func (p *Parser) exprArithPrime() *parsetree.Tree {
	t := p.peek().Type

	if t == token.PLUS || t == token.MINUS {
		if t == token.PLUS {
			p.apply(ruleExprArithPlus)
		} else {
			p.apply(ruleExprArithMinus)
		}
		op := p.match(t)
		operand := p.mulDiv()
		rest := p.exprArithPrime()
		return parsetree.Node(token.NT_EXPR_ARITH_PRIME, op, operand, rest)
	} else if contains(followExprArith, t) {
		p.apply(ruleExprArithEpsilon)
		return epsilon(token.NT_EXPR_ARITH_PRIME)
	}

	p.syntaxError(union([]token.TokenType{token.PLUS, token.MINUS}, followExprArith)...)
	return nil
}

func (p *Parser) mulDiv() *parsetree.Tree {
	p.apply(ruleMulDiv)
	left := p.atom()
	rest := p.mulDivPrime()
	return parsetree.Node(token.NT_MUL_DIV, left, rest)
}

func (p *Parser) mulDivPrime() *parsetree.Tree {
	t := p.peek().Type

	if t == token.STAR || t == token.SLASH {
		if t == token.STAR {
			p.apply(ruleMulDivTimes)
		} else {
			p.apply(ruleMulDivDivide)
		}
		op := p.match(t)
		operand := p.atom()
		rest := p.mulDivPrime()
		return parsetree.Node(token.NT_MUL_DIV_PRIME, op, operand, rest)
	} else if contains(followMulDiv, t) {
		p.apply(ruleMulDivEpsilon)
		return epsilon(token.NT_MUL_DIV_PRIME)
	}

	p.syntaxError(union([]token.TokenType{token.STAR, token.SLASH}, followMulDiv)...)
	return nil
}

func (p *Parser) atom() *parsetree.Tree {
	switch p.peek().Type {
	case token.MINUS:
		p.apply(ruleAtomMinus)
		minus := p.match(token.MINUS)
		operand := p.atom()
		return parsetree.Node(token.NT_ATOM, minus, operand)
	case token.VARNAME:
		p.apply(ruleAtomVarName)
		return parsetree.Node(token.NT_ATOM, p.match(token.VARNAME))
	case token.NUMBER:
		p.apply(ruleAtomNumber)
		return parsetree.Node(token.NT_ATOM, p.match(token.NUMBER))
	case token.LEFT_PAREN:
		p.apply(ruleAtomParens)
		left := p.match(token.LEFT_PAREN)
		inner := p.exprArith()
		right := p.match(token.RIGHT_PAREN)
		return parsetree.Node(token.NT_ATOM, left, inner, right)
	}

	p.syntaxError(firstAtom...)
	return nil
}

func (p *Parser) ifStmt() *parsetree.Tree {
	p.apply(ruleIf)
	keyword := p.match(token.IF)
	left := p.match(token.LEFT_PAREN)
	condition := p.cond()
	right := p.match(token.RIGHT_PAREN)
	then := p.match(token.THEN)
	body := p.code()
	tail := p.ifSeq()
	return parsetree.Node(token.NT_IF, keyword, left, condition, right, then, body, tail)
}

func (p *Parser) ifSeq() *parsetree.Tree {
	switch p.peek().Type {
	case token.END:
		p.apply(ruleIfSeqEnd)
		return parsetree.Node(token.NT_IF_SEQ, p.match(token.END))
	case token.ELSE:
		p.apply(ruleIfSeqElse)
		keyword := p.match(token.ELSE)
		body := p.code()
		end := p.match(token.END)
		return parsetree.Node(token.NT_IF_SEQ, keyword, body, end)
	}

	p.syntaxError(token.ELSE, token.END)
	return nil
}

func (p *Parser) cond() *parsetree.Tree {
	p.apply(ruleCond)
	left := p.exprArith()
	op := p.comp()
	right := p.exprArith()
	return parsetree.Node(token.NT_COND, left, op, right)
}

func (p *Parser) comp() *parsetree.Tree {
	switch p.peek().Type {
	case token.EQUAL:
		p.apply(ruleCompEqual)
	case token.LESSER:
		p.apply(ruleCompLesser)
	case token.GREATER:
		p.apply(ruleCompGreater)
	default:
		p.syntaxError(firstComp...)
	}

	return parsetree.Node(token.NT_COMP, p.match(p.peek().Type))
}

func (p *Parser) whileStmt() *parsetree.Tree {
	p.apply(ruleWhile)
	keyword := p.match(token.WHILE)
	left := p.match(token.LEFT_PAREN)
	condition := p.cond()
	right := p.match(token.RIGHT_PAREN)
	do := p.match(token.DO)
	body := p.code()
	end := p.match(token.END)
	return parsetree.Node(token.NT_WHILE, keyword, left, condition, right, do, body, end)
}

func (p *Parser) print() *parsetree.Tree {
	p.apply(rulePrint)
	keyword := p.match(token.PRINT)
	left := p.match(token.LEFT_PAREN)
	name := p.match(token.VARNAME)
	right := p.match(token.RIGHT_PAREN)
	return parsetree.Node(token.NT_PRINT, keyword, left, name, right)
}

func (p *Parser) read() *parsetree.Tree {
	p.apply(ruleRead)
	keyword := p.match(token.READ)
	left := p.match(token.LEFT_PAREN)
	name := p.match(token.VARNAME)
	right := p.match(token.RIGHT_PAREN)
	return parsetree.Node(token.NT_READ, keyword, left, name, right)
}

// Parse recognizes a whole program and requires the token stream to end
// right after it. Parsing stops at the first syntax error.
func (p *Parser) Parse() (tree *parsetree.Tree, err error) {
	p.current = 0
	p.derivation = nil

	defer func() {
		if r := recover(); r != nil {
			syntaxErr, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			tree, err = nil, syntaxErr
		}
	}()

	tree = p.program()
	p.match(token.EOS)
	return tree, nil
}

// Derivation returns the rule numbers applied so far, in the order the
// rules were entered.
func (p *Parser) Derivation() []int {
	return append([]int(nil), p.derivation...)
}

func Parse(tokens []token.Token) (*parsetree.Tree, error) {
	return New(tokens).Parse()
}
