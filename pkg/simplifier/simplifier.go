// Package simplifier rewrites a parse tree into the abstract syntax tree.
//
// The grammar encodes statement lists and operator chains as right
// recursive productions ending in epsilon. Here statement lists become
// flat slices and operator chains become left-associative BinaryOp trees.
// Punctuation and single-child wrappers are dropped.
package simplifier

import (
	"fmt"
	"strconv"

	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/parsetree"
	"github.com/kartiknair/beginc/pkg/token"
)

func malformed(t *parsetree.Tree, format string, args ...interface{}) {
	panic(&ast.MalformedTreeError{
		Stage:  "simplify",
		Node:   t.Label.String(),
		Reason: fmt.Sprintf(format, args...),
	})
}

// expect checks the label of t and that it has one of the given arities.
func expect(t *parsetree.Tree, typ token.TokenType, arities ...int) {
	if t == nil {
		panic(&ast.MalformedTreeError{Stage: "simplify", Node: typ.String(), Reason: "missing node"})
	}
	if t.Label.Type != typ {
		malformed(t, "expected %s", typ)
	}
	for _, n := range arities {
		if len(t.Children) == n {
			return
		}
	}
	malformed(t, "unexpected number of children: %d", len(t.Children))
}

func leaf(t *parsetree.Tree, typ token.TokenType) token.Token {
	if !t.IsLeaf() || t.Label.Type != typ {
		malformed(t, "expected %s leaf", typ)
	}
	return t.Label
}

// isEmpty reports whether an epsilon-terminated chain link is the final,
// empty one.
func isEmpty(t *parsetree.Tree) bool {
	return len(t.Children) == 1 && t.Children[0].IsEpsilon()
}

func program(t *parsetree.Tree) *ast.Program {
	expect(t, token.NT_PROGRAM, 4)
	leaf(t.Children[0], token.BEGIN)
	leaf(t.Children[3], token.END)

	return &ast.Program{
		Name: leaf(t.Children[1], token.VARNAME),
		Body: code(t.Children[2]),
	}
}

func code(t *parsetree.Tree) ast.Code {
	statements := []ast.Statement{}

	for {
		expect(t, token.NT_CODE, 1, 3)
		if isEmpty(t) {
			break
		}
		statements = append(statements, instruction(t.Children[0]))
		expect(t.Children[1], token.NT_INST_SEP, 1)
		t = t.Children[2]
	}

	return ast.Code{Statements: statements}
}

func instruction(t *parsetree.Tree) ast.Statement {
	expect(t, token.NT_INSTRUCTION, 1)
	child := t.Children[0]

	switch child.Label.Type {
	case token.NT_ASSIGN:
		return assign(child)
	case token.NT_IF:
		return ifStmt(child)
	case token.NT_WHILE:
		return whileStmt(child)
	case token.NT_PRINT:
		return &ast.Print{Name: keywordCall(child, token.NT_PRINT, token.PRINT)}
	case token.NT_READ:
		return &ast.Read{Name: keywordCall(child, token.NT_READ, token.READ)}
	}

	malformed(child, "not an instruction")
	return nil
}

func assign(t *parsetree.Tree) *ast.Assign {
	expect(t, token.NT_ASSIGN, 3)
	leaf(t.Children[1], token.ASSIGN)

	return &ast.Assign{
		Name:  leaf(t.Children[0], token.VARNAME),
		Value: exprArith(t.Children[2]),
	}
}

func exprArith(t *parsetree.Tree) ast.Expression {
	expect(t, token.NT_EXPR_ARITH, 2)
	return chain(mulDiv(t.Children[0]), t.Children[1], token.NT_EXPR_ARITH_PRIME, mulDiv)
}

func mulDiv(t *parsetree.Tree) ast.Expression {
	expect(t, token.NT_MUL_DIV, 2)
	return chain(atom(t.Children[0]), t.Children[1], token.NT_MUL_DIV_PRIME, atom)
}

// chain folds a continuation `op operand continuation | ε` onto left,
// one link at a time, so `a - b - c` becomes ((a - b) - c).
func chain(
	left ast.Expression,
	continuation *parsetree.Tree,
	typ token.TokenType,
	operand func(*parsetree.Tree) ast.Expression,
) ast.Expression {
	for {
		expect(continuation, typ, 1, 3)
		if isEmpty(continuation) {
			return left
		}

		op := continuation.Children[0]
		if !op.IsLeaf() || !op.Label.Type.IsArithmeticOperator() {
			malformed(op, "expected an arithmetic operator")
		}

		left = &ast.BinaryOp{
			Left:     left,
			Operator: op.Label,
			Right:    operand(continuation.Children[1]),
		}
		continuation = continuation.Children[2]
	}
}

func atom(t *parsetree.Tree) ast.Expression {
	expect(t, token.NT_ATOM, 1, 2, 3)

	switch len(t.Children) {
	case 1:
		child := t.Children[0]
		if child.Label.Type == token.VARNAME {
			return &ast.Variable{Identifier: leaf(child, token.VARNAME)}
		}
		return number(leaf(child, token.NUMBER))
	case 2:
		return &ast.UnaryMinus{
			Value:      atom(t.Children[1]),
			MinusToken: leaf(t.Children[0], token.MINUS),
		}
	default:
		leaf(t.Children[0], token.LEFT_PAREN)
		leaf(t.Children[2], token.RIGHT_PAREN)
		return exprArith(t.Children[1])
	}
}

func number(t token.Token) *ast.Number {
	value, err := strconv.ParseInt(t.Lexeme, 10, 32)
	if err != nil {
		malformed(parsetree.Leaf(t), "invalid number literal: %s", err)
	}
	return &ast.Number{Value: int32(value), Token: t}
}

func ifStmt(t *parsetree.Tree) *ast.If {
	expect(t, token.NT_IF, 7)
	tail := t.Children[6]
	expect(tail, token.NT_IF_SEQ, 1, 3)

	stmt := &ast.If{
		Condition: cond(t.Children[2]),
		Then:      code(t.Children[5]),
		IfToken:   leaf(t.Children[0], token.IF),
	}

	if len(tail.Children) == 3 {
		leaf(tail.Children[0], token.ELSE)
		elseBody := code(tail.Children[1])
		stmt.Else = &elseBody
	} else {
		leaf(tail.Children[0], token.END)
	}

	return stmt
}

func cond(t *parsetree.Tree) *ast.Compare {
	expect(t, token.NT_COND, 3)
	comp := t.Children[1]
	expect(comp, token.NT_COMP, 1)

	op := comp.Children[0]
	if !op.IsLeaf() || !op.Label.Type.IsComparativeOperator() {
		malformed(op, "expected a comparison operator")
	}

	return &ast.Compare{
		Left:     exprArith(t.Children[0]),
		Operator: op.Label,
		Right:    exprArith(t.Children[2]),
	}
}

func whileStmt(t *parsetree.Tree) *ast.While {
	expect(t, token.NT_WHILE, 7)

	return &ast.While{
		Condition:  cond(t.Children[2]),
		Body:       code(t.Children[5]),
		WhileToken: leaf(t.Children[0], token.WHILE),
	}
}

// keywordCall keeps the variable of `keyword ( VARNAME )`.
func keywordCall(t *parsetree.Tree, typ token.TokenType, keyword token.TokenType) token.Token {
	expect(t, typ, 4)
	leaf(t.Children[0], keyword)
	return leaf(t.Children[2], token.VARNAME)
}

// Simplify converts a parse tree produced by the parser into an AST.
func Simplify(tree *parsetree.Tree) (result *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			malformedErr, ok := r.(*ast.MalformedTreeError)
			if !ok {
				panic(r)
			}
			result, err = nil, malformedErr
		}
	}()

	if tree == nil {
		return nil, &ast.MalformedTreeError{Stage: "simplify", Node: "<nil>", Reason: "no tree"}
	}

	return program(tree), nil
}
