package ast

import (
	"fmt"
	"strings"

	"github.com/kartiknair/beginc/pkg/token"
)

type Program struct {
	Name token.Token
	Body Code
}

// Code is a flat, possibly empty, statement list.
type Code struct {
	Statements []Statement
}

type Statement interface {
	isStatement()
	String() string
}

type Assign struct {
	Name  token.Token
	Value Expression
}

type If struct {
	Condition *Compare
	Then      Code
	Else      *Code

	IfToken token.Token
}

type While struct {
	Condition *Compare
	Body      Code

	WhileToken token.Token
}

type Print struct {
	Name token.Token
}

type Read struct {
	Name token.Token
}

func (*Assign) isStatement() {}
func (*If) isStatement()     {}
func (*While) isStatement()  {}
func (*Print) isStatement()  {}
func (*Read) isStatement()   {}

func (a *Assign) String() string {
	return fmt.Sprintf("%s := %s", a.Name.Lexeme, a.Value)
}

func (i *If) String() string {
	return fmt.Sprintf("if (%s)", i.Condition)
}

func (w *While) String() string {
	return fmt.Sprintf("while (%s)", w.Condition)
}

func (p *Print) String() string {
	return fmt.Sprintf("print(%s)", p.Name.Lexeme)
}

func (r *Read) String() string {
	return fmt.Sprintf("read(%s)", r.Name.Lexeme)
}

type Expression interface {
	isExpression()
	// ErrorToken is the token a diagnostic about the expression points at.
	ErrorToken() token.Token
	String() string
}

type Number struct {
	Value int32
	Token token.Token
}

type Variable struct {
	Identifier token.Token
}

type BinaryOp struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

type UnaryMinus struct {
	Value Expression

	MinusToken token.Token
}

func (*Number) isExpression()     {}
func (*Variable) isExpression()   {}
func (*BinaryOp) isExpression()   {}
func (*UnaryMinus) isExpression() {}

func (n *Number) ErrorToken() token.Token {
	return n.Token
}

func (v *Variable) ErrorToken() token.Token {
	return v.Identifier
}

func (b *BinaryOp) ErrorToken() token.Token {
	return b.Operator
}

func (u *UnaryMinus) ErrorToken() token.Token {
	return u.MinusToken
}

func (n *Number) String() string {
	return n.Token.Lexeme
}

func (v *Variable) String() string {
	return v.Identifier.Lexeme
}

func (b *BinaryOp) String() string {
	return operand(b.Left) + " " + b.Operator.Lexeme + " " + operand(b.Right)
}

func (u *UnaryMinus) String() string {
	return "-" + operand(u.Value)
}

// operand parenthesizes nested operations so that the rendering shows the
// tree shape rather than relying on precedence.
func operand(e Expression) string {
	if _, ok := e.(*BinaryOp); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Compare is the only condition form: a comparison of two expressions.
type Compare struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (c *Compare) String() string {
	return c.Left.String() + " " + c.Operator.Lexeme + " " + c.Right.String()
}

// MalformedTreeError reports a parse tree or AST shape that a later stage
// does not recognize. It never happens on trees produced by the parser.
type MalformedTreeError struct {
	Stage  string
	Node   string
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("%s: malformed tree at %s: %s", e.Stage, e.Node, e.Reason)
}

// Variables lists every variable name mentioned by the program, in order
// of first appearance.
func (p *Program) Variables() []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var expr func(Expression)
	expr = func(e Expression) {
		switch e := e.(type) {
		case *Variable:
			add(e.Identifier.Lexeme)
		case *BinaryOp:
			expr(e.Left)
			expr(e.Right)
		case *UnaryMinus:
			expr(e.Value)
		}
	}

	var code func(Code)
	code = func(c Code) {
		for _, s := range c.Statements {
			switch s := s.(type) {
			case *Assign:
				add(s.Name.Lexeme)
				expr(s.Value)
			case *If:
				expr(s.Condition.Left)
				expr(s.Condition.Right)
				code(s.Then)
				if s.Else != nil {
					code(*s.Else)
				}
			case *While:
				expr(s.Condition.Left)
				expr(s.Condition.Right)
				code(s.Body)
			case *Print:
				add(s.Name.Lexeme)
			case *Read:
				add(s.Name.Lexeme)
			}
		}
	}

	code(p.Body)
	return names
}

// Dump renders the program as an S-expression, one form per node:
//
//	(program p (code (assign x (+ 1 (* 2 3))) (print x)))
func Dump(p *Program) string {
	var sb strings.Builder
	sb.WriteString("(program ")
	sb.WriteString(p.Name.Lexeme)
	sb.WriteByte(' ')
	dumpCode(&sb, p.Body)
	sb.WriteByte(')')
	return sb.String()
}

func dumpCode(sb *strings.Builder, c Code) {
	sb.WriteString("(code")
	for _, s := range c.Statements {
		sb.WriteByte(' ')
		dumpStatement(sb, s)
	}
	sb.WriteByte(')')
}

func dumpStatement(sb *strings.Builder, s Statement) {
	switch s := s.(type) {
	case *Assign:
		fmt.Fprintf(sb, "(assign %s %s)", s.Name.Lexeme, DumpExpression(s.Value))
	case *If:
		fmt.Fprintf(sb, "(if %s ", dumpCompare(s.Condition))
		dumpCode(sb, s.Then)
		if s.Else != nil {
			sb.WriteByte(' ')
			dumpCode(sb, *s.Else)
		}
		sb.WriteByte(')')
	case *While:
		fmt.Fprintf(sb, "(while %s ", dumpCompare(s.Condition))
		dumpCode(sb, s.Body)
		sb.WriteByte(')')
	case *Print:
		fmt.Fprintf(sb, "(print %s)", s.Name.Lexeme)
	case *Read:
		fmt.Fprintf(sb, "(read %s)", s.Name.Lexeme)
	default:
		panic(&MalformedTreeError{Stage: "dump", Node: fmt.Sprintf("%T", s), Reason: "unknown statement"})
	}
}

func dumpCompare(c *Compare) string {
	return fmt.Sprintf("(%s %s %s)", c.Operator.Lexeme, DumpExpression(c.Left), DumpExpression(c.Right))
}

func DumpExpression(e Expression) string {
	switch e := e.(type) {
	case *Number:
		return e.Token.Lexeme
	case *Variable:
		return e.Identifier.Lexeme
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", e.Operator.Lexeme, DumpExpression(e.Left), DumpExpression(e.Right))
	case *UnaryMinus:
		return fmt.Sprintf("(neg %s)", DumpExpression(e.Value))
	}
	panic(&MalformedTreeError{Stage: "dump", Node: fmt.Sprintf("%T", e), Reason: "unknown expression"})
}
