// Package analyzer holds the optional declared-before-use check.
//
// The code generator gives a variable its stack slot when it is first
// assigned or read into, and emits loads for any other use without
// checking. A program that reads a variable before either happens
// therefore compiles into IR that loads from a slot that never existed.
// Analyze rejects such programs up front instead.
package analyzer

import (
	"fmt"

	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/token"
)

type SemanticError struct {
	Identifier token.Token
	Message    string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("analysis-error: %s: %s", e.Identifier.Pos, e.Message)
}

func (e *SemanticError) Position() token.Pos {
	return e.Identifier.Pos
}

type Analyzer struct {
	// declared follows program order, the same order in which the
	// generator materializes slots.
	declared map[string]bool
}

func (a *Analyzer) analysisError(t token.Token, message string) {
	panic(&SemanticError{Identifier: t, Message: message})
}

func (a *Analyzer) use(t token.Token) {
	if !a.declared[t.Lexeme] {
		a.analysisError(t, fmt.Sprintf(
			"Variable '%s' is used before it is assigned or read.",
			t.Lexeme,
		))
	}
}

func (a *Analyzer) analyzeCode(c ast.Code) {
	for _, s := range c.Statements {
		a.analyzeStatement(s)
	}
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assign:
		// x := x + 1 reads x before its first assignment completes.
		a.analyzeExpression(s.Value)
		a.declared[s.Name.Lexeme] = true
	case *ast.If:
		a.analyzeCondition(s.Condition)
		a.analyzeCode(s.Then)
		if s.Else != nil {
			a.analyzeCode(*s.Else)
		}
	case *ast.While:
		a.analyzeCondition(s.Condition)
		a.analyzeCode(s.Body)
	case *ast.Print:
		a.use(s.Name)
	case *ast.Read:
		a.declared[s.Name.Lexeme] = true
	default:
		panic(&ast.MalformedTreeError{Stage: "analyzer", Node: fmt.Sprintf("%T", stmt), Reason: "unknown statement"})
	}
}

func (a *Analyzer) analyzeCondition(c *ast.Compare) {
	a.analyzeExpression(c.Left)
	a.analyzeExpression(c.Right)
}

func (a *Analyzer) analyzeExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Number:
	case *ast.Variable:
		a.use(e.ErrorToken())
	case *ast.BinaryOp:
		a.analyzeExpression(e.Left)
		a.analyzeExpression(e.Right)
	case *ast.UnaryMinus:
		a.analyzeExpression(e.Value)
	default:
		panic(&ast.MalformedTreeError{Stage: "analyzer", Node: fmt.Sprintf("%T", expr), Reason: "unknown expression"})
	}
}

// Analyze returns the first use of a variable that precedes, in program
// order, every assignment and read of it.
func Analyze(p *ast.Program) (err error) {
	a := Analyzer{declared: make(map[string]bool)}

	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *SemanticError:
				err = e
			case *ast.MalformedTreeError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	a.analyzeCode(p.Body)
	return nil
}
