package cgen

import (
	"fmt"
	"strings"

	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/token"
)

// Arithmetic goes through unsigned helpers so that overflow wraps the way
// the LLVM backend's add/sub/mul do instead of being undefined.
const prelude = `#include <stdint.h>
#include <stdio.h>

static int32_t readInt(void) {
	int32_t x = 0;
	if (scanf("%d", &x) != 1) {
		x = 0;
	}
	return x;
}

static void println(int32_t x) {
	printf("%d\n", x);
}

static int32_t beginc_add(int32_t a, int32_t b) { return (int32_t)((uint32_t)a + (uint32_t)b); }
static int32_t beginc_sub(int32_t a, int32_t b) { return (int32_t)((uint32_t)a - (uint32_t)b); }
static int32_t beginc_mul(int32_t a, int32_t b) { return (int32_t)((uint32_t)a * (uint32_t)b); }
static int32_t beginc_div(int32_t a, int32_t b) { return a / b; }
`

var helpers = map[token.TokenType]string{
	token.PLUS:  "beginc_add",
	token.MINUS: "beginc_sub",
	token.STAR:  "beginc_mul",
	token.SLASH: "beginc_div",
}

var comparisons = map[token.TokenType]string{
	token.EQUAL:   "==",
	token.LESSER:  "<",
	token.GREATER: ">",
}

// Variables are prefixed so that no source name can clash with a C
// keyword or with the prelude.
func genVariable(name string) string {
	return "var_" + name
}

func malformed(node interface{}, reason string) {
	panic(&ast.MalformedTreeError{Stage: "cgen", Node: fmt.Sprintf("%T", node), Reason: reason})
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}

func genStatement(stmt ast.Statement, depth int) string {
	switch s := stmt.(type) {
	case *ast.Assign:
		return fmt.Sprintf("%s%s = %s;\n", indent(depth), genVariable(s.Name.Lexeme), genExpression(s.Value))
	case *ast.If:
		return genIfStatement(s, depth)
	case *ast.While:
		return fmt.Sprintf(
			"%swhile (%s) %s\n",
			indent(depth),
			genCondition(s.Condition),
			genBlock(s.Body, depth),
		)
	case *ast.Print:
		return fmt.Sprintf("%sprintln(%s);\n", indent(depth), genVariable(s.Name.Lexeme))
	case *ast.Read:
		return fmt.Sprintf("%s%s = readInt();\n", indent(depth), genVariable(s.Name.Lexeme))
	}

	malformed(stmt, "unknown statement")
	return ""
}

func genIfStatement(s *ast.If, depth int) string {
	elseStmt := ""

	if s.Else != nil {
		elseStmt = " else " + genBlock(*s.Else, depth)
	}

	return fmt.Sprintf(
		"%sif (%s) %s%s\n",
		indent(depth),
		genCondition(s.Condition),
		genBlock(s.Then, depth),
		elseStmt,
	)
}

func genBlock(c ast.Code, depth int) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, statement := range c.Statements {
		sb.WriteString(genStatement(statement, depth+1))
	}
	sb.WriteString(indent(depth))
	sb.WriteString("}")
	return sb.String()
}

func genCondition(c *ast.Compare) string {
	if c == nil {
		malformed(c, "missing condition")
	}
	op, ok := comparisons[c.Operator.Type]
	if !ok {
		malformed(c, "unknown comparison "+c.Operator.Lexeme)
	}

	return fmt.Sprintf("%s %s %s", genExpression(c.Left), op, genExpression(c.Right))
}

func genExpression(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Number:
		return fmt.Sprintf("%d", e.Value)
	case *ast.Variable:
		return genVariable(e.Identifier.Lexeme)
	case *ast.BinaryOp:
		helper, ok := helpers[e.Operator.Type]
		if !ok {
			malformed(expr, "unknown operator "+e.Operator.Lexeme)
		}
		return fmt.Sprintf("%s(%s, %s)", helper, genExpression(e.Left), genExpression(e.Right))
	case *ast.UnaryMinus:
		return fmt.Sprintf("beginc_sub(0, %s)", genExpression(e.Value))
	}

	malformed(expr, "unknown expression")
	return ""
}

// Gen translates p into a standalone C translation unit. Every variable is
// declared once at the top of main, mirroring the stack slots of the LLVM
// backend.
func Gen(p *ast.Program) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			malformedErr, ok := r.(*ast.MalformedTreeError)
			if !ok {
				panic(r)
			}
			result, err = "", malformedErr
		}
	}()

	if p == nil {
		malformed(p, "no program")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// Program %s, generated by beginc.\n", p.Name.Lexeme)
	sb.WriteString(prelude)
	sb.WriteString("\nint main(void) {\n")
	for _, name := range p.Variables() {
		fmt.Fprintf(&sb, "\tint32_t %s = 0;\n", genVariable(name))
	}
	for _, statement := range p.Body.Statements {
		sb.WriteString(genStatement(statement, 1))
	}
	sb.WriteString("\treturn 0;\n}\n")

	return sb.String(), nil
}
