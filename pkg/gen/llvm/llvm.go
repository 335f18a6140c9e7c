package llvmgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/token"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var (
	i32    = types.I32.LLString()
	i32Ptr = types.NewPointer(types.I32).LLString()
	i1     = types.I1.LLString()

	opcodes = map[token.TokenType]string{
		token.PLUS:  "add",
		token.MINUS: "sub",
		token.STAR:  "mul",
		token.SLASH: "sdiv",
	}

	predicates = map[token.TokenType]enum.IPred{
		token.EQUAL:   enum.IPredEQ,
		token.LESSER:  enum.IPredSLT,
		token.GREATER: enum.IPredSGT,
	}
)

// Generator lowers one program to LLVM IR. Every counter and name table
// lives here so that independent runs never share state.
type Generator struct {
	runtime *ir.Module
	readInt *ir.Func
	println *ir.Func

	entry   string
	allocas strings.Builder
	body    strings.Builder

	// declared holds the variables that already own a stack slot.
	declared map[string]bool
	// names holds every local name taken in main: user variables, issued
	// temporaries and block labels.
	names map[string]bool

	tempCounter  int
	ifCounter    int
	whileCounter int
}

func New() *Generator {
	return &Generator{}
}

type llvmStr struct {
	raw string
	def *ir.Global
}

func (l *llvmStr) gep() value.Value {
	return constant.NewGetElementPtr(
		types.NewArray(uint64(len(l.raw)), types.I8),
		l.def,
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I32, 0),
	)
}

func createLLVMStr(module *ir.Module, name string, raw string) *llvmStr {
	l := llvmStr{raw: raw}
	l.def = module.NewGlobalDef(name, constant.NewCharArrayFromString(raw))
	l.def.Linkage = enum.LinkagePrivate
	l.def.Immutable = true
	return &l
}

// genRuntime builds the two support functions every program links against:
// readInt scans one signed integer from stdin, println prints one followed
// by a newline.
func (g *Generator) genRuntime() {
	g.runtime = ir.NewModule()

	scanfDeclaration := g.runtime.NewFunc("scanf", types.I32, ir.NewParam("", types.I8Ptr))
	scanfDeclaration.Sig.Variadic = true
	printfDeclaration := g.runtime.NewFunc("printf", types.I32, ir.NewParam("", types.I8Ptr))
	printfDeclaration.Sig.Variadic = true

	readFormat := createLLVMStr(g.runtime, ".strR", "%d\x00")
	printFormat := createLLVMStr(g.runtime, ".strP", "%d\n\x00")

	g.readInt = g.runtime.NewFunc("readInt", types.I32)
	rb := g.readInt.NewBlock("entry")
	slot := rb.NewAlloca(types.I32)
	slot.SetName("slot")
	rb.NewCall(scanfDeclaration, readFormat.gep(), slot)
	read := rb.NewLoad(types.I32, slot)
	read.SetName("value")
	rb.NewRet(read)

	param := ir.NewParam("x", types.I32)
	g.println = g.runtime.NewFunc("println", types.Void, param)
	pb := g.println.NewBlock("entry")
	slot = pb.NewAlloca(types.I32)
	slot.SetName("slot")
	pb.NewStore(param, slot)
	loaded := pb.NewLoad(types.I32, slot)
	loaded.SetName("value")
	pb.NewCall(printfDeclaration, printFormat.gep(), loaded)
	pb.NewRet(nil)
}

func (g *Generator) reset(p *ast.Program) {
	g.allocas.Reset()
	g.body.Reset()
	g.declared = make(map[string]bool)
	g.names = make(map[string]bool)
	g.tempCounter = 0
	g.ifCounter = 0
	g.whileCounter = 0

	// User variables are reserved up front so that no temporary or label
	// issued later can alias one of them.
	for _, name := range p.Variables() {
		g.names[name] = true
	}

	g.entry = "entry"
	for i := 0; g.names[g.entry]; i++ {
		g.entry = "entry" + strconv.Itoa(i)
	}
	g.names[g.entry] = true

	g.genRuntime()
}

// newVariableName returns a fresh temporary, skipping any name already
// taken in main.
func (g *Generator) newVariableName() string {
	name := "v" + strconv.Itoa(g.tempCounter)
	g.tempCounter++
	for g.names[name] {
		name = "v" + strconv.Itoa(g.tempCounter)
		g.tempCounter++
	}
	g.names[name] = true
	return "%" + name
}

// newLabelID takes the next value of counter whose labels are all free and
// reserves them. Labels are built from the prefix and the suffixes.
func (g *Generator) newLabelID(counter *int, prefix string, suffixes ...string) int {
	for {
		id := *counter
		*counter++

		labels := make([]string, 0, len(suffixes)+1)
		labels = append(labels, fmt.Sprintf("%s_%d", prefix, id))
		for _, s := range suffixes {
			labels = append(labels, fmt.Sprintf("%s_%d_%s", prefix, id, s))
		}

		taken := false
		for _, l := range labels {
			if g.names[l] {
				taken = true
			}
		}
		if taken {
			continue
		}

		for _, l := range labels {
			g.names[l] = true
		}
		return id
	}
}

func (g *Generator) emit(format string, args ...interface{}) {
	g.body.WriteByte('\t')
	fmt.Fprintf(&g.body, format, args...)
	g.body.WriteByte('\n')
}

func (g *Generator) comment(format string, args ...interface{}) {
	g.emit("; "+format, args...)
}

func (g *Generator) label(name string) {
	g.body.WriteString(name)
	g.body.WriteString(":\n")
}

func (g *Generator) br(target string) {
	g.emit("br label %%%s", target)
}

func (g *Generator) condBr(condition string, ifTrue string, ifFalse string) {
	g.emit("br %s %s, label %%%s, label %%%s", i1, condition, ifTrue, ifFalse)
}

// declare gives name its stack slot the first time it is written to.
func (g *Generator) declare(name string) {
	if g.declared[name] {
		return
	}
	g.declared[name] = true
	fmt.Fprintf(&g.allocas, "\t%s = alloca %s\n", slot(name), i32)
}

func slot(name string) string {
	return "%" + name
}

func malformed(node interface{}, reason string) {
	panic(&ast.MalformedTreeError{Stage: "llvmgen", Node: fmt.Sprintf("%T", node), Reason: reason})
}

func (g *Generator) genCode(c ast.Code) {
	for _, s := range c.Statements {
		g.genStatement(s)
	}
}

func (g *Generator) genStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assign:
		g.comment("%s", s)
		g.declare(s.Name.Lexeme)
		result := g.genExpression(s.Value)
		g.emit("store %s %s, %s %s", i32, result, i32Ptr, slot(s.Name.Lexeme))
	case *ast.If:
		id := g.newLabelID(&g.ifCounter, "if", "true", "false", "end")
		head := fmt.Sprintf("if_%d", id)
		ifTrue, ifFalse, end := head+"_true", head+"_false", head+"_end"

		g.comment("%s", s)
		g.br(head)
		g.label(head)
		condition := g.genCondition(s.Condition)
		if s.Else != nil {
			g.condBr(condition, ifTrue, ifFalse)
		} else {
			g.condBr(condition, ifTrue, end)
		}

		g.label(ifTrue)
		g.genCode(s.Then)
		g.br(end)

		if s.Else != nil {
			g.label(ifFalse)
			g.comment("else")
			g.genCode(*s.Else)
			g.br(end)
		}

		g.label(end)
	case *ast.While:
		id := g.newLabelID(&g.whileCounter, "while", "true", "end")
		head := fmt.Sprintf("while_%d", id)
		body, end := head+"_true", head+"_end"

		g.comment("%s", s)
		g.br(head)
		g.label(head)
		condition := g.genCondition(s.Condition)
		g.condBr(condition, body, end)

		g.label(body)
		g.genCode(s.Body)
		g.br(head)

		g.label(end)
	case *ast.Print:
		g.comment("%s", s)
		loaded := g.newVariableName()
		g.emit("%s = load %s, %s %s", loaded, i32, i32Ptr, slot(s.Name.Lexeme))
		g.emit("call %s %s(%s %s)", g.println.Sig.RetType.LLString(), g.println.Ident(), i32, loaded)
	case *ast.Read:
		g.comment("%s", s)
		g.declare(s.Name.Lexeme)
		read := g.newVariableName()
		g.emit("%s = call %s %s()", read, g.readInt.Sig.RetType.LLString(), g.readInt.Ident())
		g.emit("store %s %s, %s %s", i32, read, i32Ptr, slot(s.Name.Lexeme))
	default:
		malformed(stmt, "unknown statement")
	}
}

// genExpression emits the instructions computing e and returns the operand
// holding its value: the literal itself for numbers, a fresh temporary
// otherwise.
func (g *Generator) genExpression(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Number:
		return strconv.FormatInt(int64(e.Value), 10)
	case *ast.Variable:
		loaded := g.newVariableName()
		g.emit("%s = load %s, %s %s", loaded, i32, i32Ptr, slot(e.Identifier.Lexeme))
		return loaded
	case *ast.BinaryOp:
		opcode, ok := opcodes[e.Operator.Type]
		if !ok {
			malformed(expr, "unknown operator "+e.Operator.Lexeme)
		}
		left := g.genExpression(e.Left)
		right := g.genExpression(e.Right)
		result := g.newVariableName()
		g.emit("%s = %s %s %s, %s", result, opcode, i32, left, right)
		return result
	case *ast.UnaryMinus:
		operand := g.genExpression(e.Value)
		result := g.newVariableName()
		g.emit("%s = sub %s 0, %s", result, i32, operand)
		return result
	}

	malformed(expr, "unknown expression")
	return ""
}

// genCondition emits the comparison and returns the i1 temporary used
// directly as the branch operand.
func (g *Generator) genCondition(c *ast.Compare) string {
	if c == nil {
		malformed(c, "missing condition")
	}
	predicate, ok := predicates[c.Operator.Type]
	if !ok {
		malformed(c, "unknown comparison "+c.Operator.Lexeme)
	}

	left := g.genExpression(c.Left)
	right := g.genExpression(c.Right)
	result := g.newVariableName()
	g.emit("%s = icmp %s %s %s, %s", result, predicate, i32, left, right)
	return result
}

// Generate lowers p into a complete translation unit: a header comment,
// the runtime functions and main.
func (g *Generator) Generate(p *ast.Program) (result string, err error) {
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

	g.reset(p)
	g.genCode(p.Body)

	var out strings.Builder
	fmt.Fprintf(&out, "; Program %s, generated by beginc.\n\n", p.Name.Lexeme)
	out.WriteString(g.runtime.String())
	fmt.Fprintf(&out, "\ndefine %s @main() {\n", i32)
	out.WriteString(g.entry + ":\n")
	out.WriteString(g.allocas.String())
	out.WriteString(g.body.String())
	fmt.Fprintf(&out, "\tret %s 0\n}\n", i32)

	return out.String(), nil
}

func Gen(p *ast.Program) (string, error) {
	return New().Generate(p)
}
