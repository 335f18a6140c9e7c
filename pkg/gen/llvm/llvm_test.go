package llvmgen

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/lexer"
	"github.com/kartiknair/beginc/pkg/parser"
	"github.com/kartiknair/beginc/pkg/simplifier"
	"github.com/kartiknair/beginc/pkg/token"
	"github.com/nalgeon/be"
)

func generate(t *testing.T, source string) string {
	t.Helper()
	tokens, err := lexer.Lex(source)
	be.Err(t, err, nil)
	tree, err := parser.Parse(tokens)
	be.Err(t, err, nil)
	program, err := simplifier.Simplify(tree)
	be.Err(t, err, nil)
	ir, err := Gen(program)
	be.Err(t, err, nil)
	return ir
}

// mainBody returns the lines of @main, trimmed, without the signature
// and the closing brace.
func mainBody(t *testing.T, ir string) []string {
	t.Helper()
	start := strings.Index(ir, "define i32 @main() {")
	be.True(t, start >= 0)

	var lines []string
	for _, line := range strings.Split(ir[start:], "\n")[1:] {
		line = strings.TrimSpace(line)
		if line == "}" {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

func TestGenerateHeaderAndRuntime(t *testing.T) {
	ir := generate(t, "BEGIN demo END")

	be.True(t, strings.HasPrefix(ir, "; Program demo, generated by beginc.\n"))
	be.True(t, strings.Contains(ir, "declare i32 @scanf("))
	be.True(t, strings.Contains(ir, "declare i32 @printf("))
	be.True(t, strings.Contains(ir, "define i32 @readInt()"))
	be.True(t, strings.Contains(ir, "define void @println(i32 %x)"))
	be.True(t, strings.Contains(ir, `c"%d\0A\00"`))

	be.Equal(t, mainBody(t, ir), []string{"entry:", "ret i32 0"})
}

func TestGenerateArithmetic(t *testing.T) {
	ir := generate(t, "BEGIN p x := 1 + 2 * 3, print(x) END")

	be.Equal(t, mainBody(t, ir), []string{
		"entry:",
		"%x = alloca i32",
		"; x := 1 + (2 * 3)",
		"%v0 = mul i32 2, 3",
		"%v1 = add i32 1, %v0",
		"store i32 %v1, i32* %x",
		"; print(x)",
		"%v2 = load i32, i32* %x",
		"call void @println(i32 %v2)",
		"ret i32 0",
	})
}

func TestGenerateOperators(t *testing.T) {
	ir := generate(t, "BEGIN p read(a), b := a - 1 / a, c := -b END")

	body := strings.Join(mainBody(t, ir), "\n")
	be.True(t, strings.Contains(body, "%v0 = call i32 @readInt()\nstore i32 %v0, i32* %a"))
	be.True(t, strings.Contains(body, "%v1 = load i32, i32* %a"))
	be.True(t, strings.Contains(body, "%v2 = load i32, i32* %a\n%v3 = sdiv i32 1, %v2\n%v4 = sub i32 %v1, %v3"))
	be.True(t, strings.Contains(body, "%v5 = load i32, i32* %b\n%v6 = sub i32 0, %v5\nstore i32 %v6, i32* %c"))
}

func TestGenerateIfElse(t *testing.T) {
	ir := generate(t, "BEGIN p read(x), if (x > 0) then print(x) else x := 0 end END")

	be.Equal(t, mainBody(t, ir), []string{
		"entry:",
		"%x = alloca i32",
		"; read(x)",
		"%v0 = call i32 @readInt()",
		"store i32 %v0, i32* %x",
		"; if (x > 0)",
		"br label %if_0",
		"if_0:",
		"%v1 = load i32, i32* %x",
		"%v2 = icmp sgt i32 %v1, 0",
		"br i1 %v2, label %if_0_true, label %if_0_false",
		"if_0_true:",
		"; print(x)",
		"%v3 = load i32, i32* %x",
		"call void @println(i32 %v3)",
		"br label %if_0_end",
		"if_0_false:",
		"; else",
		"; x := 0",
		"store i32 0, i32* %x",
		"br label %if_0_end",
		"if_0_end:",
		"ret i32 0",
	})
}

func TestGenerateIfWithoutElse(t *testing.T) {
	ir := generate(t, "BEGIN p x := 1, if (x = 1) then print(x) end END")
	body := mainBody(t, ir)

	be.True(t, contains(body, "%v0 = load i32, i32* %x"))
	be.True(t, contains(body, "%v1 = icmp eq i32 %v0, 1"))
	be.True(t, contains(body, "br i1 %v1, label %if_0_true, label %if_0_end"))
	be.True(t, !contains(body, "if_0_false:"))
}

func TestGenerateWhile(t *testing.T) {
	ir := generate(t, "BEGIN p i := 0, while (i < 3) do i := i + 1 end END")

	be.Equal(t, mainBody(t, ir), []string{
		"entry:",
		"%i = alloca i32",
		"; i := 0",
		"store i32 0, i32* %i",
		"; while (i < 3)",
		"br label %while_0",
		"while_0:",
		"%v0 = load i32, i32* %i",
		"%v1 = icmp slt i32 %v0, 3",
		"br i1 %v1, label %while_0_true, label %while_0_end",
		"while_0_true:",
		"; i := i + 1",
		"%v2 = load i32, i32* %i",
		"%v3 = add i32 %v2, 1",
		"store i32 %v3, i32* %i",
		"br label %while_0",
		"while_0_end:",
		"ret i32 0",
	})
}

func TestGenerateSingleSlotPerVariable(t *testing.T) {
	ir := generate(t, `BEGIN p
		x := 1,
		while (x < 10) do
			read(x),
			x := x * 2
		end,
		x := 0
	END`)

	body := strings.Join(mainBody(t, ir), "\n")
	be.Equal(t, strings.Count(body, "%x = alloca i32"), 1)
	// The runtime's own slot never shares a name with a program variable.
	be.Equal(t, strings.Count(ir, "%x = alloca i32"), 1)
	be.True(t, strings.Contains(ir, "%slot = alloca i32"))
	// Slots live in the entry block, never inside the loop.
	be.Equal(t, mainBody(t, ir)[1], "%x = alloca i32")
}

var definition = regexp.MustCompile(`^(%[A-Za-z0-9_.]+) = `)
var labelDef = regexp.MustCompile(`^([A-Za-z0-9_.]+):$`)

func TestGenerateUniqueNames(t *testing.T) {
	ir := generate(t, `BEGIN p
		read(n),
		i := 0,
		while (i < n) do
			if (i = 2 * (i / 2)) then
				if (i > 4) then print(i) end
			else
				while (n < 0) do n := n + 1 end
			end,
			i := i + 1
		end,
		if (n = 0) then print(n) end
	END`)

	defined := map[string]bool{}
	for _, line := range mainBody(t, ir) {
		name := ""
		if m := definition.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := labelDef.FindStringSubmatch(line); m != nil {
			name = "%" + m[1]
		}
		if name == "" {
			continue
		}
		be.True(t, !defined[name])
		defined[name] = true
	}

	be.True(t, defined["%if_0"])
	be.True(t, defined["%if_1"])
	be.True(t, defined["%if_2"])
	be.True(t, defined["%while_0"])
	be.True(t, defined["%while_1"])
}

func TestGenerateAvoidsUserNames(t *testing.T) {
	ir := generate(t, `BEGIN p
		v0 := 1,
		entry := v0,
		if_0 := 2,
		while_0_end := 3,
		if (v0 < 2) then print(v0) end,
		while (v0 < 2) do v0 := v0 + 1 end
	END`)
	body := mainBody(t, ir)

	be.Equal(t, body[0], "entry0:")
	be.True(t, contains(body, "%v0 = alloca i32"))
	be.True(t, contains(body, "%v1 = load i32, i32* %v0"))
	be.True(t, contains(body, "store i32 %v1, i32* %entry"))
	be.True(t, contains(body, "if_1:"))
	be.True(t, !contains(body, "if_0:"))
	be.True(t, contains(body, "while_1:"))
	be.True(t, !contains(body, "while_0:"))
}

func TestGenerateIsDeterministic(t *testing.T) {
	source := "BEGIN p read(x), while (x > 0) do print(x), x := x - 1 end END"
	be.Equal(t, generate(t, source), generate(t, source))

	tokens, _ := lexer.Lex(source)
	tree, _ := parser.Parse(tokens)
	program, _ := simplifier.Simplify(tree)

	g := New()
	first, err := g.Generate(program)
	be.Err(t, err, nil)
	second, err := g.Generate(program)
	be.Err(t, err, nil)
	be.Equal(t, first, second)
}

func TestGenerateMalformed(t *testing.T) {
	_, err := Gen(nil)
	var malformed *ast.MalformedTreeError
	be.True(t, errors.As(err, &malformed))

	program := &ast.Program{
		Name: token.Token{Lexeme: "p", Type: token.VARNAME},
		Body: ast.Code{Statements: []ast.Statement{
			&ast.Assign{Name: token.Token{Lexeme: "x", Type: token.VARNAME}, Value: &ast.BinaryOp{
				Left:     &ast.Number{Value: 1, Token: token.Token{Lexeme: "1", Type: token.NUMBER}},
				Operator: token.Token{Lexeme: "=", Type: token.EQUAL},
				Right:    &ast.Number{Value: 2, Token: token.Token{Lexeme: "2", Type: token.NUMBER}},
			}},
		}},
	}
	ir, err := Gen(program)
	be.Equal(t, ir, "")
	be.Err(t, err, "unknown operator =")
}

func contains(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}
