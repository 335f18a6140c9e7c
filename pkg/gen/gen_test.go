package gen

import (
	"testing"

	"github.com/kartiknair/beginc/pkg/lexer"
	"github.com/kartiknair/beginc/pkg/parser"
	"github.com/kartiknair/beginc/pkg/simplifier"
	"github.com/nalgeon/be"
)

func compile(t *testing.T, source string) string {
	t.Helper()
	tokens, err := lexer.Lex(source)
	be.Err(t, err, nil)
	tree, err := parser.Parse(tokens)
	be.Err(t, err, nil)
	program, err := simplifier.Simplify(tree)
	be.Err(t, err, nil)
	ir, err := LLVM(program)
	be.Err(t, err, nil)
	return ir
}

func TestVerifyGeneratedPrograms(t *testing.T) {
	sources := []string{
		"BEGIN p END",
		"BEGIN p x := 1 + 2 * 3, print(x) END",
		"BEGIN p read(x), if (x > 0) then print(x) else x := 0 end END",
		"BEGIN p read(x), if (x > 0) then end END",
		"BEGIN p i := 0, while (i < 3) do i := i + 1 end, print(i) END",
		`BEGIN fact
			read(n),
			r := 1,
			while (n > 1) do
				r := r * n,
				n := n - 1
			end,
			print(r)
		END`,
		`BEGIN names
			v0 := 1, entry := v0, if_0 := 2, while_0 := 3,
			if (v0 = 1) then while (v0 < 5) do v0 := v0 + 1 end end,
			print(v0)
		END`,
	}

	for _, source := range sources {
		be.Err(t, Verify(compile(t, source)), nil)
	}
}

func TestVerifyUnassignedVariable(t *testing.T) {
	// y never gets a slot, so the load refers to an undefined local.
	ir := compile(t, "BEGIN p print(y) END")
	be.Err(t, Verify(ir))
}

func TestVerifyRejectsBrokenIR(t *testing.T) {
	tests := []struct {
		name string
		ir   string
		want string
	}{
		{
			name: "syntax",
			ir:   "define i32 @main() {\nentry:\n\tret i32\n",
			want: "verify:",
		},
		{
			name: "unreachable block",
			ir:   "define i32 @main() {\nentry:\n\tret i32 0\ndead:\n\tret i32 1\n}\n",
			want: "dead is unreachable",
		},
		{
			name: "unreachable loop",
			ir: "define i32 @main() {\nentry:\n\tret i32 0\n" +
				"loop:\n\tbr label %loop\n}\n",
			want: "loop is unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Err(t, Verify(tt.ir), tt.want)
		})
	}
}

func TestVerifyIgnoresDeclarations(t *testing.T) {
	ir := "declare i32 @printf(i8*, ...)\n\ndefine i32 @main() {\nentry:\n\tbr label %exit\nexit:\n\tret i32 0\n}\n"
	be.Err(t, Verify(ir), nil)
}
