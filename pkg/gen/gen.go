package gen

import (
	"fmt"

	"github.com/kartiknair/beginc/pkg/ast"
	cgen "github.com/kartiknair/beginc/pkg/gen/c"
	llvmgen "github.com/kartiknair/beginc/pkg/gen/llvm"
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

func C(p *ast.Program) (string, error) {
	return cgen.Gen(p)
}

func LLVM(p *ast.Program) (string, error) {
	return llvmgen.Gen(p)
}

// Verify reads generated IR back with the llir assembler and checks that
// every defined function is made of uniquely named basic blocks, each
// ending in a terminator and reachable from the entry block.
func Verify(source string) error {
	m, err := asm.ParseString("", source)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	for _, f := range m.Funcs {
		if err := verifyFunc(f); err != nil {
			return fmt.Errorf("verify: %s: %w", f.Ident(), err)
		}
	}

	return nil
}

func verifyFunc(f *ir.Func) error {
	// Declarations have no body.
	if len(f.Blocks) == 0 {
		return nil
	}

	names := make(map[string]bool)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("block %s has no terminator", b.Name())
		}
		if names[b.Name()] {
			return fmt.Errorf("block %s is defined twice", b.Name())
		}
		names[b.Name()] = true
	}

	reached := map[*ir.Block]bool{f.Blocks[0]: true}
	work := []*ir.Block{f.Blocks[0]}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, succ := range b.Term.Succs() {
			if !reached[succ] {
				reached[succ] = true
				work = append(work, succ)
			}
		}
	}

	for _, b := range f.Blocks {
		if !reached[b] {
			return fmt.Errorf("block %s is unreachable", b.Name())
		}
	}

	return nil
}
