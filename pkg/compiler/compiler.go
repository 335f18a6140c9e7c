// Package compiler chains the stages: lexing, parsing, simplification,
// the optional declared-before-use check, IR generation and the optional
// IR verification. Each stage runs to completion before the next starts.
package compiler

import (
	"fmt"
	"time"

	"github.com/kartiknair/beginc/pkg/analyzer"
	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/gen"
	"github.com/kartiknair/beginc/pkg/lexer"
	"github.com/kartiknair/beginc/pkg/parser"
	"github.com/kartiknair/beginc/pkg/parsetree"
	"github.com/kartiknair/beginc/pkg/simplifier"
	"github.com/kartiknair/beginc/pkg/token"
)

type Target string

const (
	TargetLLVM Target = "llvm"
	TargetC    Target = "c"
)

type Options struct {
	// Target selects the backend, LLVM IR when empty.
	Target Target
	// Strict rejects reads of variables that were never assigned or read
	// before, in program order.
	Strict bool
	// Verify reads the IR back with the llir assembler. It has no effect
	// on the C target.
	Verify bool
	// SkipGen stops after simplification (and analysis when Strict).
	SkipGen bool
}

type Timings struct {
	Parse    time.Duration
	Simplify time.Duration
	Gen      time.Duration
}

// Result holds what each stage produced. IR is the generated code, LLVM IR
// or C depending on the target.
type Result struct {
	Tokens     []token.Token
	ParseTree  *parsetree.Tree
	Derivation []int
	Program    *ast.Program
	IR         string
	Timings    Timings
}

// Compile runs the pipeline on source. The returned error wraps the typed
// error of the stage that failed; a partial Result is returned alongside
// it so that callers can still inspect the stages that succeeded.
func Compile(source string, opts Options) (*Result, error) {
	result := &Result{}
	if opts.Target == "" {
		opts.Target = TargetLLVM
	}
	start := time.Now()

	tokens, err := lexer.Lex(source)
	if err != nil {
		return result, err
	}
	result.Tokens = tokens

	p := parser.New(tokens)
	tree, err := p.Parse()
	result.Derivation = p.Derivation()
	if err != nil {
		return result, err
	}
	result.ParseTree = tree
	result.Timings.Parse = time.Since(start)

	start = time.Now()
	program, err := simplifier.Simplify(tree)
	if err != nil {
		return result, fmt.Errorf("simplifying parse tree: %w", err)
	}
	result.Program = program

	if opts.Strict {
		if err := analyzer.Analyze(program); err != nil {
			return result, err
		}
	}
	result.Timings.Simplify = time.Since(start)

	if opts.SkipGen {
		return result, nil
	}

	start = time.Now()
	var ir string
	switch opts.Target {
	case TargetLLVM:
		ir, err = gen.LLVM(program)
	case TargetC:
		ir, err = gen.C(program)
	default:
		return result, fmt.Errorf("unknown target: '%s'", opts.Target)
	}
	if err != nil {
		return result, fmt.Errorf("generating %s: %w", opts.Target, err)
	}
	result.IR = ir
	result.Timings.Gen = time.Since(start)

	if opts.Verify && opts.Target == TargetLLVM {
		if err := gen.Verify(ir); err != nil {
			return result, err
		}
	}

	return result, nil
}
