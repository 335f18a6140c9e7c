package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/repr"
	"github.com/kartiknair/beginc/pkg/ast"
	"github.com/kartiknair/beginc/pkg/compiler"
	"github.com/kartiknair/beginc/pkg/diag"
	"github.com/kartiknair/beginc/pkg/parser"
	"github.com/urfave/cli/v2"
)

var debugMessages = false

func readSource(filename string) string {
	code, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("Failed while attempting to read source file.\n%s", err.Error())
	}
	return string(code)
}

func compileFile(filename string, opts compiler.Options) *compiler.Result {
	source := readSource(filename)

	result, err := compiler.Compile(source, opts)
	if err != nil {
		log.Fatal(diag.Render(err, source))
	}

	if debugMessages {
		fmt.Fprintf(os.Stderr, "time: %dus for lexing and parsing\n", result.Timings.Parse.Microseconds())
		fmt.Fprintf(os.Stderr, "time: %dus for tree simplification\n", result.Timings.Simplify.Microseconds())
		if !opts.SkipGen {
			fmt.Fprintf(os.Stderr, "time: %dus to generate LLVM IR\n", result.Timings.Gen.Microseconds())
		}
	}

	return result
}

// languages maps a target to the language flag passed to the C compiler.
var languages = map[compiler.Target]string{
	compiler.TargetLLVM: "ir",
	compiler.TargetC:    "c",
}

func compileIRToExecutable(ir string, target compiler.Target, cc string, exePath string) {
	compileCommand := exec.Command(
		cc,
		"-x",
		languages[target],
		"-o",
		exePath,
		"-",
	)

	if debugMessages {
		fmt.Fprintln(os.Stderr, compileCommand)
	}
	compileCommand.Stdout = os.Stdout
	compileCommand.Stderr = os.Stderr
	compileCommand.Stdin = strings.NewReader(ir)

	start := time.Now()

	err := compileCommand.Run()
	if err != nil {
		log.Fatalf("Failed while compiling %s to executable. %s", target, err.Error())
	}

	if debugMessages {
		fmt.Fprintf(os.Stderr, "time: %dms for %s to compile and link.\n", time.Since(start).Milliseconds(), cc)
	}
}

func run(filename string, cc string, opts compiler.Options) {
	result := compileFile(filename, opts)

	tmpDir, err := os.MkdirTemp("", "beginc-tmp--*")
	if err != nil {
		log.Fatalf("Failed while creating temp directory.\n%s", err.Error())
	}
	defer os.RemoveAll(tmpDir)

	exePath := filepath.Join(tmpDir, "beginc-exe.out")
	compileIRToExecutable(result.IR, opts.Target, cc, exePath)

	runCmd := exec.Command(exePath)
	runCmd.Stdin = os.Stdin
	runCmd.Stdout = os.Stdout
	runCmd.Stderr = os.Stderr

	err = runCmd.Run()
	if err != nil {
		log.Fatalf("Failed to run compiled binary.\n%s", err.Error())
	}
}

func writeOutput(output string, content string) error {
	if output == "" || output == "-" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	return os.WriteFile(output, []byte(content), 0o644)
}

func build(filename string, output string, exe string, cc string, opts compiler.Options) error {
	result := compileFile(filename, opts)

	if exe != "" {
		compileIRToExecutable(result.IR, opts.Target, cc, exe)
	}

	if exe == "" || output != "" {
		return writeOutput(output, result.IR)
	}
	return nil
}

func dumpDerivation(derivation []int, verbose bool) string {
	var sb strings.Builder
	if !verbose {
		parts := make([]string, len(derivation))
		for i, rule := range derivation {
			parts[i] = strconv.Itoa(rule)
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteByte('\n')
		return sb.String()
	}

	for _, rule := range derivation {
		fmt.Fprintf(&sb, "%3d  %s\n", rule, parser.Rules[rule])
	}
	return sb.String()
}

func dumpTree(result *compiler.Result, simplified bool, format string) (string, error) {
	switch format {
	case "text":
		if simplified {
			return ast.Dump(result.Program) + "\n", nil
		}
		return result.ParseTree.String(), nil
	case "sexpr":
		if simplified {
			return ast.Dump(result.Program) + "\n", nil
		}
		return result.ParseTree.SExpr() + "\n", nil
	case "repr":
		if simplified {
			return repr.String(result.Program, repr.Indent("  ")) + "\n", nil
		}
		return repr.String(result.ParseTree, repr.Indent("  ")) + "\n", nil
	}
	return "", fmt.Errorf("unknown tree format: '%s'", format)
}

func parseTarget(emit string) (compiler.Target, error) {
	target := compiler.Target(emit)
	if _, ok := languages[target]; !ok {
		return "", fmt.Errorf("unknown target: '%s', expected llvm or c", emit)
	}
	return target, nil
}

func singleSourceFile(c *cli.Context) (string, error) {
	if c.Args().Len() > 1 {
		return "", errors.New(`

Too many arguments provided.

If you've provided flags make sure they go before the arguments.
    Wrong: $ beginc build prog.bc -o prog.ll
    Right: $ beginc build -o prog.ll prog.bc
`)
	}

	filename := c.Args().First()
	if filename == "" {
		return "", errors.New("Source file not provided.")
	}
	return filename, nil
}

func main() {
	var (
		outputFile     string
		executableFile string
		emit           string
		ccPath         string
		strict         bool
		verify         bool
		simplified     bool
		treeFormat     string
		derivation     bool
		rules          bool
	)

	ccFlag := &cli.StringFlag{
		Name:        "cc",
		Value:       "clang",
		Usage:       "C compiler used to turn the IR into an executable.",
		EnvVars:     []string{"BEGINC_CC"},
		Destination: &ccPath,
	}
	emitFlag := &cli.StringFlag{
		Name:        "emit",
		Value:       string(compiler.TargetLLVM),
		Usage:       "Generated language, llvm or c.",
		Destination: &emit,
	}
	strictFlag := &cli.BoolFlag{
		Name:        "strict",
		Usage:       "Reject reads of variables that were never assigned or read before.",
		Destination: &strict,
	}

	app := &cli.App{
		Name:  "beginc",
		Usage: "Compiles BEGIN ... END programs to LLVM IR.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "Print stage timings to stderr.",
				Destination: &debugMessages,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Compiles the provided source file to LLVM IR (or C).",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "output",
						Aliases:     []string{"o"},
						Usage:       "File the generated code is written to (stdout by default).",
						Destination: &outputFile,
					},
					&cli.StringFlag{
						Name:        "exe",
						Usage:       "Also compile the output to an executable with this name.",
						Destination: &executableFile,
					},
					&cli.BoolFlag{
						Name:        "verify",
						Usage:       "Read the generated IR back and check its basic blocks.",
						Destination: &verify,
					},
					emitFlag,
					ccFlag,
					strictFlag,
				},
				Action: func(c *cli.Context) error {
					filename, err := singleSourceFile(c)
					if err != nil {
						return err
					}
					target, err := parseTarget(emit)
					if err != nil {
						return err
					}
					opts := compiler.Options{Target: target, Strict: strict, Verify: verify}
					return build(filename, outputFile, executableFile, ccPath, opts)
				},
			},
			{
				Name:  "run",
				Usage: "Builds and immediately runs the provided source file.",
				Flags: []cli.Flag{emitFlag, ccFlag, strictFlag},
				Action: func(c *cli.Context) error {
					filename, err := singleSourceFile(c)
					if err != nil {
						return err
					}
					target, err := parseTarget(emit)
					if err != nil {
						return err
					}
					run(filename, ccPath, compiler.Options{Target: target, Strict: strict, Verify: true})
					return nil
				},
			},
			{
				Name:  "tree",
				Usage: "Prints the parse tree (or the simplified tree) of the provided source file.",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "simplified",
						Aliases:     []string{"s"},
						Usage:       "Print the abstract syntax tree instead of the parse tree.",
						Destination: &simplified,
					},
					&cli.StringFlag{
						Name:        "format",
						Aliases:     []string{"f"},
						Value:       "text",
						Usage:       "One of: text, sexpr, repr.",
						Destination: &treeFormat,
					},
					&cli.BoolFlag{
						Name:        "derivation",
						Aliases:     []string{"d"},
						Usage:       "Print the left-most derivation before the tree.",
						Destination: &derivation,
					},
					&cli.BoolFlag{
						Name:        "rules",
						Usage:       "Spell out each rule of the derivation.",
						Destination: &rules,
					},
					strictFlag,
				},
				Action: func(c *cli.Context) error {
					filename, err := singleSourceFile(c)
					if err != nil {
						return err
					}

					result := compileFile(filename, compiler.Options{Strict: strict, SkipGen: true})

					if derivation {
						fmt.Print(dumpDerivation(result.Derivation, rules))
					}

					dump, err := dumpTree(result, simplified, treeFormat)
					if err != nil {
						return err
					}
					fmt.Print(dump)
					return nil
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
