package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/ir"
	"github.com/iridescent-lang/iridescentc/pkg/mips"
	"github.com/iridescent-lang/iridescentc/pkg/sema"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Iridescent Compiler compiles a single program written in the Iridescent
language — a small postfix-parenthesised imperative language — ahead of time
into target assembly. Only the MIPS back-end is implemented; the x64 and IR
dump targets are accepted but rejected with a "not implemented" error.
`, "\n", " ")

var Iridescentc = cli.New(Description).
	WithArg(cli.NewArg("input", "The source (.iri) file to be compiled").WithType(cli.TypeString)).
	WithArg(cli.NewArg("output", "The base name of the compiled output, written as <output>.asm").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("mips", "Compiles to MIPS assembly (the only implemented target)").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("x64", "Compiles to x64 assembly (not implemented)").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("ird", "Dumps the lowered IR instead of assembly (not implemented)").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 2 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	input, outputBase := args[0], args[1]
	if filepath.Ext(input) != ".iri" {
		fmt.Printf("ERROR: Input file %q must end in '.iri'\n", input)
		return -1
	}

	target, err := pickTarget(options)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}
	if target != "mips" {
		fmt.Printf("ERROR: Target %q is not implemented\n", target)
		return -1
	}

	content, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	// Instantiate a parser and extract an 'ast.Program' from the source text.
	program, err := ast.NewParser(bytes.NewReader(content)).Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	// Checks every function body against the type/return/loop rules of the
	// language, and returns the function table the lowerer needs to resolve
	// call sites.
	functions, err := sema.NewAnalyser(program).Check()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'analysis' pass: %s\n", err)
		return -1
	}

	// Lowers the ast.Program to an in-memory/IR representation of its
	// stack-machine counterpart 'ir.Program'.
	lowerer := ir.NewLowerer(functions)
	lowered, err := lowerer.Lower(program)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	// Now, instantiates a code generator for the MIPS (compiled) program.
	codegen := mips.NewCodeGenerator(lowered)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(fmt.Sprintf("%s.asm", outputBase))
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		if _, err := fmt.Fprintf(output, "%s\n", line); err != nil {
			fmt.Printf("ERROR: Unable to write output file: %s\n", err)
			return -1
		}
	}

	return 0
}

// pickTarget resolves which of the three mutually-exclusive target flags was
// passed, defaulting to an explicit error rather than silently picking one
// (spec §6.1 names exactly one of '-mips'/'-x64'/'-ird' per invocation).
func pickTarget(options map[string]string) (string, error) {
	targets := []string{}
	for _, flag := range []string{"mips", "x64", "ird"} {
		if _, enabled := options[flag]; enabled {
			targets = append(targets, flag)
		}
	}
	switch len(targets) {
	case 0:
		return "", fmt.Errorf("no target flag provided, use one of --mips, --x64, --ird")
	case 1:
		return targets[0], nil
	default:
		return "", fmt.Errorf("multiple target flags provided: %s", strings.Join(targets, ", "))
	}
}

func main() { os.Exit(Iridescentc.Run(os.Args, os.Stdout)) }
