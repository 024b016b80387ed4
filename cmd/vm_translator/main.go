package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"n2t.dev/toolchain/pkg/asm"
	"n2t.dev/toolchain/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "The bytecode (.vm) file or directory to be compiled")).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm), defaults to the derived path").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes bootstrap code in the final .asm file").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	outputPath := options["output"]
	if outputPath == "" {
		derived, err := vm.DerivePath(args[0])
		if err != nil {
			fmt.Printf("ERROR: Unable to derive output path: %s\n", err)
			return -1
		}
		outputPath = derived
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	_, bootstrap := options["bootstrap"]
	translator := vm.Translator{Bootstrap: bootstrap}
	// Walks the input (a single .vm file or a directory of them, in lexicographic order),
	// parsing and lowering each translation unit with its own 'vm.Lowerer' before
	// concatenating the results into a single 'asm.Program'.
	asmProgram, err := translator.Translate(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'translate' pass: %s\n", err)
		return -1
	}

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
