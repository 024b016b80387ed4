package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"n2t.dev/toolchain/pkg/jack"
)

var Description = strings.ReplaceAll(`
The Jack Compiler parses programs (composed of multiple classes/files) written in the
Jack language and emits their parse tree as XML. The Jack language is a higher-level OOP
language tailored for use with the Hack computer architecture.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	WithArg(cli.NewArg("input", "The source (.jack) file or directory to be compiled")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	compiler := jack.Compiler{}
	// Walks the input (a single .jack file or a directory of them) and emits one
	// parse-tree XML document per translation unit, per §4.8's output contract.
	outputs, err := compiler.Compile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'compile' pass: %s\n", err)
		return -1
	}

	for path, xml := range outputs {
		output, err := os.Create(path)
		if err != nil {
			fmt.Printf("ERROR: Unable to open output file: %s\n", err)
			return -1
		}
		if _, err := output.WriteString(xml); err != nil {
			fmt.Printf("ERROR: Unable to write output file: %s\n", err)
			output.Close()
			return -1
		}
		output.Close()
	}

	return 0
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
