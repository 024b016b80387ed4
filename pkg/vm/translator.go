package vm

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"n2t.dev/toolchain/pkg/asm"
	"n2t.dev/toolchain/pkg/errs"
)

func ioErrorf(path string, err error) error { return fmt.Errorf("%w: %s: %v", errs.IoError, path, err) }

// Bootstrap is the prologue that sets SP to its base location and transfers
// control to Sys.init, prepended to a translated program when requested.
var Bootstrap = asm.Program{
	asm.AInstruction{Location: "256"},
	asm.CInstruction{Dest: "D", Comp: "A"},
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "M", Comp: "D"},
	asm.AInstruction{Location: "Sys.init"},
	asm.CInstruction{Comp: "0", Jump: "JMP"},
}

// Translator is the library-level entry point for §6's VM Translator: given a
// single .vm file or a directory of .vm files, it derives the output path and
// produces the concatenated, lowered asm.Program.
type Translator struct {
	Bootstrap bool
}

// DerivePath implements §6's VM Translator output-path rule: a file gets its
// extension swapped to '.asm'; a directory produces '<dir>/<dir>.asm'.
func DerivePath(input string) (string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return "", ioErrorf(input, err)
	}
	if info.IsDir() {
		base := filepath.Base(filepath.Clean(input))
		return filepath.Join(input, base+".asm"), nil
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".asm", nil
}

// collectUnits walks 'input' and returns every .vm file found, in lexicographic
// order by base name (§5) — a single file is returned as a one-element slice.
// Two units sharing a base name (their static prefix, once the extension is
// stripped) are rejected as an errs.SymbolConflict: their 'static' variables
// and labels would otherwise collide once lowered into the same ROM image.
func collectUnits(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, ioErrorf(input, err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var units []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".vm" {
			return nil
		}
		units = append(units, path)
		return nil
	})
	if err != nil {
		return nil, ioErrorf(input, err)
	}

	sort.Slice(units, func(i, j int) bool {
		return filepath.Base(units[i]) < filepath.Base(units[j])
	})

	seen := map[string]string{}
	for _, unit := range units {
		prefix := strings.TrimSuffix(filepath.Base(unit), filepath.Ext(unit))
		if other, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("%w: %q and %q both translate to static prefix %q", errs.SymbolConflict, other, unit, prefix)
		}
		seen[prefix] = unit
	}

	return units, nil
}

// Translate reads every .vm unit under 'input' (or 'input' itself, if it's a
// single file), lowers each with its own fresh Lowerer (unit-scoped label
// counter and static prefix), and concatenates the result in lexicographic
// order, optionally preceded by the Bootstrap prologue.
func (t Translator) Translate(input string) (asm.Program, error) {
	units, err := collectUnits(input)
	if err != nil {
		return nil, err
	}

	program := asm.Program{}
	if t.Bootstrap {
		program = append(program, Bootstrap...)
	}

	for _, unit := range units {
		content, err := os.ReadFile(unit)
		if err != nil {
			return nil, ioErrorf(unit, err)
		}

		prefix := strings.TrimSuffix(filepath.Base(unit), filepath.Ext(unit))
		parser := NewParser(bytes.NewReader(content))
		module, err := parser.Parse()
		if err != nil {
			return nil, err
		}

		lowerer := NewLowerer(module, prefix)
		lowered, err := lowerer.Lower()
		if err != nil {
			return nil, err
		}
		program = append(program, lowered...)
	}

	return program, nil
}
