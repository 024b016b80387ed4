package jack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"n2t.dev/toolchain/pkg/errs"
)

func ioErrorf(path string, err error) error { return fmt.Errorf("%w: %s: %v", errs.IoError, path, err) }

// Compiler is the library-level entry point for §6's Jack Compiler: given a
// single .jack file or a directory of them, it derives each unit's output path
// and emits the parse-tree XML per §4.8.
type Compiler struct{}

// DerivePath implements §6's Jack Compiler output-path rule: one '.xml' file
// per '.jack' input, same directory, same base name.
func DerivePath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".xml"
}

// collectUnits walks 'input' and returns every .jack file found, in
// lexicographic order by base name — a single file is returned as a
// one-element slice.
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
		if d.IsDir() || filepath.Ext(path) != ".jack" {
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
	return units, nil
}

// CompileUnit parses a single .jack source and returns its parse-tree XML.
func CompileUnit(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", ioErrorf(path, err)
	}

	parser, err := NewParser(strings.NewReader(string(content)))
	if err != nil {
		return "", err
	}
	class, err := parser.Parse()
	if err != nil {
		return "", err
	}

	return EmitClass(class), nil
}

// Compile walks 'input' (a single .jack file, or a directory of them),
// compiles the units in lexicographic order, and returns a map from each
// unit's output path to its rendered XML. The first failing unit aborts the
// whole call.
func (Compiler) Compile(input string) (map[string]string, error) {
	units, err := collectUnits(input)
	if err != nil {
		return nil, err
	}

	outputs := map[string]string{}
	for _, unit := range units {
		xml, err := CompileUnit(unit)
		if err != nil {
			return nil, err
		}
		outputs[DerivePath(unit)] = xml
	}
	return outputs, nil
}
