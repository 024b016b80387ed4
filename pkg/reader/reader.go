// Package reader implements the logical-line contract shared by the Assembler
// and VM Translator front-ends, plus the comment-stripping pass used ahead of
// the Jack tokenizer.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"n2t.dev/toolchain/pkg/errs"
)

// Lines reads r to EOF and returns one entry per non-empty logical line: '//'
// comments are stripped, the result is trimmed, and blank lines are skipped.
// asm.Parser and vm.Parser both call this ahead of their goparsec grammars,
// which never see a comment node and rely on the scanner's own whitespace
// skipping to split whatever tokens remain on each line.
func Lines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0)

	for scanner.Scan() {
		line := stripLineComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading source: %s", errs.IoError, err)
	}

	return lines, nil
}

func stripLineComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// StripJackComments reads r to EOF and returns the source with every '//'
// line comment and every '/* ... */' block comment removed, block comments
// tracked across line boundaries. Per the resolved Open Question in spec §9,
// block-comment removal takes precedence over line-comment removal within any
// single line where both markers appear.
func StripJackComments(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: reading source: %s", errs.IoError, err)
	}

	var out strings.Builder
	src := string(content)
	inBlock := false

	for i := 0; i < len(src); i++ {
		if inBlock {
			if strings.HasPrefix(src[i:], "*/") {
				inBlock = false
				i++ // consume the second rune of "*/" on top of the loop's own i++
				continue
			}
			continue
		}

		if strings.HasPrefix(src[i:], "/*") {
			inBlock = true
			i++ // consume the second rune of "/*" on top of the loop's own i++
			continue
		}

		if strings.HasPrefix(src[i:], "//") {
			// Skip to (but not past) the next newline so it still ends the line.
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i >= len(src) {
				break
			}
			out.WriteByte('\n')
			continue
		}

		out.WriteByte(src[i])
	}

	return out.String(), nil
}
