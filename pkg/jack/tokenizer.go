package jack

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"n2t.dev/toolchain/pkg/errs"
	"n2t.dev/toolchain/pkg/reader"
)

// ----------------------------------------------------------------------------
// Tokenizer

// Tokenizer turns a Jack source stream into a flat Token slice. Comments are
// stripped ahead of time by reader.StripJackComments (per §4.1's shared
// contract), so the Tokenizer itself only ever sees code.
//
// Unlike a regexp-driven tokenizer, this one walks the rune stream by hand:
// the Jack alphabet (21 keywords, 19 symbols, 3 literal shapes) is small and
// fixed enough that a switch over the lookahead rune is both simpler and
// faster than compiling and racing a table of regular expressions.
type Tokenizer struct {
	src []rune
	pos int
}

// NewTokenizer reads r to EOF, strips comments, and prepares to scan tokens.
func NewTokenizer(r io.Reader) (Tokenizer, error) {
	cleaned, err := reader.StripJackComments(r)
	if err != nil {
		return Tokenizer{}, err
	}
	return Tokenizer{src: []rune(cleaned)}, nil
}

// Tokenize scans the entire source and returns every token in order.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	tokens := []Token{}
	for {
		tok, ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (t *Tokenizer) peek() (rune, bool) {
	if t.pos >= len(t.src) {
		return 0, false
	}
	return t.src[t.pos], true
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.src) && unicode.IsSpace(t.src[t.pos]) {
		t.pos++
	}
}

// next scans and returns the single next token, or ok=false at EOF.
func (t *Tokenizer) next() (Token, bool, error) {
	t.skipWhitespace()

	ch, ok := t.peek()
	if !ok {
		return Token{}, false, nil
	}

	switch {
	case ch == '"':
		return t.scanString()
	case unicode.IsDigit(ch):
		return t.scanInt()
	case Symbols[ch]:
		t.pos++
		return Token{Type: Symbol, Value: string(ch)}, true, nil
	case isIdentStart(ch):
		return t.scanIdentOrKeyword()
	default:
		return Token{}, false, fmt.Errorf("%w: unexpected character %q", errs.SyntaxError, ch)
	}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func (t *Tokenizer) scanString() (Token, bool, error) {
	start := t.pos
	t.pos++ // consume opening quote

	var b strings.Builder
	for {
		ch, ok := t.peek()
		if !ok {
			return Token{}, false, fmt.Errorf("%w: unterminated string constant starting at offset %d", errs.SyntaxError, start)
		}
		if ch == '"' {
			t.pos++
			return Token{Type: StringConst, Value: b.String()}, true, nil
		}
		if ch == '\n' {
			return Token{}, false, fmt.Errorf("%w: string constant cannot contain a newline", errs.SyntaxError)
		}
		b.WriteRune(ch)
		t.pos++
	}
}

func (t *Tokenizer) scanInt() (Token, bool, error) {
	start := t.pos
	for {
		ch, ok := t.peek()
		if !ok || !unicode.IsDigit(ch) {
			break
		}
		t.pos++
	}
	return Token{Type: IntConst, Value: string(t.src[start:t.pos])}, true, nil
}

func (t *Tokenizer) scanIdentOrKeyword() (Token, bool, error) {
	start := t.pos
	for {
		ch, ok := t.peek()
		if !ok || !isIdentPart(ch) {
			break
		}
		t.pos++
	}

	word := string(t.src[start:t.pos])
	if Keywords[word] {
		return Token{Type: Keyword, Value: word}, true, nil
	}
	return Token{Type: Identifier, Value: word}, true, nil
}
