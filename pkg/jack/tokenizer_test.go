package jack_test

import (
	"errors"
	"strings"
	"testing"

	"n2t.dev/toolchain/pkg/errs"
	"n2t.dev/toolchain/pkg/jack"
)

func tokenize(t *testing.T, src string) []jack.Token {
	t.Helper()
	tokenizer, err := jack.NewTokenizer(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return tokens
}

func TestTokenizeKeywordsAndSymbols(t *testing.T) {
	tokens := tokenize(t, "class Main { }")
	want := []jack.Token{
		{Type: jack.Keyword, Value: "class"},
		{Type: jack.Identifier, Value: "Main"},
		{Type: jack.Symbol, Value: "{"},
		{Type: jack.Symbol, Value: "}"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %#v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d: expected %#v, got %#v", i, want[i], tokens[i])
		}
	}
}

func TestTokenizeIntegerConstant(t *testing.T) {
	tokens := tokenize(t, "let x = 123;")
	found := false
	for _, tok := range tokens {
		if tok.Type == jack.IntConst {
			found = true
			if tok.Value != "123" {
				t.Fatalf("expected integer constant '123', got %q", tok.Value)
			}
		}
	}
	if !found {
		t.Fatalf("expected an integer constant token, got %#v", tokens)
	}
}

func TestTokenizeStringConstant(t *testing.T) {
	tokens := tokenize(t, `do Output.printString("hello world");`)
	found := false
	for _, tok := range tokens {
		if tok.Type == jack.StringConst {
			found = true
			if tok.Value != "hello world" {
				t.Fatalf("expected string constant 'hello world', got %q", tok.Value)
			}
		}
	}
	if !found {
		t.Fatalf("expected a string constant token, got %#v", tokens)
	}
}

func TestTokenizeUnterminatedStringIsFatal(t *testing.T) {
	tokenizer, err := jack.NewTokenizer(strings.NewReader(`"abc`))
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	if _, err := tokenizer.Tokenize(); err == nil || !errors.Is(err, errs.SyntaxError) {
		t.Fatalf("expected errs.SyntaxError for unterminated string, got %v", err)
	}
}

func TestTokenizeStringCannotContainNewline(t *testing.T) {
	tokenizer, _ := jack.NewTokenizer(strings.NewReader("\"abc\ndef\""))
	if _, err := tokenizer.Tokenize(); err == nil || !errors.Is(err, errs.SyntaxError) {
		t.Fatalf("expected errs.SyntaxError for embedded newline, got %v", err)
	}
}

func TestTokenizeStripsComments(t *testing.T) {
	src := "// a line comment\nlet x = 1; /* a block\ncomment */ let y = 2;"
	tokens := tokenize(t, src)
	for _, tok := range tokens {
		if strings.Contains(tok.Value, "comment") {
			t.Fatalf("comment text leaked into token stream: %#v", tok)
		}
	}
}

func TestTokenizeUnknownCharacterIsFatal(t *testing.T) {
	tokenizer, _ := jack.NewTokenizer(strings.NewReader("let x = @;"))
	if _, err := tokenizer.Tokenize(); err == nil || !errors.Is(err, errs.SyntaxError) {
		t.Fatalf("expected errs.SyntaxError for unknown character, got %v", err)
	}
}

func TestTokenizeIdentifierVsKeyword(t *testing.T) {
	tokens := tokenize(t, "classroom")
	if len(tokens) != 1 || tokens[0].Type != jack.Identifier || tokens[0].Value != "classroom" {
		t.Fatalf("expected 'classroom' to tokenize as a single identifier, got %#v", tokens)
	}
}
