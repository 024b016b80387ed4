// Package errs names the error kinds shared by the assembler, VM translator
// and Jack compiler pipelines. Each pipeline wraps one of these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify a failure with errors.Is
// without parsing the message.
package errs

import "errors"

var (
	// IoError marks a failure to read input or write output.
	IoError = errors.New("io error")
	// SyntaxError marks a lexical or grammatical violation: unknown mnemonic,
	// wrong arity, unbalanced delimiters, unexpected EOF.
	SyntaxError = errors.New("syntax error")
	// UnknownMnemonic marks a comp/dest/jump string absent from the Hack tables.
	UnknownMnemonic = errors.New("unknown mnemonic")
	// InvalidPop marks a "pop constant ..." VM instruction.
	InvalidPop = errors.New("invalid pop target")
	// SymbolConflict marks an attempt to redefine a label or static unit prefix
	// that already resolves to something else.
	SymbolConflict = errors.New("symbol conflict")
	// IndexOutOfRange marks a pointer/temp segment index outside its allowed range.
	IndexOutOfRange = errors.New("index out of range")
)
