package jack

import (
	"fmt"
	"io"
)

// ----------------------------------------------------------------------------
// Parse errors

// ParseError reports a single-token lookahead mismatch: the parser never
// backtracks, so the first one is fatal and aborts the whole parse.
type ParseError struct {
	Expected string
	Found    Token
}

func (e ParseError) Error() string {
	return fmt.Sprintf("expected %s, found %q (%s)", e.Expected, e.Found.Value, e.Found.Type)
}

// ----------------------------------------------------------------------------
// Parser

// Parser is a genuine recursive-descent parser over the flat Token slice
// produced by the Tokenizer: one method per grammar production, a single
// token of lookahead, and no backtracking — the first ParseError is fatal.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser reads r to EOF, tokenizes it, and prepares to parse one Class.
func NewParser(r io.Reader) (Parser, error) {
	tokenizer, err := NewTokenizer(r)
	if err != nil {
		return Parser{}, err
	}
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return Parser{}, err
	}
	return Parser{tokens: tokens}, nil
}

func (p *Parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *Parser) advance() (Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// expectSymbol consumes the next token iff it is the symbol 'sym'.
func (p *Parser) expectSymbol(sym string) (Token, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != Symbol || tok.Value != sym {
		return Token{}, ParseError{Expected: fmt.Sprintf("symbol %q", sym), Found: tok}
	}
	p.pos++
	return tok, nil
}

// expectKeyword consumes the next token iff it is the keyword 'kw'.
func (p *Parser) expectKeyword(kw string) (Token, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != Keyword || tok.Value != kw {
		return Token{}, ParseError{Expected: fmt.Sprintf("keyword %q", kw), Found: tok}
	}
	p.pos++
	return tok, nil
}

// expectIdentifier consumes the next token iff it is an Identifier.
func (p *Parser) expectIdentifier() (Token, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != Identifier {
		return Token{}, ParseError{Expected: "identifier", Found: tok}
	}
	p.pos++
	return tok, nil
}

// isKeywordAhead reports whether the next token is exactly this keyword,
// without consuming it — the one-token lookahead every production needs to
// decide which alternative it's in.
func (p *Parser) isKeywordAhead(kw string) bool {
	tok, ok := p.peek()
	return ok && tok.Type == Keyword && tok.Value == kw
}

func (p *Parser) isSymbolAhead(sym string) bool {
	tok, ok := p.peek()
	return ok && tok.Type == Symbol && tok.Value == sym
}

// ----------------------------------------------------------------------------
// class

// Parse consumes the whole token stream as a single Class.
func (p *Parser) Parse() (Class, error) {
	if _, err := p.expectKeyword("class"); err != nil {
		return Class{}, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return Class{}, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return Class{}, err
	}

	class := Class{Name: name.Value}
	for p.isKeywordAhead("static") || p.isKeywordAhead("field") {
		dec, err := p.parseClassVarDec()
		if err != nil {
			return Class{}, err
		}
		class.VarDecs = append(class.VarDecs, dec)
	}
	for p.isKeywordAhead("constructor") || p.isKeywordAhead("function") || p.isKeywordAhead("method") {
		dec, err := p.parseSubroutineDec()
		if err != nil {
			return Class{}, err
		}
		class.SubroutineDecs = append(class.SubroutineDecs, dec)
	}

	if _, err := p.expectSymbol("}"); err != nil {
		return Class{}, err
	}
	return class, nil
}

func (p *Parser) parseClassVarDec() (ClassVarDec, error) {
	kindTok, _ := p.advance() // 'static' or 'field', lookahead already confirmed it
	kind := ClassVarKind(kindTok.Value)

	typ, names, err := p.parseTypeAndNames()
	if err != nil {
		return ClassVarDec{}, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return ClassVarDec{}, err
	}

	return ClassVarDec{Kind: kind, Type: typ, Names: names}, nil
}

// parseTypeAndNames parses 'type name (, name)*' — the shared tail of a
// ClassVarDec and a VarDec.
func (p *Parser) parseTypeAndNames() (string, []string, error) {
	typ, err := p.parseType()
	if err != nil {
		return "", nil, err
	}

	first, err := p.expectIdentifier()
	if err != nil {
		return "", nil, err
	}
	names := []string{first.Value}

	for p.isSymbolAhead(",") {
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return "", nil, err
		}
		names = append(names, name.Value)
	}

	return typ, names, nil
}

// parseType accepts int|char|boolean or a class name (an Identifier).
func (p *Parser) parseType() (string, error) {
	tok, ok := p.peek()
	if !ok {
		return "", ParseError{Expected: "a type", Found: tok}
	}
	if tok.Type == Keyword && (tok.Value == "int" || tok.Value == "char" || tok.Value == "boolean") {
		p.advance()
		return tok.Value, nil
	}
	if tok.Type == Identifier {
		p.advance()
		return tok.Value, nil
	}
	return "", ParseError{Expected: "a type (int|char|boolean|ClassName)", Found: tok}
}

// ----------------------------------------------------------------------------
// subroutine

func (p *Parser) parseSubroutineDec() (SubroutineDec, error) {
	kindTok, _ := p.advance() // constructor|function|method, lookahead already confirmed it
	kind := SubroutineKind(kindTok.Value)

	returnType, err := p.parseReturnType()
	if err != nil {
		return SubroutineDec{}, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return SubroutineDec{}, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return SubroutineDec{}, err
	}
	params, err := p.parseParameterList()
	if err != nil {
		return SubroutineDec{}, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return SubroutineDec{}, err
	}
	body, err := p.parseSubroutineBody()
	if err != nil {
		return SubroutineDec{}, err
	}

	return SubroutineDec{Kind: kind, ReturnType: returnType, Name: name.Value, Parameters: params, Body: body}, nil
}

func (p *Parser) parseReturnType() (string, error) {
	if p.isKeywordAhead("void") {
		p.advance()
		return "void", nil
	}
	return p.parseType()
}

func (p *Parser) parseParameterList() ([]Parameter, error) {
	params := []Parameter{}
	if p.isSymbolAhead(")") {
		return params, nil
	}

	for {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, Parameter{Type: typ, Name: name.Value})

		if !p.isSymbolAhead(",") {
			break
		}
		p.advance()
	}

	return params, nil
}

func (p *Parser) parseSubroutineBody() (SubroutineBody, error) {
	if _, err := p.expectSymbol("{"); err != nil {
		return SubroutineBody{}, err
	}

	body := SubroutineBody{}
	for p.isKeywordAhead("var") {
		dec, err := p.parseVarDec()
		if err != nil {
			return SubroutineBody{}, err
		}
		body.VarDecs = append(body.VarDecs, dec)
	}

	statements, err := p.parseStatements()
	if err != nil {
		return SubroutineBody{}, err
	}
	body.Statements = statements

	if _, err := p.expectSymbol("}"); err != nil {
		return SubroutineBody{}, err
	}
	return body, nil
}

func (p *Parser) parseVarDec() (VarDec, error) {
	if _, err := p.expectKeyword("var"); err != nil {
		return VarDec{}, err
	}
	typ, names, err := p.parseTypeAndNames()
	if err != nil {
		return VarDec{}, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return VarDec{}, err
	}
	return VarDec{Type: typ, Names: names}, nil
}

// ----------------------------------------------------------------------------
// statements

var statementKeywords = map[string]bool{"let": true, "if": true, "while": true, "do": true, "return": true}

func (p *Parser) parseStatements() ([]Statement, error) {
	statements := []Statement{}

	for {
		tok, ok := p.peek()
		if !ok || tok.Type != Keyword || !statementKeywords[tok.Value] {
			break
		}

		var stmt Statement
		var err error
		switch tok.Value {
		case "let":
			stmt, err = p.parseLetStatement()
		case "if":
			stmt, err = p.parseIfStatement()
		case "while":
			stmt, err = p.parseWhileStatement()
		case "do":
			stmt, err = p.parseDoStatement()
		case "return":
			stmt, err = p.parseReturnStatement()
		}
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return statements, nil
}

func (p *Parser) parseLetStatement() (LetStatement, error) {
	if _, err := p.expectKeyword("let"); err != nil {
		return LetStatement{}, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return LetStatement{}, err
	}

	stmt := LetStatement{Name: name.Value}
	if p.isSymbolAhead("[") {
		p.advance()
		index, err := p.parseExpression()
		if err != nil {
			return LetStatement{}, err
		}
		stmt.Index = index
		if _, err := p.expectSymbol("]"); err != nil {
			return LetStatement{}, err
		}
	}

	if _, err := p.expectSymbol("="); err != nil {
		return LetStatement{}, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return LetStatement{}, err
	}
	stmt.Value = value

	if _, err := p.expectSymbol(";"); err != nil {
		return LetStatement{}, err
	}
	return stmt, nil
}

func (p *Parser) parseIfStatement() (IfStatement, error) {
	if _, err := p.expectKeyword("if"); err != nil {
		return IfStatement{}, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return IfStatement{}, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return IfStatement{}, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return IfStatement{}, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return IfStatement{}, err
	}
	then, err := p.parseStatements()
	if err != nil {
		return IfStatement{}, err
	}
	if _, err := p.expectSymbol("}"); err != nil {
		return IfStatement{}, err
	}

	stmt := IfStatement{Condition: cond, Then: then}
	if p.isKeywordAhead("else") {
		p.advance()
		if _, err := p.expectSymbol("{"); err != nil {
			return IfStatement{}, err
		}
		elseBlock, err := p.parseStatements()
		if err != nil {
			return IfStatement{}, err
		}
		if _, err := p.expectSymbol("}"); err != nil {
			return IfStatement{}, err
		}
		stmt.Else = elseBlock
	}

	return stmt, nil
}

func (p *Parser) parseWhileStatement() (WhileStatement, error) {
	if _, err := p.expectKeyword("while"); err != nil {
		return WhileStatement{}, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return WhileStatement{}, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return WhileStatement{}, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return WhileStatement{}, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return WhileStatement{}, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return WhileStatement{}, err
	}
	if _, err := p.expectSymbol("}"); err != nil {
		return WhileStatement{}, err
	}
	return WhileStatement{Condition: cond, Body: body}, nil
}

func (p *Parser) parseDoStatement() (DoStatement, error) {
	if _, err := p.expectKeyword("do"); err != nil {
		return DoStatement{}, err
	}
	call, err := p.parseSubroutineCall()
	if err != nil {
		return DoStatement{}, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return DoStatement{}, err
	}
	return DoStatement{Call: call}, nil
}

func (p *Parser) parseReturnStatement() (ReturnStatement, error) {
	if _, err := p.expectKeyword("return"); err != nil {
		return ReturnStatement{}, err
	}

	stmt := ReturnStatement{}
	if !p.isSymbolAhead(";") {
		value, err := p.parseExpression()
		if err != nil {
			return ReturnStatement{}, err
		}
		stmt.Value = value
	}

	if _, err := p.expectSymbol(";"); err != nil {
		return ReturnStatement{}, err
	}
	return stmt, nil
}

// ----------------------------------------------------------------------------
// expressions & terms

func (p *Parser) parseExpression() (Expression, error) {
	term, err := p.parseTerm()
	if err != nil {
		return Expression{}, err
	}

	expr := Expression{Term: term}
	for {
		tok, ok := p.peek()
		if !ok || tok.Type != Symbol || !BinaryOps[tok.Value] {
			break
		}
		p.advance()

		next, err := p.parseTerm()
		if err != nil {
			return Expression{}, err
		}
		expr.OpTerms = append(expr.OpTerms, OpTerm{Op: tok.Value, Term: next})
	}

	return expr, nil
}

func (p *Parser) parseTerm() (Term, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, ParseError{Expected: "a term", Found: tok}
	}

	switch {
	case tok.Type == IntConst:
		p.advance()
		return IntConstTerm{Value: tok.Value}, nil

	case tok.Type == StringConst:
		p.advance()
		return StringConstTerm{Value: tok.Value}, nil

	case tok.Type == Keyword && KeywordConstants[tok.Value]:
		p.advance()
		return KeywordConstTerm{Value: tok.Value}, nil

	case tok.Type == Symbol && tok.Value == "(":
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return ParenTerm{Inner: inner}, nil

	case tok.Type == Symbol && UnaryOps[tok.Value]:
		p.advance()
		inner, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return UnaryTerm{Op: tok.Value, Term: inner}, nil

	case tok.Type == Identifier:
		return p.parseIdentifierTerm()

	default:
		return nil, ParseError{Expected: "a term", Found: tok}
	}
}

// parseIdentifierTerm resolves the three shapes an Identifier can start:
// a plain variable, an indexed variable ('name[expr]'), or a subroutine call
// ('name(...)' or 'name.sub(...)') — decided by one token of lookahead past
// the identifier itself.
func (p *Parser) parseIdentifierTerm() (Term, error) {
	name, _ := p.advance() // Identifier, confirmed by the caller's switch

	if p.isSymbolAhead("[") {
		p.advance()
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		return IndexedVarTerm{Name: name.Value, Index: index}, nil
	}

	if p.isSymbolAhead("(") || p.isSymbolAhead(".") {
		call, err := p.parseSubroutineCallFrom(name.Value)
		if err != nil {
			return nil, err
		}
		return SubroutineCallTerm{Call: call}, nil
	}

	return VarTerm{Name: name.Value}, nil
}

// parseSubroutineCall parses a subroutineCall that hasn't consumed its first
// identifier yet (the 'do' statement's case).
func (p *Parser) parseSubroutineCall() (SubroutineCall, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return SubroutineCall{}, err
	}
	return p.parseSubroutineCallFrom(name.Value)
}

// parseSubroutineCallFrom parses the '(args)' or '.name(args)' tail of a
// subroutineCall whose leading identifier has already been consumed.
func (p *Parser) parseSubroutineCallFrom(first string) (SubroutineCall, error) {
	call := SubroutineCall{Name: first}

	if p.isSymbolAhead(".") {
		p.advance()
		method, err := p.expectIdentifier()
		if err != nil {
			return SubroutineCall{}, err
		}
		call.Qualifier = first
		call.Name = method.Value
	}

	if _, err := p.expectSymbol("("); err != nil {
		return SubroutineCall{}, err
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return SubroutineCall{}, err
	}
	call.Args = args
	if _, err := p.expectSymbol(")"); err != nil {
		return SubroutineCall{}, err
	}

	return call, nil
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	args := []Expression{}
	if p.isSymbolAhead(")") {
		return args, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, expr)

		if !p.isSymbolAhead(",") {
			break
		}
		p.advance()
	}

	return args, nil
}
