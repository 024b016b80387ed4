package jack

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// XML emitter
//
// Built with direct strings.Builder/fmt.Sprintf construction rather than
// encoding/xml: every nonterminal of the grammar maps to exactly one wrapper
// element and every token to exactly one leaf element, a shape that's easier
// to get byte-for-byte right by hand than to coax out of a generic marshaler.

// EmitClass renders a whole Class as the parse-tree XML described in §4.8.
func EmitClass(class Class) string {
	var b strings.Builder
	writeClass(&b, class)
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
	)
	return r.Replace(s)
}

func writeLeaf(b *strings.Builder, tag, value string) {
	fmt.Fprintf(b, "<%s> %s </%s>\n", tag, escape(value), tag)
}

func writeOpen(b *strings.Builder, tag string) {
	fmt.Fprintf(b, "<%s>\n", tag)
}

func writeClose(b *strings.Builder, tag string) {
	fmt.Fprintf(b, "</%s>\n", tag)
}

func writeKeyword(b *strings.Builder, value string) { writeLeaf(b, "keyword", value) }
func writeSymbol(b *strings.Builder, value string)  { writeLeaf(b, "symbol", value) }
func writeIdentifier(b *strings.Builder, value string) {
	writeLeaf(b, "identifier", value)
}

func writeClass(b *strings.Builder, class Class) {
	writeOpen(b, "class")
	writeKeyword(b, "class")
	writeIdentifier(b, class.Name)
	writeSymbol(b, "{")
	for _, dec := range class.VarDecs {
		writeClassVarDec(b, dec)
	}
	for _, dec := range class.SubroutineDecs {
		writeSubroutineDec(b, dec)
	}
	writeSymbol(b, "}")
	writeClose(b, "class")
}

func writeClassVarDec(b *strings.Builder, dec ClassVarDec) {
	writeOpen(b, "classVarDec")
	writeKeyword(b, string(dec.Kind))
	writeType(b, dec.Type)
	writeNameList(b, dec.Names)
	writeSymbol(b, ";")
	writeClose(b, "classVarDec")
}

// writeType emits a type token as a keyword (int|char|boolean) or an
// identifier (a class name) — the grammar doesn't distinguish the wrapper,
// only the leaf kind changes.
func writeType(b *strings.Builder, typ string) {
	switch typ {
	case "int", "char", "boolean":
		writeKeyword(b, typ)
	default:
		writeIdentifier(b, typ)
	}
}

func writeNameList(b *strings.Builder, names []string) {
	for i, name := range names {
		if i > 0 {
			writeSymbol(b, ",")
		}
		writeIdentifier(b, name)
	}
}

func writeSubroutineDec(b *strings.Builder, dec SubroutineDec) {
	writeOpen(b, "subroutineDec")
	writeKeyword(b, string(dec.Kind))
	if dec.ReturnType == "void" {
		writeKeyword(b, "void")
	} else {
		writeType(b, dec.ReturnType)
	}
	writeIdentifier(b, dec.Name)
	writeSymbol(b, "(")
	writeParameterList(b, dec.Parameters)
	writeSymbol(b, ")")
	writeSubroutineBody(b, dec.Body)
	writeClose(b, "subroutineDec")
}

func writeParameterList(b *strings.Builder, params []Parameter) {
	writeOpen(b, "parameterList")
	for i, param := range params {
		if i > 0 {
			writeSymbol(b, ",")
		}
		writeType(b, param.Type)
		writeIdentifier(b, param.Name)
	}
	writeClose(b, "parameterList")
}

func writeSubroutineBody(b *strings.Builder, body SubroutineBody) {
	writeOpen(b, "subroutineBody")
	writeSymbol(b, "{")
	for _, dec := range body.VarDecs {
		writeVarDec(b, dec)
	}
	writeStatements(b, body.Statements)
	writeSymbol(b, "}")
	writeClose(b, "subroutineBody")
}

func writeVarDec(b *strings.Builder, dec VarDec) {
	writeOpen(b, "varDec")
	writeKeyword(b, "var")
	writeType(b, dec.Type)
	writeNameList(b, dec.Names)
	writeSymbol(b, ";")
	writeClose(b, "varDec")
}

func writeStatements(b *strings.Builder, statements []Statement) {
	writeOpen(b, "statements")
	for _, stmt := range statements {
		writeStatement(b, stmt)
	}
	writeClose(b, "statements")
}

func writeStatement(b *strings.Builder, stmt Statement) {
	switch s := stmt.(type) {
	case LetStatement:
		writeLetStatement(b, s)
	case IfStatement:
		writeIfStatement(b, s)
	case WhileStatement:
		writeWhileStatement(b, s)
	case DoStatement:
		writeDoStatement(b, s)
	case ReturnStatement:
		writeReturnStatement(b, s)
	default:
		panic(fmt.Sprintf("jack: unhandled statement type %T", stmt))
	}
}

func writeLetStatement(b *strings.Builder, s LetStatement) {
	writeOpen(b, "letStatement")
	writeKeyword(b, "let")
	writeIdentifier(b, s.Name)
	if s.Index.Term != nil {
		writeSymbol(b, "[")
		writeExpression(b, s.Index)
		writeSymbol(b, "]")
	}
	writeSymbol(b, "=")
	writeExpression(b, s.Value)
	writeSymbol(b, ";")
	writeClose(b, "letStatement")
}

func writeIfStatement(b *strings.Builder, s IfStatement) {
	writeOpen(b, "ifStatement")
	writeKeyword(b, "if")
	writeSymbol(b, "(")
	writeExpression(b, s.Condition)
	writeSymbol(b, ")")
	writeSymbol(b, "{")
	writeStatements(b, s.Then)
	writeSymbol(b, "}")
	if s.Else != nil {
		writeKeyword(b, "else")
		writeSymbol(b, "{")
		writeStatements(b, s.Else)
		writeSymbol(b, "}")
	}
	writeClose(b, "ifStatement")
}

func writeWhileStatement(b *strings.Builder, s WhileStatement) {
	writeOpen(b, "whileStatement")
	writeKeyword(b, "while")
	writeSymbol(b, "(")
	writeExpression(b, s.Condition)
	writeSymbol(b, ")")
	writeSymbol(b, "{")
	writeStatements(b, s.Body)
	writeSymbol(b, "}")
	writeClose(b, "whileStatement")
}

func writeDoStatement(b *strings.Builder, s DoStatement) {
	writeOpen(b, "doStatement")
	writeKeyword(b, "do")
	writeSubroutineCall(b, s.Call)
	writeSymbol(b, ";")
	writeClose(b, "doStatement")
}

func writeReturnStatement(b *strings.Builder, s ReturnStatement) {
	writeOpen(b, "returnStatement")
	writeKeyword(b, "return")
	if s.Value.Term != nil {
		writeExpression(b, s.Value)
	}
	writeSymbol(b, ";")
	writeClose(b, "returnStatement")
}

func writeExpression(b *strings.Builder, expr Expression) {
	writeOpen(b, "expression")
	writeTerm(b, expr.Term)
	for _, opTerm := range expr.OpTerms {
		writeSymbol(b, opTerm.Op)
		writeTerm(b, opTerm.Term)
	}
	writeClose(b, "expression")
}

func writeTerm(b *strings.Builder, term Term) {
	writeOpen(b, "term")
	switch t := term.(type) {
	case IntConstTerm:
		writeLeaf(b, "integerConstant", t.Value)
	case StringConstTerm:
		writeLeaf(b, "stringConstant", t.Value)
	case KeywordConstTerm:
		writeKeyword(b, t.Value)
	case VarTerm:
		writeIdentifier(b, t.Name)
	case IndexedVarTerm:
		writeIdentifier(b, t.Name)
		writeSymbol(b, "[")
		writeExpression(b, t.Index)
		writeSymbol(b, "]")
	case SubroutineCallTerm:
		writeSubroutineCall(b, t.Call)
	case ParenTerm:
		writeSymbol(b, "(")
		writeExpression(b, t.Inner)
		writeSymbol(b, ")")
	case UnaryTerm:
		writeSymbol(b, t.Op)
		writeTerm(b, t.Term)
	default:
		panic(fmt.Sprintf("jack: unhandled term type %T", term))
	}
	writeClose(b, "term")
}

func writeSubroutineCall(b *strings.Builder, call SubroutineCall) {
	if call.Qualifier != "" {
		writeIdentifier(b, call.Qualifier)
		writeSymbol(b, ".")
	}
	writeIdentifier(b, call.Name)
	writeSymbol(b, "(")
	writeExpressionList(b, call.Args)
	writeSymbol(b, ")")
}

func writeExpressionList(b *strings.Builder, args []Expression) {
	writeOpen(b, "expressionList")
	for i, expr := range args {
		if i > 0 {
			writeSymbol(b, ",")
		}
		writeExpression(b, expr)
	}
	writeClose(b, "expressionList")
}
