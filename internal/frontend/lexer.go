// Package frontend is the lexer/parser that spec.md §1 names as an
// external collaborator ("we assume a syntax tree of the shape in §3").
// SPEC_FULL.md supplements the distilled spec with a concrete frontend so
// the pipeline is runnable end-to-end, grounded on the original syntax
// crate's lexer.rs/parser/* for token/grammar shape and on the teacher's
// own frontend package (tree.go, lexer_test.go) for Go style and test
// conventions. Tokenization uses
// github.com/alecthomas/participle/v2/lexer's simple stateless lexer
// (replacing the teacher's goyacc-generated scanner, whose generated file
// is absent from the retrieved source and cannot be produced without
// running the toolchain); the grammar itself is a hand-written recursive
// descent parser over the resulting token stream, since a fully
// declarative participle grammar for this language's expression
// precedence and statement forms could not be validated without
// compiling it.
package frontend

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind names a lexical category, mirroring lexer.rs's token enum.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokString
	TokKeyword
	TokPunct
)

// Token is one lexed unit with its byte span and line/col, matching the
// position fields spec.md §3 requires on every syntax node.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
	Line  int
	Col   int
}

var keywords = map[string]bool{
	"fn": true, "extern": true, "struct": true, "impl": true, "trait": true,
	"enum": true, "var": true, "if": true, "else": true, "while": true,
	"for": true, "in": true, "return": true, "break": true, "continue": true,
	"true": true, "false": true, "null": true, "match": true, "try": true,
	"ok": true, "err": true, "import": true, "as": true, "int": true,
	"float": true, "bool": true, "string": true, "void": true,
}

// simpleDef is the participle/v2 lexer definition: a flat list of named
// regexes tried in order, the same "simple stateless lexer" style other
// participle-based small-language frontends (kanso-lang/kanso,
// vovakirdan/surge) use.
var simpleDef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "String", Pattern: `"(\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `\?\?|\?\.|==|!=|<=|>=|&&|\|\||::|->|=>|[-+*/%(){}\[\].,:;=<>!?]`},
})

// symbolNames maps participle's internal TokenType back to the rule name,
// built once from simpleDef.Symbols() (name -> TokenType).
var symbolNames = func() map[lexer.TokenType]string {
	m := map[lexer.TokenType]string{}
	for name, tt := range simpleDef.Symbols() {
		m[tt] = name
	}
	return m
}()

// Lex tokenizes src, dropping whitespace and comments, and computing
// line/col for every surviving token.
func Lex(src string) ([]Token, error) {
	lx, err := simpleDef.Lex("", strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	var toks []Token
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("lex: %w", err)
		}
		if t.EOF() {
			toks = append(toks, Token{Kind: TokEOF, Start: len(src), End: len(src),
				Line: t.Pos.Line, Col: t.Pos.Column})
			break
		}
		sym := symbolNames[t.Type]
		if sym == "Whitespace" || sym == "Comment" {
			continue
		}
		toks = append(toks, Token{
			Kind:  classify(sym, t.Value),
			Text:  t.Value,
			Start: t.Pos.Offset,
			End:   t.Pos.Offset + len(t.Value),
			Line:  t.Pos.Line,
			Col:   t.Pos.Column,
		})
	}
	return toks, nil
}

func classify(sym, text string) TokenKind {
	switch sym {
	case "Int":
		return TokInt
	case "Float":
		return TokFloat
	case "String":
		return TokString
	case "Punct":
		return TokPunct
	case "Ident":
		if keywords[text] {
			return TokKeyword
		}
		return TokIdent
	default:
		return TokPunct
	}
}
