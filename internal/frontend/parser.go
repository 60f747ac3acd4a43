package frontend

import (
	"fmt"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
)

// Parser is a hand-written recursive-descent parser over a Lex'd token
// stream, grounded on the grammar documented across the original syntax
// crate's parser/{decl,stmt,expr} modules and the AST shapes of spec.md
// §3.
type Parser struct {
	toks []Token
	pos  int
	sink *diag.Sink
}

// NewParser builds a parser over toks, reporting diagnostics into sink.
func NewParser(toks []Token, sink *diag.Sink) *Parser {
	return &Parser{toks: toks, sink: sink}
}

// Parse parses a full compilation unit, returning a PROGRAM node whose
// children are top-level declarations in source order.
func Parse(src string, sink *diag.Sink) *ast.Node {
	toks, err := Lex(src)
	if err != nil {
		sink.Add(diag.Errorf(ast.Span{}, "lex error: %v", err))
		return ast.NewNode(ast.PROGRAM, ast.Span{}, nil)
	}
	p := NewParser(toks, sink)
	return p.parseProgram()
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) peekKind() TokenKind { return p.cur().Kind }
func (p *Parser) atEOF() bool { return p.cur().Kind == TokEOF }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) spanOf(t Token) ast.Span {
	return ast.Span{Start: t.Start, End: t.End, Line: t.Line, Col: t.Col}
}

func (p *Parser) is(text string) bool {
	c := p.cur()
	return (c.Kind == TokPunct || c.Kind == TokKeyword) && c.Text == text
}

func (p *Parser) expect(text string) Token {
	if !p.is(text) {
		p.errorf("expected %q, found %q", text, p.cur().Text)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.sink.Add(diag.Errorf(p.spanOf(p.cur()), format, args...))
}

// sync advances past the current token to avoid an infinite loop after a
// parse error, mirroring the teacher's panic-mode recovery style.
func (p *Parser) sync() {
	if !p.atEOF() {
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Node {
	start := p.cur()
	var decls []*ast.Node
	for !p.atEOF() {
		before := p.pos
		if d := p.parseTopLevel(); d != nil {
			decls = append(decls, d)
		}
		if p.pos == before {
			p.sync()
		}
	}
	end := p.toks[len(p.toks)-1]
	return ast.NewNode(ast.PROGRAM, ast.Span{Start: start.Start, End: end.End}, nil, decls...)
}

func (p *Parser) parseTopLevel() *ast.Node {
	switch {
	case p.is("import"):
		return p.parseImport()
	case p.is("extern"):
		return p.parseExternFn()
	case p.is("fn"):
		return p.parseFunction()
	case p.is("struct"):
		return p.parseStruct()
	case p.is("impl"):
		return p.parseImpl()
	case p.is("trait"):
		return p.parseTrait()
	case p.is("enum"):
		return p.parseEnum()
	case p.is("var"):
		return p.parseGlobalVar()
	default:
		p.errorf("unexpected token %q at top level", p.cur().Text)
		return nil
	}
}

// --- Imports (§4.3.1) -------------------------------------------------

func (p *Parser) parseImport() *ast.Node {
	start := p.advance() // 'import'
	path := p.parseDottedPath()
	if p.is("as") {
		p.advance()
		alias := p.expect_ident()
		return ast.NewNode(ast.IMPORT_AS_DECL, p.spanOf(start), struct {
			Path  string
			Alias string
		}{path, alias})
	}
	p.expect(";")
	return ast.NewNode(ast.IMPORT_DECL, p.spanOf(start), path)
}

func (p *Parser) parseDottedPath() string {
	s := p.expect_ident()
	for p.is(".") {
		p.advance()
		s += "." + p.expect_ident()
	}
	return s
}

func (p *Parser) expect_ident() string {
	if p.cur().Kind != TokIdent && p.cur().Kind != TokKeyword {
		p.errorf("expected identifier, found %q", p.cur().Text)
		return ""
	}
	return p.advance().Text
}

// --- Declarations ------------------------------------------------------

func (p *Parser) parseGenericParams() []*ast.Node {
	if !p.is("<") {
		return nil
	}
	p.advance()
	var params []*ast.Node
	for !p.is(">") && !p.atEOF() {
		before := p.pos
		t := p.cur()
		name := p.expect_ident()
		params = append(params, ast.NewNode(ast.GENERIC_PARAM, p.spanOf(t), name))
		if p.is(",") {
			p.advance()
		}
		if p.pos == before {
			p.sync()
		}
	}
	p.expect(">")
	return params
}

func (p *Parser) parseParams() []*ast.Node {
	p.expect("(")
	var params []*ast.Node
	for !p.is(")") && !p.atEOF() {
		before := p.pos
		t := p.cur()
		name := p.expect_ident()
		p.expect(":")
		ty := p.parseType()
		n := ast.NewNode(ast.PARAMETER, p.spanOf(t), name)
		n.ResolvedType = ty
		params = append(params, n)
		if p.is(",") {
			p.advance()
		}
		if p.pos == before {
			p.sync()
		}
	}
	p.expect(")")
	return params
}

func (p *Parser) parseFunction() *ast.Node {
	start := p.advance() // 'fn'
	name := p.expect_ident()
	generics := p.parseGenericParams()
	params := p.parseParams()
	var ret *ast.Type = ast.Void
	if p.is("->") {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()

	children := append(append([]*ast.Node{}, generics...), params...)
	children = append(children, body)
	n := ast.NewNode(ast.FUNCTION_DECL, p.spanOf(start), name, children...)
	n.ResolvedType = ret
	return n
}

func (p *Parser) parseExternFn() *ast.Node {
	start := p.advance() // 'extern'
	p.expect("fn")
	name := p.expect_ident()
	params := p.parseParams()
	var ret *ast.Type = ast.Void
	if p.is("->") {
		p.advance()
		ret = p.parseType()
	}
	p.expect(";")
	n := ast.NewNode(ast.EXTERN_FUNCTION_DECL, p.spanOf(start), name, params...)
	n.ResolvedType = ret
	return n
}

func (p *Parser) parseStruct() *ast.Node {
	start := p.advance() // 'struct'
	name := p.expect_ident()
	generics := p.parseGenericParams()
	p.expect("{")
	var fields []*ast.Node
	for !p.is("}") && !p.atEOF() {
		before := p.pos
		ft := p.cur()
		fname := p.expect_ident()
		p.expect(":")
		fty := p.parseType()
		fn := ast.NewNode(ast.STRUCT_FIELD, p.spanOf(ft), fname)
		fn.ResolvedType = fty
		fields = append(fields, fn)
		if p.is(",") {
			p.advance()
		}
		if p.pos == before {
			p.sync()
		}
	}
	p.expect("}")
	children := append(generics, fields...)
	return ast.NewNode(ast.STRUCT_DECL, p.spanOf(start), name, children...)
}

func (p *Parser) parseImpl() *ast.Node {
	start := p.advance() // 'impl'
	first := p.expect_ident()
	target := first
	traitName := ""
	if p.is("for") {
		p.advance()
		traitName = first
		target = p.expect_ident()
	}
	p.expect("{")
	var methods []*ast.Node
	for !p.is("}") && !p.atEOF() {
		if p.is("fn") {
			methods = append(methods, p.parseFunction())
		} else {
			p.sync()
		}
	}
	p.expect("}")
	n := ast.NewNode(ast.IMPL_DECL, p.spanOf(start), struct {
		Target string
		Trait  string
	}{target, traitName}, methods...)
	return n
}

func (p *Parser) parseTrait() *ast.Node {
	start := p.advance() // 'trait'
	name := p.expect_ident()
	p.expect("{")
	var sigs []*ast.Node
	for !p.is("}") && !p.atEOF() {
		before := p.pos
		st := p.cur()
		p.expect("fn")
		mname := p.expect_ident()
		params := p.parseParams()
		var ret *ast.Type = ast.Void
		if p.is("->") {
			p.advance()
			ret = p.parseType()
		}
		p.expect(";")
		sn := ast.NewNode(ast.TRAIT_METHOD_SIG, p.spanOf(st), mname, params...)
		sn.ResolvedType = ret
		sigs = append(sigs, sn)
		if p.pos == before {
			p.sync()
		}
	}
	p.expect("}")
	return ast.NewNode(ast.TRAIT_DECL, p.spanOf(start), name, sigs...)
}

func (p *Parser) parseEnum() *ast.Node {
	start := p.advance() // 'enum'
	name := p.expect_ident()
	generics := p.parseGenericParams()
	p.expect("{")
	var variants []*ast.Node
	for !p.is("}") && !p.atEOF() {
		before := p.pos
		vt := p.cur()
		vname := p.expect_ident()
		if p.is("(") {
			p.advance()
			var types []*ast.Type
			for !p.is(")") && !p.atEOF() {
				beforeType := p.pos
				types = append(types, p.parseType())
				if p.is(",") {
					p.advance()
				}
				if p.pos == beforeType {
					p.sync()
				}
			}
			p.expect(")")
			vn := ast.NewNode(ast.ENUM_VARIANT_TUPLE, p.spanOf(vt), vname)
			vn.ResolvedType = &ast.Type{Kind: ast.KindFunction, Args: types}
			variants = append(variants, vn)
		} else {
			variants = append(variants, ast.NewNode(ast.ENUM_VARIANT_UNIT, p.spanOf(vt), vname))
		}
		if p.is(",") {
			p.advance()
		}
		if p.pos == before {
			p.sync()
		}
	}
	p.expect("}")
	children := append(generics, variants...)
	return ast.NewNode(ast.ENUM_DECL, p.spanOf(start), name, children...)
}

func (p *Parser) parseGlobalVar() *ast.Node {
	n := p.parseVarDeclStmt()
	n.Kind = ast.GLOBAL_VAR_DECL
	return n
}

// --- Types --------------------------------------------------------------

func (p *Parser) parseType() *ast.Type {
	var base *ast.Type
	switch {
	case p.is("int"):
		p.advance()
		base = ast.Int
	case p.is("float"):
		p.advance()
		base = ast.Float
	case p.is("bool"):
		p.advance()
		base = ast.Bool
	case p.is("string"):
		p.advance()
		base = ast.String
	case p.is("void"):
		p.advance()
		base = ast.Void
	case p.is("["):
		p.advance()
		var size int
		if p.cur().Kind == TokInt {
			fmt.Sscanf(p.advance().Text, "%d", &size)
		}
		p.expect("]")
		elem := p.parseType()
		base = ast.NewArray(elem, size)
	case p.is("fn"):
		p.advance()
		p.expect("(")
		var params []*ast.Type
		for !p.is(")") && !p.atEOF() {
			before := p.pos
			params = append(params, p.parseType())
			if p.is(",") {
				p.advance()
			}
			if p.pos == before {
				p.sync()
			}
		}
		p.expect(")")
		ret := ast.Void
		if p.is("->") {
			p.advance()
			ret = p.parseType()
		}
		base = ast.NewFunction(params, ret)
	default:
		name := p.expect_ident()
		switch name {
		case "Vec":
			p.expect("<")
			elem := p.parseType()
			p.expect(">")
			base = ast.NewVec(elem)
		case "Result":
			p.expect("<")
			ok := p.parseType()
			p.expect(",")
			errT := p.parseType()
			p.expect(">")
			base = ast.NewResult(ok, errT)
		default:
			if p.is("<") {
				p.advance()
				var args []*ast.Type
				for !p.is(">") && !p.atEOF() {
					before := p.pos
					args = append(args, p.parseType())
					if p.is(",") {
						p.advance()
					}
					if p.pos == before {
						p.sync()
					}
				}
				p.expect(">")
				base = ast.NewGeneric(name, args)
			} else {
				base = ast.NewStruct(name)
			}
		}
	}
	if p.is("?") {
		p.advance()
		base = ast.NewNullable(base)
	}
	return base
}

// --- Statements -----------------------------------------------------------

func (p *Parser) parseBlock() *ast.Node {
	start := p.expect("{")
	var stmts []*ast.Node
	for !p.is("}") && !p.atEOF() {
		before := p.pos
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			p.sync()
		}
	}
	p.expect("}")
	return ast.NewNode(ast.BLOCK, p.spanOf(start), nil, stmts...)
}

func (p *Parser) parseStmt() *ast.Node {
	switch {
	case p.is("var"):
		return p.parseVarDeclStmt()
	case p.is("if"):
		return p.parseIf()
	case p.is("while"):
		return p.parseWhile()
	case p.is("for"):
		return p.parseFor()
	case p.is("return"):
		start := p.advance()
		if p.is(";") {
			p.advance()
			return ast.NewNode(ast.RETURN_STMT, p.spanOf(start), nil)
		}
		e := p.parseExpr()
		p.expect(";")
		return ast.NewNode(ast.RETURN_STMT, p.spanOf(start), nil, e)
	case p.is("break"):
		start := p.advance()
		p.expect(";")
		return ast.NewNode(ast.BREAK_STMT, p.spanOf(start), nil)
	case p.is("continue"):
		start := p.advance()
		p.expect(";")
		return ast.NewNode(ast.CONTINUE_STMT, p.spanOf(start), nil)
	case p.is("{"):
		return p.parseBlock()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseVarDeclStmt() *ast.Node {
	start := p.advance() // 'var'
	name := p.expect_ident()
	var declared *ast.Type
	if p.is(":") {
		p.advance()
		declared = p.parseType()
	}
	p.expect("=")
	val := p.parseExpr()
	p.expect(";")
	n := ast.NewNode(ast.VAR_DECL_STMT, p.spanOf(start), name, val)
	n.ResolvedType = declared
	return n
}

func (p *Parser) parseIf() *ast.Node {
	start := p.advance() // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()
	children := []*ast.Node{cond, then}
	if p.is("else") {
		p.advance()
		if p.is("if") {
			children = append(children, p.parseIf())
		} else {
			children = append(children, p.parseBlock())
		}
	}
	return ast.NewNode(ast.IF_STMT, p.spanOf(start), nil, children...)
}

func (p *Parser) parseWhile() *ast.Node {
	start := p.advance() // 'while'
	cond := p.parseExpr()
	body := p.parseBlock()
	return ast.NewNode(ast.WHILE_STMT, p.spanOf(start), nil, cond, body)
}

func (p *Parser) parseFor() *ast.Node {
	start := p.advance() // 'for'
	// Disambiguate classical for (init;cond;inc) from for-in (name in expr).
	save := p.pos
	if p.cur().Kind == TokIdent {
		name := p.advance().Text
		if p.is("in") {
			p.advance()
			iter := p.parseExpr()
			body := p.parseBlock()
			return ast.NewNode(ast.FOR_IN_STMT, p.spanOf(start), name, iter, body)
		}
		p.pos = save
	}
	var init, cond, inc *ast.Node
	if !p.is(";") {
		init = p.parseExprOrAssignStmtNoSemi()
	}
	p.expect(";")
	if !p.is(";") {
		cond = p.parseExpr()
	}
	p.expect(";")
	if !p.is("{") {
		inc = p.parseExprOrAssignStmtNoSemi()
	}
	body := p.parseBlock()
	// init/cond/inc may be nil (omitted clause); Children entries may be
	// nil pointers, and every later pass treats a nil FOR_STMT child as
	// "this clause is absent" rather than panicking on it.
	return ast.NewNode(ast.FOR_STMT, p.spanOf(start), nil, init, cond, inc, body)
}

func (p *Parser) parseExprOrAssignStmtNoSemi() *ast.Node {
	start := p.cur()
	lhs := p.parseExpr()
	if p.is("=") {
		p.advance()
		rhs := p.parseExpr()
		return ast.NewNode(ast.ASSIGN_STMT, p.spanOf(start), nil, lhs, rhs)
	}
	return ast.NewNode(ast.EXPR_STMT, p.spanOf(start), nil, lhs)
}

func (p *Parser) parseExprOrAssignStmt() *ast.Node {
	n := p.parseExprOrAssignStmtNoSemi()
	p.expect(";")
	return n
}

// --- Expressions ----------------------------------------------------------
//
// Precedence-climbing binary parser, grounded on the operator table in
// spec.md §4.4 and original_source's parser/expr/mod.rs.

var precedence = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"??": 4,
	"+":  5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func (p *Parser) parseExpr() *ast.Node { return p.parseBinary(0) }

func (p *Parser) parseBinary(minPrec int) *ast.Node {
	left := p.parseUnary()
	for {
		op := p.cur().Text
		prec, ok := precedence[op]
		if !ok || p.cur().Kind != TokPunct || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		left = ast.NewNode(ast.BINARY_EXPR, p.spanOf(opTok), op, left, right)
	}
}

func (p *Parser) parseUnary() *ast.Node {
	if p.is("-") || p.is("!") {
		opTok := p.advance()
		operand := p.parseUnary()
		return ast.NewNode(ast.UNARY_EXPR, p.spanOf(opTok), opTok.Text, operand)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Node {
	n := p.parsePrimary()
	for {
		switch {
		case p.is("("):
			n = p.parseCallArgs(n)
		case p.is("["):
			start := p.advance()
			idx := p.parseExpr()
			p.expect("]")
			n = ast.NewNode(ast.INDEX_EXPR, p.spanOf(start), nil, n, idx)
		case p.is(".") || p.is("?."):
			safe := p.is("?.")
			start := p.advance()
			field := p.expect_ident()
			if p.is("(") {
				args := p.parseCallArgList()
				n = ast.NewNode(ast.METHOD_CALL_EXPR, p.spanOf(start), &ast.FieldAccess{Name: field, Safe: safe}, append([]*ast.Node{n}, args...)...)
			} else {
				n = ast.NewNode(ast.FIELD_GET_EXPR, p.spanOf(start), &ast.FieldAccess{Name: field, Safe: safe}, n)
			}
		default:
			return n
		}
	}
}

func (p *Parser) parseCallArgList() []*ast.Node {
	p.expect("(")
	var args []*ast.Node
	for !p.is(")") && !p.atEOF() {
		args = append(args, p.parseExpr())
		if p.is(",") {
			p.advance()
		}
	}
	p.expect(")")
	return args
}

func (p *Parser) parseCallArgs(callee *ast.Node) *ast.Node {
	start := p.cur()
	args := p.parseCallArgList()
	return ast.NewNode(ast.CALL_EXPR, p.spanOf(start), nil, append([]*ast.Node{callee}, args...)...)
}

func (p *Parser) parsePrimary() *ast.Node {
	t := p.cur()
	switch {
	case t.Kind == TokInt:
		p.advance()
		var v int64
		fmt.Sscanf(t.Text, "%d", &v)
		return ast.NewNode(ast.LITERAL_INT, p.spanOf(t), v)
	case t.Kind == TokFloat:
		p.advance()
		var v float64
		fmt.Sscanf(t.Text, "%g", &v)
		return ast.NewNode(ast.LITERAL_FLOAT, p.spanOf(t), v)
	case t.Kind == TokString:
		p.advance()
		return ast.NewNode(ast.LITERAL_STRING, p.spanOf(t), unquote(t.Text))
	case p.is("true"), p.is("false"):
		p.advance()
		return ast.NewNode(ast.LITERAL_BOOL, p.spanOf(t), t.Text == "true")
	case p.is("null"):
		p.advance()
		return ast.NewNode(ast.LITERAL_NULL, p.spanOf(t), nil)
	case p.is("try"):
		p.advance()
		e := p.parseExpr()
		return ast.NewNode(ast.TRY_EXPR, p.spanOf(t), nil, e)
	case p.is("ok"):
		p.advance()
		p.expect("(")
		e := p.parseExpr()
		p.expect(")")
		return ast.NewNode(ast.OK_EXPR, p.spanOf(t), nil, e)
	case p.is("err"):
		p.advance()
		p.expect("(")
		e := p.parseExpr()
		p.expect(")")
		return ast.NewNode(ast.ERR_EXPR, p.spanOf(t), nil, e)
	case p.is("match"):
		return p.parseMatch()
	case p.is("fn"):
		return p.parseClosure()
	case p.is("["):
		return p.parseArrayOrVecLiteral()
	case p.is("("):
		p.advance()
		e := p.parseExpr()
		p.expect(")")
		return e
	case t.Kind == TokIdent:
		p.advance()
		if p.is("<") {
			if args, ok := p.tryParseGenericArgs(); ok {
				if p.is("{") {
					lit := p.parseStructLiteral(t)
					return ast.NewNode(ast.GENERIC_INSTANTIATION_EXPR, p.spanOf(t), args, lit)
				}
				if p.is("(") {
					call := p.parseCallArgs(ast.NewNode(ast.IDENTIFIER, p.spanOf(t), t.Text))
					return ast.NewNode(ast.GENERIC_INSTANTIATION_EXPR, p.spanOf(t), args, call)
				}
			}
		}
		if p.is("{") && p.looksLikeStructLiteral() {
			return p.parseStructLiteral(t)
		}
		return ast.NewNode(ast.IDENTIFIER, p.spanOf(t), t.Text)
	default:
		p.errorf("unexpected token %q in expression", t.Text)
		p.sync()
		return ast.NewNode(ast.IDENTIFIER, p.spanOf(t), "<error>")
	}
}

// tryParseGenericArgs speculatively parses a `<Type, Type, ...>` explicit
// generic instantiation argument list (spec.md §3's "explicit generic
// instantiation" expression). `<` is ambiguous with the less-than
// operator, so this backtracks fully unless the closing `>` is
// immediately followed by `{` or `(`, the only two contexts an explicit
// instantiation can appear in.
func (p *Parser) tryParseGenericArgs() ([]*ast.Type, bool) {
	save := p.pos
	p.advance() // '<'
	var args []*ast.Type
	for !p.is(">") {
		if p.atEOF() || p.is(";") || p.is("{") {
			p.pos = save
			return nil, false
		}
		args = append(args, p.parseType())
		if p.is(",") {
			p.advance()
		} else if !p.is(">") {
			p.pos = save
			return nil, false
		}
	}
	p.advance() // '>'
	if !p.is("{") && !p.is("(") {
		p.pos = save
		return nil, false
	}
	return args, true
}

// looksLikeStructLiteral is a one-token lookahead heuristic: `Name {` is a
// struct literal only when followed by `ident :` or an immediate `}`,
// distinguishing it from a following block (e.g. `if cond {`).
func (p *Parser) looksLikeStructLiteral() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.advance() // '{'
	if p.is("}") {
		return true
	}
	return (p.cur().Kind == TokIdent) && p.peekAt(1) == ":"
}

func (p *Parser) peekAt(n int) string {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return ""
	}
	return p.toks[idx].Text
}

func (p *Parser) parseStructLiteral(name Token) *ast.Node {
	start := p.advance() // '{'
	var fields []*ast.Node
	for !p.is("}") && !p.atEOF() {
		ft := p.cur()
		fname := p.expect_ident()
		p.expect(":")
		val := p.parseExpr()
		fields = append(fields, ast.NewNode(ast.EXPR_STMT, p.spanOf(ft), &ast.StructLiteralField{Name: fname, Span: p.spanOf(ft)}, val))
		if p.is(",") {
			p.advance()
		}
	}
	p.expect("}")
	return ast.NewNode(ast.STRUCT_LITERAL_EXPR, p.spanOf(start), name.Text, fields...)
}

func (p *Parser) parseArrayOrVecLiteral() *ast.Node {
	start := p.advance() // '['
	var elems []*ast.Node
	for !p.is("]") && !p.atEOF() {
		elems = append(elems, p.parseExpr())
		if p.is(",") {
			p.advance()
		}
	}
	p.expect("]")
	return ast.NewNode(ast.ARRAY_LITERAL_EXPR, p.spanOf(start), nil, elems...)
}

func (p *Parser) parseMatch() *ast.Node {
	start := p.advance() // 'match'
	subject := p.parseExpr()
	p.expect("{")
	var arms []*ast.Node
	for !p.is("}") && !p.atEOF() {
		at := p.cur()
		var pattern string
		if p.cur().Text == "_" {
			p.advance()
			pattern = "_"
		} else {
			pattern = p.parseDottedPath()
		}
		p.expect("=>")
		body := p.parseExpr()
		arms = append(arms, ast.NewNode(ast.MATCH_ARM, p.spanOf(at), pattern, body))
		if p.is(",") {
			p.advance()
		}
	}
	p.expect("}")
	return ast.NewNode(ast.MATCH_EXPR, p.spanOf(start), nil, append([]*ast.Node{subject}, arms...)...)
}

func (p *Parser) parseClosure() *ast.Node {
	start := p.advance() // 'fn'
	params := p.parseParams()
	var ret *ast.Type = ast.Void
	if p.is("->") {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	n := ast.NewNode(ast.CLOSURE_EXPR, p.spanOf(start), nil, append(params, body)...)
	n.ResolvedType = ret
	return n
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
