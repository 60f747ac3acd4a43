// Package nullsafe implements the flow-sensitive null-safety analyzer of
// spec.md §4.5: it runs after type checking and narrows a variable to
// non-null within the then-branch of an `x != null` (or `null != x`)
// test, writing the narrowing as a per-scope-id refinement overlay that
// internal/types' inferer already knows how to consult
// (scope.Table.EffectiveType). Grounded on spec.md §4.5's rule list; the
// teacher has no null-safety concept (VSL has no nullable types), so
// this pass has no direct teacher file to adapt and is designed fresh
// from the spec, re-using the scope tree's pre-order child-index
// re-walk scheme documented in spec.md §9 and the GLOSSARY.
package nullsafe

import (
	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/scope"
)

// Checker re-walks the AST built by the resolver, re-entering the same
// scope-tree geometry via ChildrenOf/next-child-index counters instead of
// creating new scopes, per the GLOSSARY's "Scope tree" entry.
type Checker struct {
	Table *scope.Table
	Sink  *diag.Sink

	// cursor tracks how many of a scope's children have already been
	// consumed by this walk, so the Nth scope-creating AST construct
	// visited under a given parent binds to children_of(parent)[N].
	cursor map[scope.ID]int
}

// NewChecker builds a null-safety checker sharing the resolver's table.
func NewChecker(table *scope.Table, sink *diag.Sink) *Checker {
	return &Checker{Table: table, Sink: sink, cursor: map[scope.ID]int{}}
}

// CheckProgram walks every function body.
func (c *Checker) CheckProgram(prog *ast.Node) {
	for _, d := range prog.Children {
		c.checkDecl(d)
	}
}

func (c *Checker) checkDecl(d *ast.Node) {
	switch d.Kind {
	case ast.FUNCTION_DECL:
		c.checkFunction(d)
	case ast.IMPL_DECL:
		for _, m := range d.Children {
			if m.Kind == ast.FUNCTION_DECL {
				c.checkFunction(m)
			}
		}
	}
}

func (c *Checker) nextChildScope(parent scope.ID) (scope.ID, bool) {
	children := c.Table.ChildrenOf(parent)
	idx := c.cursor[parent]
	if idx >= len(children) {
		return 0, false
	}
	c.cursor[parent] = idx + 1
	return children[idx], true
}

func (c *Checker) checkFunction(fn *ast.Node) {
	fnScope, ok := c.nextChildScope(0)
	if !ok {
		return
	}
	var body *ast.Node
	for _, ch := range fn.Children {
		if ch.Kind == ast.BLOCK {
			body = ch
		}
	}
	if body == nil {
		return
	}
	blockScope, ok := c.nextChildScope(fnScope)
	if !ok {
		return
	}
	c.checkBlock(body, blockScope)
}

func (c *Checker) checkBlock(b *ast.Node, scopeID scope.ID) {
	for _, s := range b.Children {
		c.checkStmt(s, scopeID)
	}
}

// checkStmt walks s, whose effective lexical scope is scopeID (the
// block/function scope it lives in). Constructs that open a nested
// block (if/while/for/for-in bodies) consume the next child scope of
// scopeID in resolver-creation order.
func (c *Checker) checkStmt(s *ast.Node, scopeID scope.ID) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.VAR_DECL_STMT:
		c.checkExpr(s.Children[0], scopeID)
		if s.ResolvedType != nil && !s.ResolvedType.IsNullable() {
			if isNullLiteral(s.Children[0]) {
				c.errf(s.Span, "cannot assign null to non-nullable binding %v", s.Data)
			}
		}

	case ast.ASSIGN_STMT:
		target, val := s.Children[0], s.Children[1]
		c.checkExpr(target, scopeID)
		c.checkExpr(val, scopeID)
		if target.Kind == ast.IDENTIFIER && target.ResolvedType != nil &&
			!target.ResolvedType.IsNullable() && isNullLiteral(val) {
			c.errf(s.Span, "cannot assign null to non-nullable variable %v", target.Data)
		}

	case ast.EXPR_STMT:
		if len(s.Children) > 0 {
			c.checkExpr(s.Children[0], scopeID)
		}

	case ast.BLOCK:
		nested, ok := c.nextChildScope(scopeID)
		if ok {
			c.checkBlock(s, nested)
		}

	case ast.IF_STMT:
		c.checkExpr(s.Children[0], scopeID)
		narrowed := narrowingTarget(s.Children[0])

		thenScope, ok := c.nextChildScope(scopeID)
		if ok {
			if narrowed != "" {
				if ty, found := c.Table.EffectiveType(narrowed, scopeID); found && ty.IsNullable() {
					c.Table.Refine(thenScope, narrowed, ty.Unwrap())
				}
			}
			c.checkBlock(s.Children[1], thenScope)
			// Refinements added inside a branch are discarded on join
			// (§4.5): nothing to undo since they live on thenScope only,
			// which is never consulted again after the if exits.
		}
		if len(s.Children) > 2 {
			if s.Children[2].Kind == ast.BLOCK {
				elseScope, ok := c.nextChildScope(scopeID)
				if ok {
					c.checkBlock(s.Children[2], elseScope)
				}
			} else {
				c.checkStmt(s.Children[2], scopeID)
			}
		}

	case ast.WHILE_STMT:
		c.checkExpr(s.Children[0], scopeID)
		bodyScope, ok := c.nextChildScope(scopeID)
		if ok {
			// Refinements never propagate into loop bodies (§4.5,
			// conservative): bodyScope starts with no overlay regardless
			// of what scopeID currently carries.
			c.checkBlock(s.Children[1], bodyScope)
		}

	case ast.FOR_STMT:
		loopScope, ok := c.nextChildScope(scopeID)
		if !ok {
			return
		}
		c.checkStmt(s.Children[0], loopScope)
		if s.Children[1] != nil {
			c.checkExpr(s.Children[1], loopScope)
		}
		c.checkStmt(s.Children[2], loopScope)
		bodyScope, ok := c.nextChildScope(loopScope)
		if ok {
			c.checkBlock(s.Children[3], bodyScope)
		}

	case ast.FOR_IN_STMT:
		c.checkExpr(s.Children[0], scopeID)
		loopScope, ok := c.nextChildScope(scopeID)
		if ok {
			bodyScope, ok := c.nextChildScope(loopScope)
			if ok {
				c.checkBlock(s.Children[1], bodyScope)
			}
		}

	case ast.RETURN_STMT:
		if len(s.Children) > 0 {
			c.checkExpr(s.Children[0], scopeID)
		}
	}
}

func (c *Checker) checkExpr(e *ast.Node, scopeID scope.ID) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.FIELD_GET_EXPR, ast.METHOD_CALL_EXPR:
		recv := e.Children[0]
		c.checkExpr(recv, scopeID)
		fa := fieldAccessOf(e)
		if recv.ResolvedType != nil && recv.ResolvedType.IsNullable() && fa != nil && !fa.Safe {
			if !c.isKnownNonNull(recv, scopeID) {
				c.errf(e.Span, "possible null access: %s may be null here; use '?.' or narrow with a null check first", describeReceiver(recv))
			}
		}
		for _, a := range e.Children[1:] {
			c.checkExpr(a, scopeID)
		}

	case ast.INDEX_EXPR:
		base := e.Children[0]
		c.checkExpr(base, scopeID)
		c.checkExpr(e.Children[1], scopeID)
		if base.ResolvedType != nil && base.ResolvedType.IsNullable() && !c.isKnownNonNull(base, scopeID) {
			c.errf(e.Span, "possible null access: %s may be null here", describeReceiver(base))
		}

	case ast.MATCH_EXPR:
		c.checkExpr(e.Children[0], scopeID)
		for _, arm := range e.Children[1:] {
			armScope, ok := c.nextChildScope(scopeID)
			if !ok {
				continue
			}
			c.checkExpr(arm.Children[0], armScope)
		}

	case ast.BINARY_EXPR:
		opText, _ := e.Data.(string)
		if opText == "??" {
			left := e.Children[0]
			c.checkExpr(left, scopeID)
			c.checkExpr(e.Children[1], scopeID)
			if left.ResolvedType != nil && !left.ResolvedType.IsNullable() {
				c.Sink.Add(diag.Warnf(e.Span, "unnecessary '??': left operand is never null"))
			}
			return
		}
		for _, ch := range e.Children {
			c.checkExpr(ch, scopeID)
		}

	case ast.CLOSURE_EXPR:
		closureScope, ok := c.nextChildScope(scopeID)
		if !ok {
			return
		}
		for _, ch := range e.Children {
			if ch.Kind == ast.BLOCK {
				bodyScope, ok := c.nextChildScope(closureScope)
				if ok {
					c.checkBlock(ch, bodyScope)
				}
			}
		}

	default:
		for _, ch := range e.Children {
			c.checkExpr(ch, scopeID)
		}
	}
}

func (c *Checker) isKnownNonNull(receiver *ast.Node, scopeID scope.ID) bool {
	if receiver.Kind != ast.IDENTIFIER {
		return false
	}
	name, _ := receiver.Data.(string)
	ty, ok := c.Table.EffectiveType(name, scopeID)
	return ok && !ty.IsNullable()
}

// narrowingTarget recognizes `x != null` / `null != x` and returns the
// narrowed variable's name, or "" if cond isn't that shape.
func narrowingTarget(cond *ast.Node) string {
	if cond.Kind != ast.BINARY_EXPR {
		return ""
	}
	op, _ := cond.Data.(string)
	if op != "!=" {
		return ""
	}
	l, r := cond.Children[0], cond.Children[1]
	if l.Kind == ast.IDENTIFIER && r.Kind == ast.LITERAL_NULL {
		name, _ := l.Data.(string)
		return name
	}
	if r.Kind == ast.IDENTIFIER && l.Kind == ast.LITERAL_NULL {
		name, _ := r.Data.(string)
		return name
	}
	return ""
}

func isNullLiteral(e *ast.Node) bool { return e != nil && e.Kind == ast.LITERAL_NULL }

func fieldAccessOf(e *ast.Node) *ast.FieldAccess {
	fa, _ := e.Data.(*ast.FieldAccess)
	return fa
}

func describeReceiver(e *ast.Node) string {
	if e.Kind == ast.IDENTIFIER {
		if name, ok := e.Data.(string); ok {
			return name
		}
	}
	return "expression"
}

func (c *Checker) errf(span ast.Span, format string, args ...interface{}) {
	c.Sink.Add(diag.Errorf(span, format, args...))
}
