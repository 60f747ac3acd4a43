package types

import (
	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/scope"
)

// Checker drives Infer over statements and declarations, per spec.md
// §4.4: enforces return-type compatibility, assignment compatibility,
// missing-return, and break/continue-outside-loop.
type Checker struct {
	Table *scope.Table
	Sink  *diag.Sink
	Infer *Inferer

	// returnStack mirrors "the current function's return type
	// (maintained as a stack)" -- closures push their own declared
	// return type while their body is checked.
	returnStack []*ast.Type
	loopDepth   int
}

// NewChecker builds a checker sharing table and sink with the resolver.
func NewChecker(table *scope.Table, sink *diag.Sink) *Checker {
	return &Checker{Table: table, Sink: sink, Infer: NewInferer(table, sink)}
}

// CheckProgram type-checks every top-level declaration.
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
	case ast.GLOBAL_VAR_DECL:
		if len(d.Children) > 0 {
			valTy := c.Infer.Infer(d.Children[0])
			if d.ResolvedType != nil && !Compatible(d.ResolvedType, valTy) {
				c.errf(d.Span, "global %v: expected %s, found %s", d.Data, d.ResolvedType.DisplayName(), valTy.DisplayName())
			} else if d.ResolvedType == nil {
				d.ResolvedType = valTy
			}
		}
	}
}

func (c *Checker) errf(span ast.Span, format string, args ...interface{}) {
	c.Sink.Add(diag.Errorf(span, format, args...))
}

func (c *Checker) checkFunction(fn *ast.Node) {
	ret := fn.ResolvedType
	if ret == nil {
		ret = ast.Void
	}
	c.returnStack = append(c.returnStack, ret)
	defer func() { c.returnStack = c.returnStack[:len(c.returnStack)-1] }()

	var body *ast.Node
	for _, ch := range fn.Children {
		if ch.Kind == ast.BLOCK {
			body = ch
		}
	}
	if body == nil {
		return
	}
	c.checkBlock(body)

	if ret.Kind != ast.KindVoid && !allPathsReturn(body) {
		c.errf(fn.Span, "missing return: function %v must return %s on every path", fn.Data, ret.DisplayName())
	}
}

// allPathsReturn is the structural recursion of spec.md §4.4: a block
// returns if its last statement returns; an if-statement returns only if
// both its then- and else-arms return; everything else does not.
func allPathsReturn(n *ast.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.RETURN_STMT:
		return true
	case ast.BLOCK:
		if len(n.Children) == 0 {
			return false
		}
		return allPathsReturn(n.Children[len(n.Children)-1])
	case ast.IF_STMT:
		if len(n.Children) < 3 {
			return false // no else-arm: cannot guarantee return.
		}
		return allPathsReturn(n.Children[1]) && allPathsReturn(n.Children[2])
	default:
		return false
	}
}

func (c *Checker) checkBlock(b *ast.Node) {
	for _, s := range b.Children {
		c.checkStmt(s)
	}
}

func (c *Checker) checkStmt(s *ast.Node) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.VAR_DECL_STMT:
		valTy := c.Infer.Infer(s.Children[0])
		if s.ResolvedType != nil {
			// A null initializer for a non-nullable binding is left to
			// internal/nullsafe, which reports it as a null assignment.
			if !Compatible(s.ResolvedType, valTy) && s.Children[0].Kind != ast.LITERAL_NULL {
				c.errf(s.Span, "variable %v: expected %s, found %s", s.Data, s.ResolvedType.DisplayName(), valTy.DisplayName())
			}
		} else {
			s.ResolvedType = valTy
		}
		if sym, ok := c.Table.Lookup(toStr(s.Data)); ok {
			sym.Type = s.ResolvedType
		}

	case ast.ASSIGN_STMT:
		target, val := s.Children[0], s.Children[1]
		if !isLvalue(target) {
			c.errf(target.Span, "assignment target must be a variable, field access, or index expression")
		}
		targetTy := c.Infer.Infer(target)
		valTy := c.Infer.Infer(val)
		// Likewise null assigned to a variable is reported by
		// internal/nullsafe, not as a type mismatch.
		if !Compatible(targetTy, valTy) && !(val.Kind == ast.LITERAL_NULL && target.Kind == ast.IDENTIFIER) {
			c.errf(s.Span, "assignment: expected %s, found %s", targetTy.DisplayName(), valTy.DisplayName())
		}

	case ast.EXPR_STMT:
		if len(s.Children) > 0 {
			c.Infer.Infer(s.Children[0])
		}

	case ast.BLOCK:
		c.checkBlock(s)

	case ast.IF_STMT:
		c.checkCondition(s.Children[0])
		c.checkBlockOrStmt(s.Children[1])
		if len(s.Children) > 2 {
			c.checkBlockOrStmt(s.Children[2])
		}

	case ast.WHILE_STMT:
		c.checkCondition(s.Children[0])
		c.loopDepth++
		c.checkBlock(s.Children[1])
		c.loopDepth--

	case ast.FOR_STMT:
		c.checkStmt(s.Children[0])
		if s.Children[1] != nil {
			c.checkCondition(s.Children[1])
		}
		c.checkStmt(s.Children[2])
		c.loopDepth++
		c.checkBlock(s.Children[3])
		c.loopDepth--

	case ast.FOR_IN_STMT:
		iterTy := c.Infer.Infer(s.Children[0])
		if sym, ok := s.Symbol.(*scope.Symbol); ok && sym != nil {
			switch {
			case iterTy.IsError():
				sym.Type = ast.ErrType
			case iterTy.Kind == ast.KindArray, iterTy.Kind == ast.KindVec:
				sym.Type = iterTy.Elem
			default:
				c.errf(s.Children[0].Span, "for-in: expected an array or Vec, found %s", iterTy.DisplayName())
				sym.Type = ast.ErrType
			}
		}
		c.loopDepth++
		c.checkBlock(s.Children[1])
		c.loopDepth--

	case ast.RETURN_STMT:
		want := ast.Void
		if len(c.returnStack) > 0 {
			want = c.returnStack[len(c.returnStack)-1]
		}
		if len(s.Children) == 0 {
			if want.Kind != ast.KindVoid {
				c.errf(s.Span, "expected return value of type %s", want.DisplayName())
			}
			return
		}
		got := c.Infer.Infer(s.Children[0])
		if !Compatible(want, got) {
			c.errf(s.Span, "return type mismatch: expected %s, found %s", want.DisplayName(), got.DisplayName())
		}

	case ast.BREAK_STMT, ast.CONTINUE_STMT:
		if c.loopDepth == 0 {
			c.errf(s.Span, "%s outside of a loop", s.KindName())
		}
	}
}

func (c *Checker) checkBlockOrStmt(n *ast.Node) {
	if n.Kind == ast.BLOCK {
		c.checkBlock(n)
		return
	}
	c.checkStmt(n)
}

func (c *Checker) checkCondition(e *ast.Node) {
	ty := c.Infer.Infer(e)
	if ty.Kind != ast.KindBool && !ty.IsError() {
		c.errf(e.Span, "condition must be Bool, found %s", ty.DisplayName())
	}
}

func isLvalue(e *ast.Node) bool {
	switch e.Kind {
	case ast.IDENTIFIER, ast.FIELD_GET_EXPR, ast.INDEX_EXPR:
		return true
	default:
		return false
	}
}

func toStr(v interface{}) string {
	s, _ := v.(string)
	return s
}
