// Package types implements the type inferer and checker of spec.md §4.4:
// a pure, side-effect-free inference function over expressions plus a
// checker that drives it over statements and declarations. Grounded on
// the teacher's LUT-based operator-compatibility style (lutExp/lutAssign
// in its own validator) and the rule text of spec.md §4.4.
package types

import "github.com/lency-lang/lency/internal/ast"

// Compatible implements the assignment-compatibility relation `expected
// ≽ actual` of spec.md §4.4:
//   - equal types are compatible;
//   - Int ≼ Float (the only implicit widening);
//   - Nullable(T) ≽ T and ≽ null;
//   - Error is compatible with everything (poison propagation).
func Compatible(expected, actual *ast.Type) bool {
	if expected == nil || actual == nil {
		return false
	}
	if expected.IsError() || actual.IsError() {
		return true
	}
	if ast.Equal(expected, actual) {
		return true
	}
	if expected.Kind == ast.KindFloat && actual.Kind == ast.KindInt {
		return true
	}
	if expected.Kind == ast.KindNullable {
		if actual.Kind == ast.KindNullable {
			return Compatible(expected.Elem, actual.Elem)
		}
		return Compatible(expected.Elem, actual)
	}
	return false
}

// LUB returns the least upper bound of a and b under Compatible, used by
// match-arm result unification and the Elvis `??` operator. Returns nil
// if neither is compatible with the other.
func LUB(a, b *ast.Type) *ast.Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.IsError() {
		return b
	}
	if b.IsError() {
		return a
	}
	if ast.Equal(a, b) {
		return a
	}
	if Compatible(a, b) {
		return a
	}
	if Compatible(b, a) {
		return b
	}
	return nil
}
