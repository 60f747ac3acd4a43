// Package scope implements the scope stack and symbol table of spec.md
// §4.2. The teacher's own Symbol/SymTab types (referenced from
// ir/validate.go) are missing from the retrieved source, so this package
// is designed fresh from the spec, carrying over the linked-list stack
// shape of hhramberg-go-vslc/src/util/stack.go and its mutex-protected
// push/pop discipline so concurrent resolver workers (§5) can share one
// table safely.
package scope

import (
	"fmt"
	"sync"

	"github.com/lency-lang/lency/internal/ast"
)

// Kind differentiates the scope a Scope represents, mostly for
// diagnostics and for the resolver's decision about what's legal to
// declare at a given level (e.g. `return` only valid inside a Function
// scope's descendants).
type Kind int

const (
	Global Kind = iota
	Function
	Block
	Impl
	Match
)

// ID identifies a scope. Stable for the lifetime of a Table; used by
// children_of/lookup_from/set_current per §4.2.
type ID int

// Symbol is a single named entity visible in some scope: a variable,
// function, struct, enum, generic parameter, or parameter.
type Symbol struct {
	Name    string
	Type    *ast.Type
	Span    ast.Span
	Node    *ast.Node
	Mutable bool
}

// Redefinition is returned by Define when name already exists in the
// target scope. Never raised for shadowing across parent scopes --
// spec.md §4.2 explicitly allows shadowing.
type Redefinition struct {
	Name string
}

func (e *Redefinition) Error() string {
	return fmt.Sprintf("%q is already defined in this scope", e.Name)
}

type scopeNode struct {
	id        ID
	kind      Kind
	parent    ID
	hasParent bool
	symbols   map[string]*Symbol
	order     []string // preserves insertion order for children_of / iteration
	// refinements is the null-safety overlay: narrowed types keyed by
	// variable name, installed by internal/nullsafe and consulted by
	// internal/types when resolving a variable's effective type.
	refinements map[string]*ast.Type
}

// Table is the scope stack and symbol table for one compilation unit.
// Safe for concurrent use: internal/resolver's pass 2 may walk sibling
// function bodies on separate goroutines, each calling EnterAt/Exit
// against scopes that were all created single-threaded during pass 1.
type Table struct {
	mu      sync.RWMutex
	scopes  []*scopeNode
	current ID
}

// NewTable returns a table containing just the global scope (id 0),
// already current.
func NewTable() *Table {
	t := &Table{}
	t.scopes = append(t.scopes, &scopeNode{
		id:          0,
		kind:        Global,
		symbols:     map[string]*Symbol{},
		refinements: map[string]*ast.Type{},
	})
	t.current = 0
	return t
}

// Enter pushes a new child scope of the current scope and makes it
// current, returning its id.
func (t *Table) Enter(kind Kind) ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enterLocked(kind, t.current)
}

// EnterAt pushes a new child of parent without disturbing current,
// returning the new scope's id. Used by the resolver when opening a
// function body scope while pass 1's cursor still points at global.
func (t *Table) EnterAt(kind Kind, parent ID) ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enterLocked(kind, parent)
}

func (t *Table) enterLocked(kind Kind, parent ID) ID {
	id := ID(len(t.scopes))
	t.scopes = append(t.scopes, &scopeNode{
		id:          id,
		kind:        kind,
		parent:      parent,
		hasParent:   true,
		symbols:     map[string]*Symbol{},
		refinements: map[string]*ast.Type{},
	})
	return id
}

// Exit moves current back to its parent. No-op at the global scope.
func (t *Table) Exit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.scopes[t.current]
	if n.hasParent {
		t.current = n.parent
	}
}

// Current returns the scope id the table is positioned at.
func (t *Table) Current() ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// SetCurrent repositions the table at id, for passes (type inference)
// that re-enter an arbitrary previously-created scope out of order.
func (t *Table) SetCurrent(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = id
}

// Define installs sym in scope id, failing if the name already exists
// in that exact scope (never checking ancestors: shadowing is legal).
func (t *Table) Define(id ID, sym *Symbol) (ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.scopes[id]
	if _, exists := n.symbols[sym.Name]; exists {
		return id, &Redefinition{Name: sym.Name}
	}
	n.symbols[sym.Name] = sym
	n.order = append(n.order, sym.Name)
	return id, nil
}

// DefineCurrent is Define against the table's current scope.
func (t *Table) DefineCurrent(sym *Symbol) (ID, error) {
	return t.Define(t.Current(), sym)
}

// Lookup walks from the current scope up through parents, returning the
// first matching symbol.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	return t.LookupFrom(name, t.Current())
}

// LookupFrom walks from scope id up through parents, returning the
// first matching symbol and the scope id it was found in.
func (t *Table) LookupFrom(name string, id ID) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for {
		n := t.scopes[id]
		if sym, ok := n.symbols[name]; ok {
			return sym, true
		}
		if !n.hasParent {
			return nil, false
		}
		id = n.parent
	}
}

// ChildrenOf returns every scope whose direct parent is id, in the
// stable order they were created -- later passes re-walk the tree
// using this instead of re-running the resolver.
func (t *Table) ChildrenOf(id ID) []ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []ID
	for _, n := range t.scopes {
		if n.hasParent && n.parent == id {
			out = append(out, n.id)
		}
	}
	return out
}

// Kind returns the scope kind of id.
func (t *Table) Kind(id ID) Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scopes[id].kind
}

// Refine installs a narrowed type for name, visible to lookups of the
// *effective* type (EffectiveType) made from id or any of its
// descendants until overwritten or the scope exits. Written by
// internal/nullsafe.
func (t *Table) Refine(id ID, name string, narrowed *ast.Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scopes[id].refinements[name] = narrowed
}

// ClearRefinement removes a narrowing previously installed by Refine.
func (t *Table) ClearRefinement(id ID, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.scopes[id].refinements, name)
}

// EffectiveType returns the refined type for name if any scope from id
// up to the root carries one, else the symbol's declared type via
// Lookup. The nearest (innermost) refinement wins.
func (t *Table) EffectiveType(name string, id ID) (*ast.Type, bool) {
	t.mu.RLock()
	cur := id
	for {
		n := t.scopes[cur]
		if ty, ok := n.refinements[name]; ok {
			t.mu.RUnlock()
			return ty, true
		}
		if !n.hasParent {
			break
		}
		cur = n.parent
	}
	t.mu.RUnlock()
	if sym, ok := t.LookupFrom(name, id); ok {
		return sym.Type, true
	}
	return nil, false
}
