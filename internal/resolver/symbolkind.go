package resolver

// SymbolKind tags what a scope.Symbol's Node represents, per spec.md §3's
// "Symbols are tagged as Variable | Function | Struct | Enum | Trait |
// Class | Parameter | GenericParam | Global". Stored as scope.Symbol.Node's
// Kind (an *ast.Node), so no separate field is needed on scope.Symbol
// itself -- the resolver reads ast.Node.Kind to recover it.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymStruct
	SymEnum
	SymTrait
	SymParameter
	SymGenericParam
	SymGlobal
)
