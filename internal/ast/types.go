package ast

import (
	"fmt"
	"strings"
)

// Kind differentiates the members of the closed Type sum described in
// spec.md §3.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindVoid
	KindNullable
	KindArray
	KindVec
	KindStruct
	KindEnum
	KindGeneric
	KindGenericParam
	KindFunction
	KindResult
	KindError
)

var kindNames = [...]string{
	KindInt:         "int",
	KindFloat:       "float",
	KindBool:        "bool",
	KindString:      "string",
	KindVoid:        "void",
	KindNullable:    "nullable",
	KindArray:       "array",
	KindVec:         "vec",
	KindStruct:      "struct",
	KindEnum:        "enum",
	KindGeneric:     "generic",
	KindGenericParam: "generic-param",
	KindFunction:    "function",
	KindResult:      "result",
	KindError:       "error",
}

// Type is the closed sum of source types from spec.md §3. Rather than one
// Go type per variant (which would force every pass to type-switch across
// fifteen concrete types) it is a single tagged struct, mirroring the way
// the teacher models every AST node as one Node struct with a type tag: see
// ir/nodetype.go. Only the fields relevant to Kind are populated.
type Type struct {
	Kind Kind

	// Struct/Enum/Generic/GenericParam name.
	Name string

	// Nullable/Vec inner type, Array element type, Function return type is
	// stored in Return instead.
	Elem *Type

	// Array fixed size.
	Size int

	// Generic type arguments, and Function parameter types.
	Args []*Type

	// Function return type.
	Return *Type

	// Result ok/err types.
	Ok  *Type
	Err *Type
}

var (
	Int    = &Type{Kind: KindInt}
	Float  = &Type{Kind: KindFloat}
	Bool   = &Type{Kind: KindBool}
	String = &Type{Kind: KindString}
	Void   = &Type{Kind: KindVoid}
	// ErrType is the poison/bottom type: compatible with everything in both
	// directions, used to suppress cascading diagnostics (§4.8, §9).
	ErrType = &Type{Kind: KindError}
)

// NewNullable wraps inner in a Nullable(T).
func NewNullable(inner *Type) *Type { return &Type{Kind: KindNullable, Elem: inner} }

// NewVec wraps inner in a growable Vec(T).
func NewVec(inner *Type) *Type { return &Type{Kind: KindVec, Elem: inner} }

// NewArray builds a fixed-size Array{element, size}.
func NewArray(elem *Type, size int) *Type { return &Type{Kind: KindArray, Elem: elem, Size: size} }

// NewStruct names a nominal struct type.
func NewStruct(name string) *Type { return &Type{Kind: KindStruct, Name: name} }

// NewEnum names a nominal enum type.
func NewEnum(name string) *Type { return &Type{Kind: KindEnum, Name: name} }

// NewGeneric builds an uninstantiated Generic(name, args) reference.
func NewGeneric(name string, args []*Type) *Type {
	return &Type{Kind: KindGeneric, Name: name, Args: args}
}

// NewGenericParam names a type parameter visible inside a generic body.
func NewGenericParam(name string) *Type { return &Type{Kind: KindGenericParam, Name: name} }

// NewFunction builds a Function{params, return} function-pointer type.
func NewFunction(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Args: params, Return: ret}
}

// NewResult builds a Result{ok, err} tagged sum.
func NewResult(ok, err *Type) *Type { return &Type{Kind: KindResult, Ok: ok, Err: err} }

// --- TypeInfo-style predicate methods -------------------------------------
//
// Grounded on the original semantic analysis crate's own type-info module:
// a single place to query type properties instead of scattering
// switch-on-Kind statements across every pass.

// IsNumeric reports whether t is Int or Float.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindFloat)
}

// IsNullable reports whether t is a Nullable(T).
func (t *Type) IsNullable() bool {
	return t != nil && t.Kind == KindNullable
}

// IsPrimitive reports whether t is one of Int/Float/Bool/String/Void.
func (t *Type) IsPrimitive() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindVoid:
		return true
	default:
		return false
	}
}

// IsArray reports whether t is a fixed-size Array.
func (t *Type) IsArray() bool { return t != nil && t.Kind == KindArray }

// IsError reports whether t is the poison type.
func (t *Type) IsError() bool { return t != nil && t.Kind == KindError }

// InnerType returns the wrapped type of a Nullable, or nil otherwise.
func (t *Type) InnerType() *Type {
	if t != nil && t.Kind == KindNullable {
		return t.Elem
	}
	return nil
}

// Unwrap strips one level of Nullable, returning t itself if t isn't
// nullable. Used pervasively by the null-safety checker and the inferer
// when a refinement has narrowed a variable to non-null.
func (t *Type) Unwrap() *Type {
	if t == nil {
		return nil
	}
	if t.Kind == KindNullable {
		return t.Elem
	}
	return t
}

// DisplayName renders a Type the way diagnostics quote it to users.
func (t *Type) DisplayName() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindVoid, KindError:
		return kindNames[t.Kind]
	case KindNullable:
		return t.Elem.DisplayName() + "?"
	case KindArray:
		return fmt.Sprintf("[%d]%s", t.Size, t.Elem.DisplayName())
	case KindVec:
		return fmt.Sprintf("Vec<%s>", t.Elem.DisplayName())
	case KindStruct, KindEnum, KindGenericParam:
		return t.Name
	case KindGeneric:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.DisplayName()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(args, ", "))
	case KindFunction:
		params := make([]string, len(t.Args))
		for i, a := range t.Args {
			params[i] = a.DisplayName()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), t.Return.DisplayName())
	case KindResult:
		return fmt.Sprintf("Result<%s, %s>", t.Ok.DisplayName(), t.Err.DisplayName())
	default:
		return "?"
	}
}

func (t *Type) String() string { return t.DisplayName() }

// Equal reports structural equality of two types. Error is equal to
// nothing but itself under this relation; callers that want poison
// semantics use Compatible (compat.go in internal/types), not Equal.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindVoid, KindError:
		return true
	case KindNullable, KindVec:
		return Equal(a.Elem, b.Elem)
	case KindArray:
		return a.Size == b.Size && Equal(a.Elem, b.Elem)
	case KindStruct, KindEnum, KindGenericParam:
		return a.Name == b.Name
	case KindGeneric:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindFunction:
		if len(a.Args) != len(b.Args) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindResult:
		return Equal(a.Ok, b.Ok) && Equal(a.Err, b.Err)
	default:
		return false
	}
}
