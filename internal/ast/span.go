// Package ast defines the shared data types consumed by every later stage of
// the semantic pipeline: source spans, the closed sum of types, and the
// tagged-union syntax tree node that every pass (resolver, inferer, checker,
// null-safety, monomorphizer, emitter) walks and mutates in place.
package ast

import "fmt"

// Span is a half-open byte range [Start, End) in a single source file.
type Span struct {
	Start int
	End   int
	Line  int // 1-based line of Start, kept for diagnostic rendering.
	Col   int // 1-based column of Start on Line.
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// String renders a span as "line:col" for error messages, matching the
// line:col style the teacher compiler uses throughout its fmt.Errorf calls.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Col)
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	s := a
	if b.Start < s.Start {
		s.Start = b.Start
		s.Line = b.Line
		s.Col = b.Col
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}
