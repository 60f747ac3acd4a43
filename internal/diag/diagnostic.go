package diag

import (
	"fmt"

	"github.com/lency-lang/lency/internal/ast"
)

// Suggestion is a fix-it suggestion attached to a Diagnostic.
type Suggestion struct {
	Message     string
	Replacement string // empty if there is no concrete replacement text.
}

// Diagnostic is a single structured compiler message, per spec.md §4.1.
type Diagnostic struct {
	Level       Level
	Message     string
	Span        *ast.Span
	Notes       []string
	Suggestions []Suggestion
}

// New creates a bare diagnostic at the given level.
func New(level Level, message string) *Diagnostic {
	return &Diagnostic{Level: level, Message: message}
}

// Errorf builds an error-level diagnostic.
func Errorf(span ast.Span, format string, args ...interface{}) *Diagnostic {
	return New(Error, fmt.Sprintf(format, args...)).At(span)
}

// Warnf builds a warning-level diagnostic.
func Warnf(span ast.Span, format string, args ...interface{}) *Diagnostic {
	return New(Warning, fmt.Sprintf(format, args...)).At(span)
}

// At attaches a span to d and returns d for chaining.
func (d *Diagnostic) At(span ast.Span) *Diagnostic {
	s := span
	d.Span = &s
	return d
}

// WithNote appends a supplementary note.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithSuggestion appends a fix suggestion.
func (d *Diagnostic) WithSuggestion(message, replacement string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return d
}
