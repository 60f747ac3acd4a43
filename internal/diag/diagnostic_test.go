package diag

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
)

func TestErrorfBuildsErrorLevelDiagnosticWithSpan(t *testing.T) {
	span := ast.Span{Start: 3, End: 6, Line: 2, Col: 4}
	d := Errorf(span, "expected %s, found %s", "int", "string")
	if d.Level != Error {
		t.Errorf("Errorf produced level %s, want error", d.Level)
	}
	if d.Message != "expected int, found string" {
		t.Errorf("Message = %q", d.Message)
	}
	if d.Span == nil || *d.Span != span {
		t.Errorf("Span = %+v, want %+v", d.Span, span)
	}
}

func TestWarnfBuildsWarningLevelDiagnostic(t *testing.T) {
	d := Warnf(ast.Span{}, "unused variable %q", "x")
	if d.Level != Warning {
		t.Errorf("Warnf produced level %s, want warning", d.Level)
	}
}

func TestWithNoteAndWithSuggestionAccumulate(t *testing.T) {
	d := New(Error, "bad").
		WithNote("first note").
		WithNote("second note").
		WithSuggestion("try this", "replacement")
	if len(d.Notes) != 2 {
		t.Fatalf("Notes = %v, want 2 entries", d.Notes)
	}
	if len(d.Suggestions) != 1 || d.Suggestions[0].Replacement != "replacement" {
		t.Errorf("Suggestions = %+v", d.Suggestions)
	}
}

func TestAtReplacesSpanOnCopy(t *testing.T) {
	d := New(Error, "bad")
	span := ast.Span{Line: 5, Col: 1}
	d.At(span)
	span.Line = 99
	if d.Span.Line != 5 {
		t.Errorf("At must copy the span, not alias it; got Line = %d", d.Span.Line)
	}
}
