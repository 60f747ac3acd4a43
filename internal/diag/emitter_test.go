package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lency-lang/lency/internal/ast"
)

func TestEmitPlainIncludesLocationLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	d := Errorf(ast.Span{Line: 3, Col: 5}, "undefined variable %q", "x")

	e.Emit(d, "")

	out := buf.String()
	if !strings.Contains(out, "3:5") {
		t.Errorf("expected location %q in output, got:\n%s", "3:5", out)
	}
	if !strings.Contains(out, "error") {
		t.Errorf("expected level %q in output, got:\n%s", "error", out)
	}
	if !strings.Contains(out, `undefined variable "x"`) {
		t.Errorf("expected message in output, got:\n%s", out)
	}
}

func TestEmitPlainRendersNotesAndSuggestions(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	d := New(Warning, "unused import").
		WithNote("consider removing it").
		WithSuggestion("remove the import", "")

	e.Emit(d, "")

	out := buf.String()
	if !strings.Contains(out, "note: consider removing it") {
		t.Errorf("expected note in output, got:\n%s", out)
	}
	if !strings.Contains(out, "suggestion: remove the import") {
		t.Errorf("expected suggestion in output, got:\n%s", out)
	}
}

func TestEmitAllRendersEveryDiagnosticInOrder(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	s := NewSink()
	s.Add(New(Error, "first"))
	s.Add(New(Warning, "second"))

	e.EmitAll(s, "")

	out := buf.String()
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Errorf("expected diagnostics in insertion order, got:\n%s", out)
	}
}

func TestEmitAllOnNilSinkIsNoop(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	e.EmitAll(nil, "source")
	if buf.Len() != 0 {
		t.Errorf("expected no output for a nil sink, got:\n%s", buf.String())
	}
}

func TestEmitSourceContextDrawsCaretUnderSpan(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	d := Errorf(ast.Span{Start: 4, End: 7, Line: 1, Col: 5}, "bad token")

	e.Emit(d, "var xyz = 1;")

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected a source line and a caret line, got:\n%s", buf.String())
	}
	caret := lines[2]
	if !strings.Contains(caret, "^^^") {
		t.Errorf("expected a 3-wide caret run for a 3-byte span, got %q", caret)
	}
	if strings.Index(caret, "^") != 6 {
		t.Errorf("expected the caret to start at column index 6 (2-space prefix + 4-col span), got %q", caret)
	}
}

func TestEmitSourceContextClampsNegativeColumn(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	// Col 0 is out of the documented 1-based range; emitSourceContext must
	// clamp rather than index the line with a negative offset.
	d := Errorf(ast.Span{Start: 0, End: 2, Line: 1, Col: 0}, "bad")

	e.Emit(d, "abc")

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected emitSourceContext to still print a caret line, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[2], "  ^") {
		t.Errorf("expected the caret to clamp to column 0, got %q", lines[2])
	}
}

func TestEmitSourceContextSkipsOutOfRangeLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	d := Errorf(ast.Span{Start: 0, End: 1, Line: 50, Col: 1}, "bad")

	e.Emit(d, "only one line")

	if strings.Contains(buf.String(), "only one line") {
		t.Errorf("expected no source line printed for an out-of-range line number, got:\n%s", buf.String())
	}
}

func TestEmitSourceContextClampsCaretWidthOverflow(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	// The span claims a width far past the end of its (short) line;
	// emitSourceContext must clamp the caret run to what the line can hold
	// instead of overrunning it.
	d := Errorf(ast.Span{Start: 0, End: 100, Line: 1, Col: 1}, "bad")

	e.Emit(d, "ab")

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected a caret line, got:\n%s", buf.String())
	}
	caret := strings.TrimLeft(lines[2], " ")
	if len(caret) > len("ab")+1 {
		t.Errorf("expected the caret run clamped to the line length, got %q (len %d)", caret, len(caret))
	}
}

func TestEmitSourceContextSkipsWithoutSourceOrSpan(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf).WithoutColors()
	e.Emit(New(Error, "no span"), "some source")
	if strings.Contains(buf.String(), "some source") {
		t.Errorf("expected no source context without a span, got:\n%s", buf.String())
	}
}

func TestEmitColoredDoesNotPanicAndContainsMessage(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	d := Errorf(ast.Span{Start: 0, End: 1, Line: 1, Col: 1}, "boom")

	e.Emit(d, "x")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected the message to survive colour styling, got:\n%s", buf.String())
	}
}
