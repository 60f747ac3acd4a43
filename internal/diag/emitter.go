package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Emitter renders diagnostics to an io.Writer, in colour or plain text.
// Grounded on the original diagnostics crate's own emitter
// (Emitter::new/without_colors/emit/emit_colored/emit_plain), using
// github.com/fatih/color in place of the Rust `colored` crate.
type Emitter struct {
	w      io.Writer
	color  bool
	errorC *color.Color
	warnC  *color.Color
	infoC  *color.Color
	noteC  *color.Color
	boldC  *color.Color
}

// NewEmitter returns a colour-capable emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:      w,
		color:  true,
		errorC: color.New(color.FgRed, color.Bold),
		warnC:  color.New(color.FgYellow, color.Bold),
		infoC:  color.New(color.FgCyan, color.Bold),
		noteC:  color.New(color.FgGreen, color.Bold),
		boldC:  color.New(color.Bold),
	}
}

// WithoutColors disables colour output, returning e for chaining.
func (e *Emitter) WithoutColors() *Emitter {
	e.color = false
	return e
}

func (e *Emitter) levelColor(l Level) *color.Color {
	switch l {
	case Error:
		return e.errorC
	case Warning:
		return e.warnC
	case Info:
		return e.infoC
	default:
		return e.noteC
	}
}

// Emit renders one diagnostic. If src is non-empty and d has a span, the
// offending source line is printed with a caret range underneath it, per
// spec.md §4.1.
func (e *Emitter) Emit(d *Diagnostic, src string) {
	if e.color {
		e.emitColored(d, src)
	} else {
		e.emitPlain(d, src)
	}
}

// EmitAll renders every diagnostic in a sink, in order.
func (e *Emitter) EmitAll(s *Sink, src string) {
	if s == nil {
		return
	}
	for _, d := range s.Diagnostics() {
		e.Emit(d, src)
	}
}

func (e *Emitter) emitPlain(d *Diagnostic, src string) {
	loc := ""
	if d.Span != nil {
		loc = d.Span.String() + ": "
	}
	fmt.Fprintf(e.w, "%s%s: %s\n", loc, d.Level, d.Message)
	e.emitSourceContext(d, src, false)
	for _, n := range d.Notes {
		fmt.Fprintf(e.w, "  note: %s\n", n)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(e.w, "  suggestion: %s\n", s.Message)
		if s.Replacement != "" {
			fmt.Fprintf(e.w, "    replace with: %s\n", s.Replacement)
		}
	}
}

func (e *Emitter) emitColored(d *Diagnostic, src string) {
	loc := ""
	if d.Span != nil {
		loc = e.boldC.Sprint(d.Span.String()) + ": "
	}
	lc := e.levelColor(d.Level)
	fmt.Fprintf(e.w, "%s%s: %s\n", loc, lc.Sprint(d.Level.String()), e.boldC.Sprint(d.Message))
	e.emitSourceContext(d, src, true)
	for _, n := range d.Notes {
		fmt.Fprintf(e.w, "  %s: %s\n", e.noteC.Sprint("note"), n)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(e.w, "  %s: %s\n", e.infoC.Sprint("suggestion"), s.Message)
		if s.Replacement != "" {
			fmt.Fprintf(e.w, "    replace with: %s\n", e.boldC.Sprint(s.Replacement))
		}
	}
}

// emitSourceContext prints the offending line of src plus a caret range
// under the span, when both are available.
func (e *Emitter) emitSourceContext(d *Diagnostic, src string, colored bool) {
	if src == "" || d.Span == nil {
		return
	}
	lines := strings.Split(src, "\n")
	lineIdx := d.Span.Line - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		return
	}
	line := lines[lineIdx]
	fmt.Fprintf(e.w, "  %s\n", line)

	col := d.Span.Col - 1
	if col < 0 {
		col = 0
	}
	width := d.Span.Len()
	if width < 1 {
		width = 1
	}
	if col > len(line) {
		col = len(line)
	}
	if col+width > len(line)+1 {
		width = len(line) + 1 - col
	}
	caret := strings.Repeat(" ", col) + strings.Repeat("^", width)
	if colored {
		caret = e.levelColor(d.Level).Sprint(caret)
	}
	fmt.Fprintf(e.w, "  %s\n", caret)
}
