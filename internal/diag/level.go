// Package diag implements the diagnostic system of spec.md §4.1: structured
// errors carrying spans, notes and fix suggestions, with source-aware plain
// and coloured rendering. Grounded on the original diagnostics crate
// (diagnostic.rs, level.rs, sink.rs, span.rs, emitter.rs); coloured
// rendering uses github.com/fatih/color, the library other compilers in
// the corpus (kanso-lang/kanso, vovakirdan/surge) reach for the same job.
package diag

// Level is one of the four diagnostic severities from spec.md §4.1.
type Level int

const (
	Error Level = iota
	Warning
	Info
	Note
)

var levelNames = [...]string{Error: "error", Warning: "warning", Info: "info", Note: "note"}

// String returns the lowercase level name, e.g. "error".
func (l Level) String() string {
	if int(l) < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// IsError reports whether l gates compilation (§4.8: "the driver halts
// between stages if any error level appears; warnings never gate").
func (l Level) IsError() bool { return l == Error }
