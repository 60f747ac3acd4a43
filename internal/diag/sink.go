package diag

// Sink accumulates diagnostics for one compilation stage. Stages never
// abort on the first error (§4.1, §4.8): every pass takes a *Sink and keeps
// walking past a bad subtree, poisoning it with ast.ErrType instead.
type Sink struct {
	diagnostics []*Diagnostic
	hasErrors   bool
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink { return &Sink{} }

// Add records a diagnostic.
func (s *Sink) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	if d.Level.IsError() {
		s.hasErrors = true
	}
	s.diagnostics = append(s.diagnostics, d)
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (s *Sink) HasErrors() bool { return s.hasErrors }

// Diagnostics returns all recorded diagnostics in insertion order.
func (s *Sink) Diagnostics() []*Diagnostic { return s.diagnostics }

// Len returns the number of recorded diagnostics.
func (s *Sink) Len() int { return len(s.diagnostics) }

// ErrorCount returns the number of error-level diagnostics.
func (s *Sink) ErrorCount() int {
	n := 0
	for _, d := range s.diagnostics {
		if d.Level.IsError() {
			n++
		}
	}
	return n
}

// Merge appends every diagnostic from other into s. Used to fold the
// per-worker-thread sinks of a parallel stage back into one sink (§5).
func (s *Sink) Merge(other *Sink) {
	if other == nil {
		return
	}
	s.diagnostics = append(s.diagnostics, other.diagnostics...)
	s.hasErrors = s.hasErrors || other.hasErrors
}
