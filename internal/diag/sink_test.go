package diag

import "testing"

func TestSinkAddTracksErrors(t *testing.T) {
	s := NewSink()
	if s.HasErrors() {
		t.Fatalf("empty sink reports HasErrors")
	}
	s.Add(New(Warning, "just a warning"))
	if s.HasErrors() {
		t.Errorf("a warning alone should not set HasErrors")
	}
	s.Add(New(Error, "boom"))
	if !s.HasErrors() {
		t.Errorf("an error-level diagnostic must set HasErrors")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", s.ErrorCount())
	}
}

func TestSinkAddIgnoresNil(t *testing.T) {
	s := NewSink()
	s.Add(nil)
	if s.Len() != 0 {
		t.Errorf("Add(nil) should be a no-op, got Len() = %d", s.Len())
	}
}

func TestSinkMerge(t *testing.T) {
	a := NewSink()
	a.Add(New(Warning, "a-warning"))

	b := NewSink()
	b.Add(New(Error, "b-error"))

	a.Merge(b)

	if !a.HasErrors() {
		t.Errorf("merging a sink with an error should propagate HasErrors")
	}
	if a.Len() != 2 {
		t.Errorf("Len() after merge = %d, want 2", a.Len())
	}
	if a.Diagnostics()[0].Message != "a-warning" || a.Diagnostics()[1].Message != "b-error" {
		t.Errorf("Merge did not preserve insertion order: %+v", a.Diagnostics())
	}
}

func TestSinkMergeNilIsNoop(t *testing.T) {
	a := NewSink()
	a.Add(New(Error, "only"))
	a.Merge(nil)
	if a.Len() != 1 {
		t.Errorf("Merge(nil) should be a no-op, got Len() = %d", a.Len())
	}
}
