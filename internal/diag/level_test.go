package diag

import "testing"

func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{Error, "error"},
		{Warning, "warning"},
		{Info, "info"},
		{Note, "note"},
		{Level(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestLevelIsError(t *testing.T) {
	if !Error.IsError() {
		t.Errorf("Error.IsError() = false, want true")
	}
	for _, l := range []Level{Warning, Info, Note} {
		if l.IsError() {
			t.Errorf("%s.IsError() = true, want false", l)
		}
	}
}
