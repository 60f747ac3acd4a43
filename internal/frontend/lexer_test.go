package frontend

import "testing"

func TestLexBasicTokens(t *testing.T) {
	toks, err := Lex(`fn main() -> int { return 20 + 22; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"fn", "main", "(", ")", "->", "int", "{", "return", "20", "+", "22", ";", "}"}
	if len(toks)-1 != len(want) { // -1 for trailing EOF
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks)-1, toks)
	}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token %d: expected %q, got %q", i, w, toks[i].Text)
		}
	}
	if toks[len(toks)-1].Kind != TokEOF {
		t.Fatalf("expected trailing EOF token")
	}
}

func TestLexKeywordVsIdent(t *testing.T) {
	toks, err := Lex("var fnord")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokKeyword {
		t.Errorf("expected 'var' to lex as keyword")
	}
	if toks[1].Kind != TokIdent {
		t.Errorf("expected 'fnord' to lex as identifier, not keyword prefix match")
	}
}

func TestLexStringLiteral(t *testing.T) {
	toks, err := Lex(`"hello, world"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokString {
		t.Fatalf("expected string token, got %v", toks[0])
	}
}

func TestLexCompoundPunctuation(t *testing.T) {
	toks, err := Lex(`a ?? b ?.c == d != e <= f`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var puncts []string
	for _, tk := range toks {
		if tk.Kind == TokPunct {
			puncts = append(puncts, tk.Text)
		}
	}
	want := []string{"??", "?.", "==", "!=", "<="}
	if len(puncts) != len(want) {
		t.Fatalf("expected puncts %v, got %v", want, puncts)
	}
	for i := range want {
		if puncts[i] != want[i] {
			t.Errorf("punct %d: expected %q, got %q", i, want[i], puncts[i])
		}
	}
}
