package textutil

import "testing"

func TestEscapeUnescape(t *testing.T) {
	tests := []struct {
		in, escaped string
	}{
		{"plain", "plain"},
		{"line1\nline2", `line1\nline2`},
		{"crlf\r\nend", `crlf\r\nend`},
		{"", ""},
		{"日本語\n", `日本語\n`},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.escaped {
			t.Fatalf("Escape(%q): want %q got %q", tt.in, tt.escaped, got)
		}
		if got := Unescape(tt.escaped); got != tt.in {
			t.Fatalf("Unescape(%q): want %q got %q", tt.escaped, tt.in, got)
		}
	}
}

func TestUnescapeLiteralBackslashSequence(t *testing.T) {
	// a literal backslash-n does not survive the round trip
	in := `C:\new`
	if got := Unescape(Escape(in)); got == in {
		t.Fatalf("expected %q to be altered, got %q", in, got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("こんにちは", 2); got != "こん..." {
		t.Fatalf("got %q", got)
	}
}
