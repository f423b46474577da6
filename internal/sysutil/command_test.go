package sysutil

import "testing"

func TestTokenizeCommandStripsQuotes(t *testing.T) {
	got := TokenizeCommand(`/usr/bin/foo "--name" 'bar baz'`)
	want := []string{"/usr/bin/foo", "--name", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeCommandNoShellGrouping(t *testing.T) {
	// A quoted phrase with an internal space is NOT grouped into one
	// token — this is a deliberately preserved limitation, not a bug.
	got := TokenizeCommand(`/usr/bin/foo "bar baz"`)
	want := []string{"/usr/bin/foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeCommandEmpty(t *testing.T) {
	if got := TokenizeCommand("   "); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
