package pipeline

import "testing"

func TestRotatorWrapsAround(t *testing.T) {
	rot := newRotator([]string{"a", "b", "c"})

	if got := rot.Current(); got != "a" {
		t.Errorf("Current() = %q, want a", got)
	}
	want := []string{"b", "c", "a", "b"}
	for i, w := range want {
		if got := rot.Advance(); got != w {
			t.Errorf("Advance() #%d = %q, want %q", i, got, w)
		}
	}
	if rot.Len() != 3 {
		t.Errorf("Len() = %d, want 3", rot.Len())
	}
}

func TestRotatorSingleKey(t *testing.T) {
	rot := newRotator([]string{"only"})
	for i := 0; i < 5; i++ {
		if got := rot.Advance(); got != "only" {
			t.Fatalf("Advance() #%d = %q, want only", i, got)
		}
	}
}
