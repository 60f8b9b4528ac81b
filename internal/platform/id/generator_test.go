package id

import (
	"io"
	"testing"
	"testing/iotest"
)

func TestRandomGenerator_ProducesDistinctHexIDs(t *testing.T) {
	g := NewRandomGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		got, err := g.NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if len(got) != 32 {
			t.Fatalf("id %q has length %d, want 32", got, len(got))
		}
		for _, r := range got {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				t.Fatalf("id %q contains non-hex rune %q", got, r)
			}
		}
		if seen[got] {
			t.Fatalf("duplicate id %q", got)
		}
		seen[got] = true
	}
}

func TestRandomGenerator_SurfacesSourceFailure(t *testing.T) {
	g := &RandomGenerator{source: iotest.ErrReader(io.ErrUnexpectedEOF)}

	if _, err := g.NewID(); err == nil {
		t.Fatal("expected error from failing source")
	}
}
