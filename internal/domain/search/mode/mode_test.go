package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{ID, Filter, Semantic, Hybrid} {
		if !m.IsValid() {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []Mode{"", "keyword", "geo"} {
		if m.IsValid() {
			t.Errorf("%q should be invalid", m)
		}
	}
}

func TestNeedsEmbedding(t *testing.T) {
	tests := map[Mode]bool{ID: false, Filter: false, Semantic: true, Hybrid: true}
	for m, want := range tests {
		if got := m.NeedsEmbedding(); got != want {
			t.Errorf("%q.NeedsEmbedding() = %v, want %v", m, got, want)
		}
	}
}
