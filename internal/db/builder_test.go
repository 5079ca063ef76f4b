package db

import (
	"strings"
	"testing"
)

func reviewIndex(t *testing.T) *IndexDefinition {
	t.Helper()
	idx, err := NewIndex("reviewdex:books:idx", "reviewdex:books:").
		Tag("Title", "").
		Numeric("review/score", "review_score").
		Tag("__namespace", "").
		Vector("__vector", "vector", VectorParams{
			Algorithm: VectorHNSW, Dim: 1024, Distance: DistanceCosine, M: 16, EFConstruction: 200,
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestIndexBuilder_ReviewSchema(t *testing.T) {
	idx := reviewIndex(t)

	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "reviewdex:books:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	if f := idx.Fields[1]; f.Name != "review/score" || f.QueryName() != "review_score" {
		t.Errorf("field[1] = %+v, want review/score AS review_score", f)
	}
	if idx.Fields[0].QueryName() != "Title" {
		t.Errorf("unaliased field should be addressed by name: %+v", idx.Fields[0])
	}

	v, ok := idx.VectorField()
	if !ok {
		t.Fatal("VectorField() not found")
	}
	if v.QueryName() != "vector" || v.Vector.Dim != 1024 || v.Vector.Algorithm != VectorHNSW {
		t.Errorf("vector field = %+v", v.Vector)
	}
	if v.Vector.M != 16 || v.Vector.EFConstruction != 200 {
		t.Errorf("HNSW params = %d/%d", v.Vector.M, v.Vector.EFConstruction)
	}
}

func TestIndexBuilder_VectorDefaultsToFlat(t *testing.T) {
	idx, err := NewIndex("rx:idx").Vector("__vector", "", VectorParams{Dim: 2, Distance: DistanceIP}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, _ := idx.VectorField()
	if v.Vector.Algorithm != VectorFlat {
		t.Errorf("algo = %q, want FLAT", v.Vector.Algorithm)
	}
}

func TestIndexDefinition_FieldByQueryName(t *testing.T) {
	idx := reviewIndex(t)

	f, ok := idx.FieldByQueryName("review_score")
	if !ok || f.Name != "review/score" || f.Type != IndexFieldNumeric {
		t.Errorf("FieldByQueryName(review_score) = %+v, %v", f, ok)
	}
	if _, ok := idx.FieldByQueryName("review/score"); ok {
		t.Error("aliased fields must be addressed by alias")
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("x", ""), "index name is required"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"vector without dim", NewIndex("idx").Vector("v", "", VectorParams{}), "positive DIM"},
		{"invalid characters", NewIndex("idx with spaces").Tag("x", ""), "invalid characters"},
		{"duplicate alias", NewIndex("idx").Tag("a/b", "a_b").Tag("a_b", ""), "duplicate field name"},
		{"empty field name", NewIndex("idx").Numeric("", ""), "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	s := reviewIndex(t).String()
	want := "FT.CREATE reviewdex:books:idx ON HASH PREFIX reviewdex:books: SCHEMA " +
		"Title TAG review/score AS review_score NUMERIC __namespace TAG __vector AS vector VECTOR HNSW"
	if s != want {
		t.Errorf("String() =\n%s\nwant\n%s", s, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"reviewdex:books:idx", "a-b_c", "Z9"} {
		if !IsValidIdentifier(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "a b", "a/b", "é"} {
		if IsValidIdentifier(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
