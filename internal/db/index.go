package db

import (
	"errors"
	"fmt"
)

// StorageType defines the document storage backend for FT indexes.
type StorageType string

// StorageHash stores documents as Redis hashes.
const StorageHash StorageType = "HASH"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// TagSeparator splits multi-value TAG fields. Book titles contain commas,
// so the FT default "," is never used.
const TagSeparator = "|"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a case-sensitive tag field.
	IndexFieldTag
	// IndexFieldVector is a FLOAT32 vector field.
	IndexFieldVector
)

// VectorParams configures a vector field.
type VectorParams struct {
	Algorithm VectorAlgorithm
	Dim       int
	Distance  DistanceMetric
	// HNSW only; zero leaves the server default (M 16, EF_CONSTRUCTION 200).
	M              int
	EFConstruction int
}

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name   string
	Alias  string // AS alias in FT.CREATE SCHEMA
	Type   IndexFieldType
	Vector *VectorParams
}

// QueryName is the name a field is addressed by in queries.
func (f *IndexField) QueryName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.QueryName()]; dup {
			return fmt.Errorf("duplicate field name: %s", f.QueryName())
		}
		seen[f.QueryName()] = struct{}{}

		if f.Type == IndexFieldVector && (f.Vector == nil || f.Vector.Dim <= 0) {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
	}
	return nil
}

// FieldByQueryName returns the field addressed by name in queries.
func (idx *IndexDefinition) FieldByQueryName(name string) (*IndexField, bool) {
	for i := range idx.Fields {
		if idx.Fields[i].QueryName() == name {
			return &idx.Fields[i], true
		}
	}
	return nil, false
}

// VectorField returns the first vector field of the index.
func (idx *IndexDefinition) VectorField() (*IndexField, bool) {
	for i := range idx.Fields {
		if f := &idx.Fields[i]; f.Type == IndexFieldVector && f.Vector != nil {
			return f, true
		}
	}
	return nil, false
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
