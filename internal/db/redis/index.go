package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// ListIndexes returns the names of all FT indexes via FT._LIST.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	arr, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: err}
	}
	names := make([]string, 0, len(arr))
	for _, m := range arr {
		name, err := m.ToString()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// IndexInfo reads num_docs from FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	arr, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	info := &db.IndexInfo{Name: name}
	// FT.INFO returns alternating key-value pairs.
	for i := 0; i+1 < len(arr); i += 2 {
		key, err := arr[i].ToString()
		if err != nil || key != "num_docs" {
			continue
		}
		n, err := arr[i+1].AsFloat64()
		if err != nil {
			return nil, &db.Error{Op: db.OpIndexInfo, Err: fmt.Errorf("parse num_docs: %w", err)}
		}
		info.NumDocs = int(n)
	}
	return info, nil
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args := []string{idx.Name, "ON", string(storage)}
	if n := len(idx.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

// buildFieldArgs renders one SCHEMA entry. Tags are case-sensitive and split on db.TagSeparator.
func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldNumeric:
		return append(args, "NUMERIC"), nil
	case db.IndexFieldTag:
		return append(args, "TAG", "SEPARATOR", db.TagSeparator, "CASESENSITIVE"), nil
	case db.IndexFieldVector:
		if f.Vector == nil || f.Vector.Dim <= 0 {
			return nil, fmt.Errorf("vector field %s: DIM must be positive", f.Name)
		}
		return append(args, vectorArgs(*f.Vector)...), nil
	default:
		return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
	}
}

// vectorArgs renders "VECTOR <algo> <nargs> <attr value>...".
func vectorArgs(p db.VectorParams) []string {
	if p.Algorithm == "" {
		p.Algorithm = db.VectorFlat
	}
	if p.Distance == "" {
		p.Distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(p.Dim),
		"DISTANCE_METRIC", string(p.Distance),
	}
	if p.Algorithm == db.VectorHNSW {
		if p.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(p.M))
		}
		if p.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(p.EFConstruction))
		}
	}

	return append([]string{"VECTOR", string(p.Algorithm), strconv.Itoa(len(attrs))}, attrs...)
}
