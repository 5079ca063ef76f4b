package db

import "strings"

// IndexBuilder assembles an FT index definition field by field.
// An empty alias leaves the field addressed by its own name.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index over keys with the given prefixes.
func NewIndex(name string, prefixes ...string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{
		Name:        name,
		StorageType: StorageHash,
		Prefixes:    prefixes,
	}}
}

// Tag adds a case-sensitive TAG field.
func (b *IndexBuilder) Tag(name, alias string) *IndexBuilder {
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldTag})
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name, alias string) *IndexBuilder {
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldNumeric})
}

// Vector adds a FLOAT32 VECTOR field. An empty algorithm means FLAT.
func (b *IndexBuilder) Vector(name, alias string, p VectorParams) *IndexBuilder {
	if p.Algorithm == "" {
		p.Algorithm = VectorFlat
	}
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldVector, Vector: &p})
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// String renders a short FT.CREATE-like summary for logs.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE " + idx.Name + " ON " + string(idx.StorageType))
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" PREFIX " + strings.Join(idx.Prefixes, " "))
	}
	sb.WriteString(" SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		sb.WriteString(" " + f.Name)
		if f.Alias != "" {
			sb.WriteString(" AS " + f.Alias)
		}
		switch f.Type {
		case IndexFieldTag:
			sb.WriteString(" TAG")
		case IndexFieldNumeric:
			sb.WriteString(" NUMERIC")
		case IndexFieldVector:
			sb.WriteString(" VECTOR " + string(f.Vector.Algorithm))
		}
	}
	return sb.String()
}
