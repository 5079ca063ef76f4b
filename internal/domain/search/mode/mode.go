package mode

// Mode is the shape of a query against the vector index.
type Mode string

// Query shape constants.
const (
	// ID looks up the neighbors of a stored vector by its identifier.
	ID Mode = "id"
	// Filter runs a metadata filter; the vector only satisfies the KNN syntax.
	Filter   Mode = "filter"
	Semantic Mode = "semantic"
	// Hybrid applies a metadata pre-filter to a similarity search.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == ID || m == Filter || m == Semantic || m == Hybrid
}

// NeedsEmbedding reports whether the query text has to be embedded for this shape.
func (m Mode) NeedsEmbedding() bool {
	return m == Semantic || m == Hybrid
}
