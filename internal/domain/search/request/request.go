package request

import (
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/mode"
)

// Query parameter limits.
const (
	DefaultTopK = 5
	MaxTopK     = 500
)

// Request is a validated query against one namespace of the vector index.
type Request struct {
	kind            mode.Mode
	namespace       string
	id              string
	vector          []float32
	filters         filter.Expression
	topK            int
	includeMetadata bool
}

// New selects the query shape from the supplied parts:
// an id without a vector is an ID lookup, a vector with a filter is hybrid,
// a vector alone is semantic. Use NewFilter for placeholder-vector filter queries.
func New(namespace, id string, vector []float32, filters filter.Expression, topK int) (Request, error) {
	switch {
	case id != "" && len(vector) == 0:
		return NewIDLookup(namespace, id, topK)
	case len(vector) > 0 && !filters.IsEmpty():
		return NewHybrid(namespace, vector, filters, topK)
	case len(vector) > 0:
		return NewSemantic(namespace, vector, topK)
	default:
		return Request{}, fmt.Errorf("either an id or a vector is required")
	}
}

// NewIDLookup builds a request for the neighbors of the stored vector with the given id.
func NewIDLookup(namespace, id string, topK int) (Request, error) {
	if id == "" {
		return Request{}, fmt.Errorf("id is required")
	}
	return build(mode.ID, namespace, id, nil, filter.Expression{}, topK)
}

// NewFilter builds a metadata-filter request. The vector may be a placeholder embedding.
func NewFilter(namespace string, vector []float32, filters filter.Expression, topK int) (Request, error) {
	if filters.IsEmpty() {
		return Request{}, fmt.Errorf("filter is required")
	}
	if len(vector) == 0 {
		return Request{}, fmt.Errorf("vector is required")
	}
	return build(mode.Filter, namespace, "", vector, filters, topK)
}

// NewSemantic builds a pure similarity request.
func NewSemantic(namespace string, vector []float32, topK int) (Request, error) {
	if len(vector) == 0 {
		return Request{}, fmt.Errorf("vector is required")
	}
	return build(mode.Semantic, namespace, "", vector, filter.Expression{}, topK)
}

// NewHybrid builds a similarity request restricted by a metadata pre-filter.
func NewHybrid(namespace string, vector []float32, filters filter.Expression, topK int) (Request, error) {
	if len(vector) == 0 {
		return Request{}, fmt.Errorf("vector is required")
	}
	if filters.IsEmpty() {
		return Request{}, fmt.Errorf("filter is required")
	}
	return build(mode.Hybrid, namespace, "", vector, filters, topK)
}

func build(
	m mode.Mode, namespace, id string, vector []float32, filters filter.Expression, topK int,
) (Request, error) {
	if namespace == "" {
		return Request{}, fmt.Errorf("namespace is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{
		kind:            m,
		namespace:       namespace,
		id:              id,
		vector:          vector,
		filters:         filters,
		topK:            topK,
		includeMetadata: true,
	}, nil
}

// Mode returns the query shape.
func (r *Request) Mode() mode.Mode { return r.kind }

// Namespace returns the logical partition queried.
func (r *Request) Namespace() string { return r.namespace }

// ID returns the stored identifier for ID lookups.
func (r *Request) ID() string { return r.id }

// Vector returns the query vector (nil for ID lookups until resolved).
func (r *Request) Vector() []float32 { return r.vector }

// HasVector reports whether the request carries a vector.
func (r *Request) HasVector() bool { return len(r.vector) > 0 }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// HasFilter reports whether the request carries a filter.
func (r *Request) HasFilter() bool { return !r.filters.IsEmpty() }

// TopK returns the result count bound.
func (r *Request) TopK() int { return r.topK }

// IncludeMetadata reports whether matches carry their metadata.
func (r *Request) IncludeMetadata() bool { return r.includeMetadata }

// WithoutMetadata returns a copy that asks for identifiers and scores only.
func (r Request) WithoutMetadata() Request {
	r.includeMetadata = false
	return r
}

// WithVector returns a copy carrying a resolved query vector.
func (r Request) WithVector(v []float32) Request {
	r.vector = v
	return r
}
