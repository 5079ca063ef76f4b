package index

import (
	"fmt"
	"regexp"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Metric is the similarity function of an index.
type Metric string

const (
	// MetricCosine ranks by cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricEuclidean ranks by L2 distance.
	MetricEuclidean Metric = "euclidean"
	// MetricDotProduct ranks by inner product.
	MetricDotProduct Metric = "dotproduct"
)

// IsValid checks if the metric is supported.
func (m Metric) IsValid() bool {
	return m == MetricCosine || m == MetricEuclidean || m == MetricDotProduct
}

// Region says where a managed index lives. The self-hosted store only records it.
type Region struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// Spec describes an index to create (immutable value object).
type Spec struct {
	name      string
	dimension int
	metric    Metric
	region    Region
}

// NewSpec validates and creates an index Spec.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Dimension: > 0. Metric defaults to cosine.
func NewSpec(name string, dimension int, metric Metric, region Region) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("index name is required")
	}
	if len(name) > 64 {
		return Spec{}, fmt.Errorf("index name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return Spec{}, fmt.Errorf("index name must be alphanumeric with underscores and hyphens")
	}
	if dimension <= 0 {
		return Spec{}, fmt.Errorf("dimension must be positive")
	}
	if metric == "" {
		metric = MetricCosine
	}
	if !metric.IsValid() {
		return Spec{}, fmt.Errorf("invalid metric: %q", metric)
	}
	return Spec{name: name, dimension: dimension, metric: metric, region: region}, nil
}

// Name returns the index name.
func (s Spec) Name() string { return s.name }

// Dimension returns the vector dimension.
func (s Spec) Dimension() int { return s.dimension }

// Metric returns the similarity metric.
func (s Spec) Metric() Metric { return s.metric }

// Region returns the placement of the index.
func (s Spec) Region() Region { return s.region }

// EnsureOutcome tells whether Ensure created the index.
type EnsureOutcome string

const (
	// Created means the index did not exist before.
	Created EnsureOutcome = "created"
	// AlreadyExists means the index was left untouched.
	AlreadyExists EnsureOutcome = "already_exists"
)

// Stats is a snapshot of index population.
type Stats struct {
	TotalVectorCount int
	Dimension        int
	Namespaces       map[string]int
}
