package index

import (
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/db"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
)

// VectorField is the hash field holding the little-endian float32 embedding.
const VectorField = "__vector"

// buildIndex creates the FT definition for review vectors.
// Fields whose names are not valid query identifiers are aliased (review/score AS review_score).
func buildIndex(spec domidx.Spec, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	distance, err := Distance(spec.Metric())
	if err != nil {
		return nil, err
	}

	b := db.NewIndex(IndexName(spec.Name()), DocPrefix(spec.Name()))
	for _, f := range review.TagFields() {
		b.Tag(f, aliasOf(f))
	}
	for _, f := range review.NumericFields() {
		b.Numeric(f, aliasOf(f))
	}
	b.Tag(NamespaceField, "")
	b.Vector(VectorField, "vector", db.VectorParams{
		Algorithm:      db.VectorHNSW,
		Dim:            spec.Dimension(),
		Distance:       distance,
		M:              hnsw.M,
		EFConstruction: hnsw.EFConstruct,
	})

	return b.Build()
}

// Distance maps an index metric to the FT distance metric.
func Distance(m domidx.Metric) (db.DistanceMetric, error) {
	switch m {
	case domidx.MetricCosine, "":
		return db.DistanceCosine, nil
	case domidx.MetricEuclidean:
		return db.DistanceL2, nil
	case domidx.MetricDotProduct:
		return db.DistanceIP, nil
	default:
		return "", fmt.Errorf("unknown metric: %q", m)
	}
}

func aliasOf(field string) string {
	if a := review.Alias(field); a != field {
		return a
	}
	return ""
}
