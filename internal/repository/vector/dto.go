package vector

import (
	"github.com/kailas-cloud/reviewdex/internal/db"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
	"github.com/kailas-cloud/reviewdex/internal/repository/index"
)

// buildHashFields flattens an entry into HSET fields: metadata, namespace tag and vector blob.
func buildHashFields(namespace string, e domvec.Entry) map[string]string {
	meta := e.Metadata().Fields()
	m := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		m[k] = v
	}
	m[index.NamespaceField] = namespace
	m[index.VectorField] = db.EncodeVector(e.Embedding())
	return m
}
