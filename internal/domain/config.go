package domain

// KeyPrefix namespaces every key reviewdex writes to the store.
const KeyPrefix = "reviewdex:"

// DefaultNamespace is the namespace reviews are written to when none is configured.
const DefaultNamespace = "books"

// VectorConfig holds vectorization settings for the review index.
type VectorConfig struct {
	Model              string
	Dimensions         int
	DistanceMetric     string
	PassageInstruction string
	QueryInstruction   string
	Truncate           string
	MaxInputChars      int
	MaxAPIBatchSize    int
}

// DefaultVectorConfig returns the defaults tuned for multilingual-e5-large.
// e5 models expect "passage: " and "query: " prefixes instead of an input_type parameter.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:              "multilingual-e5-large",
		Dimensions:         1024,
		DistanceMetric:     "cosine",
		PassageInstruction: "passage: ",
		QueryInstruction:   "query: ",
		Truncate:           "END",
		MaxInputChars:      2000,
		MaxAPIBatchSize:    96,
	}
}
