package index

import (
	"encoding/json"
	"fmt"

	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
)

// specRow is the JSON-serializable index descriptor.
type specRow struct {
	Dimension int           `json:"dimension"`
	Metric    string        `json:"metric"`
	Region    domidx.Region `json:"region"`
}

func specToJSON(spec domidx.Spec) ([]byte, error) {
	data, err := json.Marshal(specRow{
		Dimension: spec.Dimension(),
		Metric:    string(spec.Metric()),
		Region:    spec.Region(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal index spec: %w", err)
	}
	return data, nil
}

func specFromJSON(name string, data []byte) (domidx.Spec, error) {
	var row specRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domidx.Spec{}, fmt.Errorf("unmarshal index spec %s: %w", name, err)
	}
	return domidx.NewSpec(name, row.Dimension, domidx.Metric(row.Metric), row.Region)
}
