package db

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector packs v into the FLOAT32 blob layout search indexes expect:
// 4 little-endian bytes per component.
func EncodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector unpacks a blob written by EncodeVector.
func DecodeVector(blob string) ([]float32, error) {
	if blob == "" || len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not a float32 array", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(blob[4*i : 4*i+4])))
	}
	return v, nil
}
