package db

import (
	"encoding/binary"
	"math"
)

// VectorBytes serializes an embedding into the little-endian float32 wire
// format stored in hash vector fields and passed to FT.SEARCH as $BLOB.
func VectorBytes(v []float64) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return string(buf)
}

// VectorFromBytes deserializes the wire format back into an embedding.
// Returns nil on malformed input.
func VectorFromBytes(s string) []float64 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float64, len(b)/4)
	for i := range v {
		v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return v
}
