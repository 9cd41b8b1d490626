package document

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

const (
	fieldTitle   = "title"
	fieldContent = "content"
	fieldVector  = "vector"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domdoc.Document) map[string]string {
	return map[string]string{
		fieldTitle:   doc.Title(),
		fieldContent: doc.Content(),
		fieldVector:  vectorToBytes(doc.Vector()),
	}
}

// parseHashFields converts a flat hash map back into a domain Document,
// enforcing the process-wide vector dimension.
func parseHashFields(id string, m map[string]string, dim int) (domdoc.Document, error) {
	if len(m) == 0 {
		return domdoc.Document{}, fmt.Errorf("%w: document %s has no stored fields", domain.ErrStoreUnavailable, id)
	}

	vector, err := bytesToVector(m[fieldVector])
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	if len(vector) != dim {
		return domdoc.Document{}, fmt.Errorf(
			"%w: document %s has %d components, want %d",
			domain.ErrVectorDimMismatch, id, len(vector), dim,
		)
	}

	return domdoc.Reconstruct(id, m[fieldTitle], m[fieldContent], vector), nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) ([]float32, error) {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: stored vector has %d bytes (not a multiple of 4)", domain.ErrVectorDimMismatch, len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
