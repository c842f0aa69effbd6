// Package biometric wraps the external face-recognition pipeline behind a
// small enroll/verify contract. The vault never inspects how templates are
// produced; it only stores them, decodes them, and compares distances.
package biometric

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TemplateSize is the number of features in a face template.
const TemplateSize = 128

// Template is a fixed-length feature vector derived from a face image.
// An empty template means no face was detected, which is a normal outcome.
type Template []float64

// Encode serializes the template to little-endian float64 bytes for storage.
func (t Template) Encode() []byte {
	buf := make([]byte, 8*len(t))
	for i, v := range t {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeTemplate parses a stored template. The byte length must be a
// multiple of 8 and decode to exactly TemplateSize features.
func DecodeTemplate(b []byte) (Template, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("template: invalid byte length %d", len(b))
	}
	t := make(Template, len(b)/8)
	for i := range t {
		t[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	if len(t) != TemplateSize {
		return nil, fmt.Errorf("template: expected %d features, got %d", TemplateSize, len(t))
	}
	return t, nil
}
