package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
)

// Document is the persisted snapshot: metric name to value, where every
// value is a number or a string.
type Document map[string]any

// Validate reports an ErrSerialization if a key is empty or a value is
// neither a string nor a finite number.
func (d Document) Validate() error {
	for key, value := range d {
		if key == "" {
			return fmt.Errorf("%w: empty metric name", ErrSerialization)
		}
		switch v := value.(type) {
		case string, json.Number,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64:
		case float32:
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("%w: metric %q is not a finite number", ErrSerialization, key)
			}
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: metric %q is not a finite number", ErrSerialization, key)
			}
		default:
			return fmt.Errorf("%w: metric %q has unsupported type %T", ErrSerialization, key, value)
		}
	}
	return nil
}

// Encode serializes the document as 4-space indented JSON with a trailing
// newline. encoding/json sorts map keys, so equal documents always encode to
// identical bytes.
func (d Document) Encode() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal document: %w", ErrSerialization, err)
	}
	return append(data, '\n'), nil
}

// Without returns a copy of the document with the given keys removed.
func (d Document) Without(keys ...string) Document {
	out := make(Document, len(d))
	for k, v := range d {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}
	return out
}

// DecodeDocument parses previously encoded document text. Numbers are kept
// as json.Number so that re-encoding reproduces them verbatim.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode document: %w", ErrSerialization, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrSerialization)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Diff encodes next and compares it with the prior file content.
// Values under volatile keys are ignored by the comparison: when they are the
// only difference, changed is false. A volatile key present on one side only
// is a change. Without volatile keys in next the comparison is a plain byte
// comparison.
func Diff(prior []byte, next Document, volatile []string) (encoded []byte, changed bool, err error) {
	encoded, err = next.Encode()
	if err != nil {
		return nil, false, err
	}
	if bytes.Equal(prior, encoded) {
		return encoded, false, nil
	}
	if !hasAnyKey(next, volatile) || len(prior) == 0 {
		return encoded, true, nil
	}

	priorDoc, err := DecodeDocument(prior)
	if err != nil {
		// Unreadable prior content is replaced.
		return encoded, true, nil
	}
	if !sameKeys(priorDoc, next, volatile) {
		return encoded, true, nil
	}
	priorStable, err := priorDoc.Without(volatile...).Encode()
	if err != nil {
		return encoded, true, nil
	}
	nextStable, err := next.Without(volatile...).Encode()
	if err != nil {
		return nil, false, err
	}
	return encoded, !bytes.Equal(priorStable, nextStable), nil
}

func hasAnyKey(d Document, keys []string) bool {
	for _, k := range keys {
		if _, ok := d[k]; ok {
			return true
		}
	}
	return false
}

func sameKeys(a, b Document, keys []string) bool {
	for _, k := range keys {
		_, inA := a[k]
		_, inB := b[k]
		if inA != inB {
			return false
		}
	}
	return true
}
