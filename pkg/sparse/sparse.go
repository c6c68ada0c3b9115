// Package sparse provides a tri-state JSON field for partial updates.
//
// A PATCH body must distinguish three cases for every field: absent (leave
// the stored value alone), present with a value (set it), and present with
// an explicit null (clear it). encoding/json flattens the first and third
// into the zero value, so handlers decode sparse bodies into Field[T]
// members instead.
package sparse

import (
	"bytes"
	"encoding/json"
)

// Field is an optional-of-optional JSON value.
// Set reports whether the key appeared in the document at all; a set field
// with Value == nil was an explicit null.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a set field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Get returns the contained value, or T's zero value when unset or null.
func (f Field[T]) Get() T {
	if f.Value == nil {
		var zero T
		return zero
	}
	return *f.Value
}

// UnmarshalJSON is only invoked for keys present in the document, which is
// what makes Set a reliable presence flag.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(data, []byte("null")) {
		f.Value = nil
		return nil
	}
	f.Value = new(T)
	return json.Unmarshal(data, f.Value)
}

// MarshalJSON renders null for unset or null fields; use a json "omitempty"
// wrapper or build request maps by hand when absence must survive a round trip.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
