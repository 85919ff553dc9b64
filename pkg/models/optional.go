package models

import (
	"bytes"
	"encoding/json"
)

// Optional tracks presence and value for sparse update payloads.
// A plain pointer cannot distinguish "field omitted" from "field set to null",
// and both cases matter for nullable columns:
//   - Present=false: field absent from JSON (leave stored value untouched)
//   - Present=true, Value=nil: field is JSON null (clear the column)
//   - Present=true, Value=&v: field has a value
type Optional[T any] struct {
	Present bool
	Value   *T
}

// UnmarshalJSON implements json.Unmarshaler.
// It is only invoked when the field was present in the JSON document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler so request structs can round-trip in tests.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Set returns a present Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}
