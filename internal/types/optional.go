package types

import (
	"bytes"
	"encoding/json"
)

// Optional wraps a value decoded from JSON and remembers whether its key
// was present at all. This lets a partial update tell "not provided"
// apart from "provided as empty".
//
//	{}                 → Set=false
//	{"name": null}     → Set=true, Null=true
//	{"name": 42}       → Set=true, Invalid=true   (wrong JSON type)
//	{"name": "Alice"}  → Set=true, Value="Alice"
//
// Decoding never fails on a type mismatch; the mismatch is recorded in
// Invalid so the validation layer can report it with a readable reason.
type Optional[T any] struct {
	Value   T
	Set     bool
	Null    bool
	Invalid bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Ok reports whether the key was present with a value of the right type.
func (o Optional[T]) Ok() bool {
	return o.Set && !o.Null && !o.Invalid
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json only calls it
// when the key is present, which is exactly what Set records.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	*o = Optional[T]{Set: true}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		o.Invalid = true
		return nil
	}
	o.Value = v
	return nil
}

// MarshalJSON encodes the wrapped value, or null when it is not Ok.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Ok() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
