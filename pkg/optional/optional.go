// Package optional models a value that may or may not have been supplied.
//
// It exists for partial updates, where "field not sent" and "field sent as an
// empty string" mean different things. A JSON null decodes as not supplied.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a T together with a flag recording whether it was supplied.
// The zero Value is absent.
type Value[T any] struct {
	value T
	set   bool
}

// Some returns a present Value wrapping v.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// None returns an absent Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the wrapped value and whether it was supplied.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// IsSet reports whether the value was supplied.
func (v Value[T]) IsSet() bool {
	return v.set
}

// OrElse returns the wrapped value, or fallback when absent.
func (v Value[T]) OrElse(fallback T) T {
	if !v.set {
		return fallback
	}
	return v.value
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value[T]{}
		return nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*v = Some(out)
	return nil
}

// MarshalJSON renders an absent value as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}
