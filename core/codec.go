package core

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Codec converts typed values to and from bytes for storage in a Store.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec encodes values as JSON. It is the default codec for remote
// backends because payloads stay inspectable in the store.
type JSONCodec[T any] struct{}

// Encode encodes v as JSON.
func (JSONCodec[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }

// Decode decodes JSON data into a value of type T.
func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)

	return v, err
}

// GobCodec encodes values with encoding/gob. Prefer it for Go-only
// deployments where payload size matters more than readability.
type GobCodec[T any] struct{}

// Encode encodes v with gob.
func (GobCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode decodes gob data into a value of type T.
func (GobCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v)

	return v, err
}
