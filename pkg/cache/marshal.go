package cache

import (
	"encoding/json"
	"errors"
)

// Marshaler converts values for backends that store bytes (Redis).
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSONMarshaler is the default Marshaler. Cached responses carry their
// body as []byte, which JSON stores base64 encoded.
type JSONMarshaler[V any] struct{}

func (JSONMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSONMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// BytesMarshaler stores []byte values untouched. Route snapshots are
// already encoded, so NewRedis[[]byte] should use it.
type BytesMarshaler struct{}

func (BytesMarshaler) Marshal(v []byte) ([]byte, error)      { return v, nil }
func (BytesMarshaler) Unmarshal(data []byte) ([]byte, error) { return data, nil }
