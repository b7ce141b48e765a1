package internal

import (
	"encoding/json"
	"fmt"
	"math"
)

// Type tags of persisted dispatch values.
const (
	valueNull    = "null"
	valueString  = "string"
	valueBool    = "bool"
	valueInt     = "int"
	valueInt64   = "int64"
	valueUint64  = "uint64"
	valueFloat64 = "float64"
	valueBytes   = "bytes"
	valueRawJSON = "raw_json"
	valueStrings = "strings"
	valueLabels  = "labels"
	valueList    = "list"
	valueMap     = "map"
)

// typedValue is a target or parameter tagged with its Go type, so it decodes
// to the type it was saved with rather than to the nearest JSON type.
type typedValue struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v,omitempty"`
}

// encodeValue tags v. Values outside the supported set yield ErrNotSerializable.
func encodeValue(v any) (typedValue, error) {
	switch x := v.(type) {
	case nil:
		return typedValue{Type: valueNull}, nil
	case string:
		return rawValue(valueString, x)
	case bool:
		return rawValue(valueBool, x)
	case int:
		return rawValue(valueInt, x)
	case int64:
		return rawValue(valueInt64, x)
	case uint64:
		return rawValue(valueUint64, x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return typedValue{}, fmt.Errorf("%w: float value %v", ErrNotSerializable, x)
		}
		return rawValue(valueFloat64, x)
	case []byte:
		return rawValue(valueBytes, x)
	case json.RawMessage:
		return rawValue(valueRawJSON, []byte(x))
	case []string:
		return rawValue(valueStrings, x)
	case map[string]string:
		return rawValue(valueLabels, x)
	case []any:
		if x == nil {
			return rawValue(valueList, nil)
		}
		items := make([]typedValue, len(x))
		for i, item := range x {
			tv, err := encodeValue(item)
			if err != nil {
				return typedValue{}, err
			}
			items[i] = tv
		}
		return rawValue(valueList, items)
	case map[string]any:
		m, err := encodeValues(x)
		if err != nil {
			return typedValue{}, err
		}
		return rawValue(valueMap, m)
	default:
		return typedValue{}, fmt.Errorf("%w: %T value", ErrNotSerializable, v)
	}
}

func rawValue(tag string, v any) (typedValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return typedValue{}, fmt.Errorf("%w: %w", ErrNotSerializable, err)
	}
	return typedValue{Type: tag, Value: data}, nil
}

func encodeValues(m map[string]any) (map[string]typedValue, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]typedValue, len(m))
	for k, v := range m {
		tv, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		out[k] = tv
	}
	return out, nil
}

func (tv typedValue) decode() (any, error) {
	switch tv.Type {
	case valueNull:
		return nil, nil
	case valueString:
		return decodeAs[string](tv.Value)
	case valueBool:
		return decodeAs[bool](tv.Value)
	case valueInt:
		return decodeAs[int](tv.Value)
	case valueInt64:
		return decodeAs[int64](tv.Value)
	case valueUint64:
		return decodeAs[uint64](tv.Value)
	case valueFloat64:
		return decodeAs[float64](tv.Value)
	case valueBytes:
		return decodeAs[[]byte](tv.Value)
	case valueRawJSON:
		var b []byte
		if err := json.Unmarshal(tv.Value, &b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		return json.RawMessage(b), nil
	case valueStrings:
		return decodeAs[[]string](tv.Value)
	case valueLabels:
		return decodeAs[map[string]string](tv.Value)
	case valueList:
		var items []typedValue
		if err := json.Unmarshal(tv.Value, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		if items == nil {
			return []any(nil), nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := item.decode()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case valueMap:
		var m map[string]typedValue
		if err := json.Unmarshal(tv.Value, &m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		return decodeValues(m)
	default:
		return nil, fmt.Errorf("%w: value type %q", ErrInvalidSnapshot, tv.Type)
	}
}

func decodeAs[T any](data json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return v, nil
}

func decodeValues(m map[string]typedValue) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, tv := range m {
		v, err := tv.decode()
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
