package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Scalar is the set of types route variables and query values convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// Var returns the route variable name converted to T, or the zero value.
func Var[T Scalar](r *Request, name string) T {
	v, _ := convertParam[T](r.RouteVar(name))
	return v
}

// Query returns the query parameter name converted to T, or the zero value.
func Query[T Scalar](r *Request, name string) T {
	v, _ := convertParam[T](r.HTTP().URL.Query().Get(name))
	return v
}

// QueryDefault returns the query parameter name converted to T.
// Returns defaultValue if the parameter is empty or cannot be parsed.
func QueryDefault[T Scalar](r *Request, name string, defaultValue T) T {
	raw := r.HTTP().URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// Param returns the dispatch parameter name as T. Values of another type are
// formatted and parsed, so a YAML 5 reads as "5" and a "5" reads as 5.
// The lookup honours case conversion.
func Param[T Scalar](d *Dispatch, name string) T {
	params := d.StrategyParams()
	raw, ok := params[name]
	if !ok && d.CaseConvert() {
		raw, ok = params[foldKey(name)]
	}
	if !ok || raw == nil {
		var zero T
		return zero
	}
	if v, ok := raw.(T); ok {
		return v
	}
	v, _ := convertParam[T](formatParam(raw))
	return v
}

// formatParam renders a parameter for convertParam. Integral floats print
// without an exponent so 1e6 parses as the int 1000000.
func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return formatNumber(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(n json.Number) string {
	if _, err := n.Int64(); err == nil {
		return n.String()
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// convertParam converts a raw string to the target type T.
// Returns the converted value and true on success, or the zero value and false on failure.
func convertParam[T Scalar](raw string) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case string:
		return any(raw).(T), true
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	}
	return zero, false
}
