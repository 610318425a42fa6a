package model

// NumberValue coerces a clause field value to float64. JSON decoding hands
// numbers over as float64, YAML as int or float64, so both are accepted.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// BoolValue coerces a clause field value to bool.
func BoolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// StringValue coerces a clause field value to string.
func StringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy of the clause value. Field values are
// primitives, so a shallow copy is a full copy in practice.
func (v ClauseValue) Clone() ClauseValue {
	if v == nil {
		return nil
	}
	out := make(ClauseValue, len(v))
	for k, fv := range v {
		out[k] = fv
	}
	return out
}
