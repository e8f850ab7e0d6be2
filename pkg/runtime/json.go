package runtime

import (
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"
)

// ToAny lowers a guest value to plain Go data for JSON encoding. Functions,
// promises, and other non-data values lower to nil, so the guest JSON
// surface encodes them as null.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, UndefinedValue, NullValue:
		return nil
	case BoolValue:
		return val.Val
	case NumberValue:
		if math.IsNaN(val.Val) || math.IsInf(val.Val, 0) {
			return nil
		}
		return val.Val
	case StringValue:
		return val.Val
	case *ArrayValue:
		out := make([]any, len(val.Elements))
		for i, el := range val.Elements {
			out[i] = ToAny(el)
		}
		return out
	case *ObjectValue:
		out := make(map[string]any, val.Len())
		for _, k := range val.Keys() {
			pv, _ := val.Get(k)
			out[k] = ToAny(pv)
		}
		return out
	default:
		return nil
	}
}

// FromAny lifts decoded JSON data into guest values.
func FromAny(data any) (Value, error) {
	switch v := data.(type) {
	case nil:
		return Null, nil
	case bool:
		return Boolean(v), nil
	case float64:
		return Number(v), nil
	case gojson.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("json number %q: %w", v.String(), err)
		}
		return Number(f), nil
	case string:
		return String(v), nil
	case []any:
		arr := NewArray()
		for _, el := range v {
			ev, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, ev)
		}
		return arr, nil
	case map[string]any:
		obj := NewObject()
		for _, k := range sortedKeys(v) {
			pv, err := FromAny(v[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, pv)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("json: cannot lift %T", data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// JSONStringify serializes a guest value.
func JSONStringify(v Value) (string, error) {
	data, err := gojson.Marshal(ToAny(v))
	if err != nil {
		return "", fmt.Errorf("JSON.stringify: %w", err)
	}
	return string(data), nil
}

// JSONParse parses text into guest values.
func JSONParse(text string) (Value, error) {
	var data any
	if err := gojson.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("JSON.parse: %w", err)
	}
	return FromAny(data)
}
