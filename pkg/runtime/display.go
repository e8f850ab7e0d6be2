package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Truthy implements the guest language's boolean coercion.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, UndefinedValue, NullValue:
		return false
	case BoolValue:
		return val.Val
	case NumberValue:
		return val.Val != 0 && !math.IsNaN(val.Val)
	case StringValue:
		return val.Val != ""
	default:
		return true
	}
}

// Nullish reports whether v is undefined or null.
func Nullish(v Value) bool {
	switch v.(type) {
	case nil, UndefinedValue, NullValue:
		return true
	default:
		return false
	}
}

// FormatNumber renders a float the way guest code expects: integral values
// without a trailing ".0", NaN and infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// ToNumber implements numeric coercion.
func ToNumber(v Value) float64 {
	switch val := v.(type) {
	case nil, UndefinedValue:
		return math.NaN()
	case NullValue:
		return 0
	case BoolValue:
		if val.Val {
			return 1
		}
		return 0
	case NumberValue:
		return val.Val
	case StringValue:
		s := strings.TrimSpace(val.Val)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToString implements string coercion for concatenation and property keys.
func ToString(v Value) string {
	switch val := v.(type) {
	case nil, UndefinedValue:
		return "undefined"
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case NumberValue:
		return FormatNumber(val.Val)
	case StringValue:
		return val.Val
	case *ArrayValue:
		parts := make([]string, len(val.Elements))
		for i, el := range val.Elements {
			if Nullish(el) {
				parts[i] = ""
				continue
			}
			parts[i] = ToString(el)
		}
		return strings.Join(parts, ",")
	default:
		return Display(v)
	}
}

// Display renders a value for logs, traces, and the REPL. Unlike ToString it
// quotes nested strings and expands object structure.
func Display(v Value) string {
	return display(v, make(map[Value]bool))
}

func display(v Value, seen map[Value]bool) string {
	switch val := v.(type) {
	case nil, UndefinedValue:
		return "undefined"
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case NumberValue:
		return FormatNumber(val.Val)
	case StringValue:
		return val.Val
	case UninitializedValue:
		return "<uninitialized>"
	case *ArrayValue:
		if seen[v] {
			return "[circular]"
		}
		seen[v] = true
		defer delete(seen, v)
		parts := make([]string, len(val.Elements))
		for i, el := range val.Elements {
			parts[i] = displayQuoted(el, seen)
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case *ObjectValue:
		if seen[v] {
			return "{circular}"
		}
		seen[v] = true
		defer delete(seen, v)
		if val.Len() == 0 {
			return "{}"
		}
		parts := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			pv, _ := val.Get(k)
			parts = append(parts, k+": "+displayQuoted(pv, seen))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *FunctionValue:
		if val.Name != "" {
			return "[function " + val.Name + "]"
		}
		return "[function]"
	case *NativeFunctionValue:
		if val.Name != "" {
			return "[native " + val.Name + "]"
		}
		return "[native]"
	case *PromiseValue:
		return "[promise " + val.Status().String() + "]"
	case *RegExpValue:
		return "/" + val.Pattern + "/" + val.Flags
	case ErrorValue:
		return "Error: " + val.Message
	default:
		return "<" + v.Kind().String() + ">"
	}
}

func displayQuoted(v Value, seen map[Value]bool) string {
	if s, ok := v.(StringValue); ok {
		return strconv.Quote(s.Val)
	}
	return display(v, seen)
}

// TypeOf implements the `typeof` operator.
func TypeOf(v Value) string {
	switch v.(type) {
	case nil, UndefinedValue:
		return "undefined"
	case NullValue:
		return "object"
	case BoolValue:
		return "boolean"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case *FunctionValue, *NativeFunctionValue:
		return "function"
	default:
		return "object"
	}
}

// StrictEquals implements `===`.
func StrictEquals(a, b Value) bool {
	switch av := a.(type) {
	case nil, UndefinedValue:
		return Nullish(b) && !isNull(b)
	case NullValue:
		return isNull(b)
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.Val == bv.Val
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	default:
		return a == b
	}
}

func isNull(v Value) bool {
	_, ok := v.(NullValue)
	return ok
}

// LooseEquals implements `==`: null and undefined equate with each other,
// numbers and strings compare after numeric coercion, booleans coerce to
// numbers, and reference values compare by identity.
func LooseEquals(a, b Value) bool {
	if Nullish(a) || Nullish(b) {
		return Nullish(a) && Nullish(b)
	}
	if a.Kind() == b.Kind() {
		return StrictEquals(a, b)
	}
	switch a.(type) {
	case NumberValue, StringValue, BoolValue:
		switch b.(type) {
		case NumberValue, StringValue, BoolValue:
			return ToNumber(a) == ToNumber(b)
		}
	}
	return a == b
}
