package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ForkKILLET/fkio/pkg/runtime"
)

func applyUnary(op string, v runtime.Value) (runtime.Value, error) {
	switch op {
	case "!":
		return runtime.Boolean(!runtime.Truthy(v)), nil
	case "~":
		return runtime.Number(float64(^toInt32(v))), nil
	case "+":
		return runtime.Number(runtime.ToNumber(v)), nil
	case "-":
		return runtime.Number(-runtime.ToNumber(v)), nil
	case "void":
		return runtime.Undefined, nil
	case "typeof":
		return runtime.String(runtime.TypeOf(v)), nil
	default:
		return nil, &UnsupportedOperatorError{Operator: op}
	}
}

func toInt32(v runtime.Value) int32 {
	f := runtime.ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

func toUint32(v runtime.Value) uint32 {
	f := runtime.ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(f))
}

func (x *Execution) applyBinary(op string, l, r runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		if _, ok := l.(runtime.StringValue); ok {
			return runtime.String(runtime.ToString(l) + runtime.ToString(r)), nil
		}
		if _, ok := r.(runtime.StringValue); ok {
			return runtime.String(runtime.ToString(l) + runtime.ToString(r)), nil
		}
		return runtime.Number(runtime.ToNumber(l) + runtime.ToNumber(r)), nil
	case "-":
		return runtime.Number(runtime.ToNumber(l) - runtime.ToNumber(r)), nil
	case "*":
		return runtime.Number(runtime.ToNumber(l) * runtime.ToNumber(r)), nil
	case "/":
		return runtime.Number(runtime.ToNumber(l) / runtime.ToNumber(r)), nil
	case "%":
		return runtime.Number(math.Mod(runtime.ToNumber(l), runtime.ToNumber(r))), nil
	case "**":
		return runtime.Number(math.Pow(runtime.ToNumber(l), runtime.ToNumber(r))), nil
	case "&":
		return runtime.Number(float64(toInt32(l) & toInt32(r))), nil
	case "|":
		return runtime.Number(float64(toInt32(l) | toInt32(r))), nil
	case "^":
		return runtime.Number(float64(toInt32(l) ^ toInt32(r))), nil
	case "<<":
		return runtime.Number(float64(toInt32(l) << (toUint32(r) & 31))), nil
	case ">>":
		return runtime.Number(float64(toInt32(l) >> (toUint32(r) & 31))), nil
	case ">>>":
		return runtime.Number(float64(toUint32(l) >> (toUint32(r) & 31))), nil
	case "<", "<=", ">", ">=":
		return compareValues(op, l, r), nil
	case "==":
		return runtime.Boolean(runtime.LooseEquals(l, r)), nil
	case "!=":
		return runtime.Boolean(!runtime.LooseEquals(l, r)), nil
	case "===":
		return runtime.Boolean(runtime.StrictEquals(l, r)), nil
	case "!==":
		return runtime.Boolean(!runtime.StrictEquals(l, r)), nil
	case "in":
		return hasKey(l, r)
	case "instanceof":
		return x.instanceOf(l, r)
	default:
		return nil, &UnsupportedOperatorError{Operator: op}
	}
}

func compareValues(op string, l, r runtime.Value) runtime.Value {
	ls, lok := l.(runtime.StringValue)
	rs, rok := r.(runtime.StringValue)
	if lok && rok {
		switch op {
		case "<":
			return runtime.Boolean(ls.Val < rs.Val)
		case "<=":
			return runtime.Boolean(ls.Val <= rs.Val)
		case ">":
			return runtime.Boolean(ls.Val > rs.Val)
		default:
			return runtime.Boolean(ls.Val >= rs.Val)
		}
	}
	lf, rf := runtime.ToNumber(l), runtime.ToNumber(r)
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return runtime.False
	}
	switch op {
	case "<":
		return runtime.Boolean(lf < rf)
	case "<=":
		return runtime.Boolean(lf <= rf)
	case ">":
		return runtime.Boolean(lf > rf)
	default:
		return runtime.Boolean(lf >= rf)
	}
}

func hasKey(l, r runtime.Value) (runtime.Value, error) {
	key := runtime.ToString(l)
	switch container := r.(type) {
	case *runtime.ObjectValue:
		_, ok := container.Get(key)
		return runtime.Boolean(ok), nil
	case *runtime.ArrayValue:
		idx, ok := arrayIndex(key)
		return runtime.Boolean(ok && idx < len(container.Elements)), nil
	default:
		return nil, fmt.Errorf("'in' requires an object, got %s", r.Kind())
	}
}

func (x *Execution) instanceOf(l, r runtime.Value) (runtime.Value, error) {
	switch ctor := r.(type) {
	case *runtime.NativeFunctionValue:
		if ctor == x.rt.promiseCtor {
			return runtime.Boolean(runtime.IsObservable(l)), nil
		}
		return runtime.False, nil
	case *runtime.FunctionValue:
		if obj, ok := l.(*runtime.ObjectValue); ok {
			return runtime.Boolean(obj.Ctor == runtime.Value(ctor)), nil
		}
		return runtime.False, nil
	default:
		return nil, fmt.Errorf("'instanceof' requires a function, got %s", r.Kind())
	}
}

// propertyKey renders a computed key value into a property name; integral
// numbers format without a fraction so arr[1] and obj["1"] agree.
func propertyKey(v runtime.Value) string {
	return runtime.ToString(v)
}

func arrayIndex(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// callValue invokes any callable with an explicit receiver.
func (x *Execution) callValue(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	impl, ok := runtime.Callable(fn)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", runtime.Display(fn))
	}
	return impl(this, args)
}

// getMember resolves property access for every receiver kind, including the
// builtin method surfaces of arrays, strings, and promises.
func (x *Execution) getMember(obj runtime.Value, key string) (runtime.Value, error) {
	switch o := obj.(type) {
	case nil, runtime.UndefinedValue, runtime.NullValue:
		return nil, fmt.Errorf("cannot read property %q of %s", key, runtime.ToString(obj))
	case *runtime.ObjectValue:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
		return runtime.Undefined, nil
	case *runtime.ArrayValue:
		if key == "length" {
			return runtime.Number(float64(len(o.Elements))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			if idx < len(o.Elements) {
				return o.Elements[idx], nil
			}
			return runtime.Undefined, nil
		}
		if m, ok := arrayMethods[key]; ok {
			return m, nil
		}
		return runtime.Undefined, nil
	case runtime.StringValue:
		if key == "length" {
			return runtime.Number(float64(len(o.Val))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			if idx < len(o.Val) {
				return runtime.String(string(o.Val[idx])), nil
			}
			return runtime.Undefined, nil
		}
		if m, ok := stringMethods[key]; ok {
			return m, nil
		}
		return runtime.Undefined, nil
	case *runtime.PromiseValue:
		switch key {
		case "then":
			return x.rt.promiseThen(), nil
		case "catch":
			return x.rt.promiseCatch(), nil
		case "state":
			return runtime.String(o.Status().String()), nil
		}
		return runtime.Undefined, nil
	case *runtime.FunctionValue:
		if key == "name" {
			return runtime.String(o.Name), nil
		}
		return runtime.Undefined, nil
	case *runtime.NativeFunctionValue:
		if key == "name" {
			return runtime.String(o.Name), nil
		}
		if v, ok := o.Props[key]; ok {
			return v, nil
		}
		return runtime.Undefined, nil
	case *runtime.RegExpValue:
		switch key {
		case "source":
			return runtime.String(o.Pattern), nil
		case "flags":
			return runtime.String(o.Flags), nil
		case "test":
			return regexpTest, nil
		}
		return runtime.Undefined, nil
	case runtime.ErrorValue:
		if key == "message" {
			return runtime.String(o.Message), nil
		}
		return runtime.Undefined, nil
	default:
		return runtime.Undefined, nil
	}
}

func setMember(obj runtime.Value, key string, v runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		o.Set(key, v)
		return nil
	case *runtime.ArrayValue:
		if key == "length" {
			n := int(runtime.ToNumber(v))
			if n < 0 {
				n = 0
			}
			for len(o.Elements) < n {
				o.Elements = append(o.Elements, runtime.Undefined)
			}
			o.Elements = o.Elements[:n]
			return nil
		}
		idx, ok := arrayIndex(key)
		if !ok {
			return fmt.Errorf("cannot set property %q of array", key)
		}
		for len(o.Elements) <= idx {
			o.Elements = append(o.Elements, runtime.Undefined)
		}
		o.Elements[idx] = v
		return nil
	default:
		return fmt.Errorf("cannot set property %q of %s", key, obj.Kind())
	}
}

// refGet reads through an assignable reference produced under RoleLeft.
func (x *Execution) refGet(ref any) (runtime.Value, error) {
	switch r := ref.(type) {
	case *scopeRef:
		return r.scope.Get(r.name)
	case *memberRef:
		return x.getMember(r.object, r.key)
	default:
		return nil, invariant("invalid assignment target %T", ref)
	}
}

// refSet writes through an assignable reference.
func (x *Execution) refSet(ref any, v runtime.Value) error {
	switch r := ref.(type) {
	case *scopeRef:
		r.scope.Declare(r.name, v)
		return nil
	case *memberRef:
		return setMember(r.object, r.key, v)
	default:
		return invariant("invalid assignment target %T", ref)
	}
}

//-----------------------------------------------------------------------------
// Builtin method surfaces
//-----------------------------------------------------------------------------

func native(name string, impl func(this runtime.Value, args []runtime.Value) (runtime.Value, error)) *runtime.NativeFunctionValue {
	return &runtime.NativeFunctionValue{Name: name, Impl: impl}
}

func thisArray(this runtime.Value) (*runtime.ArrayValue, error) {
	arr, ok := this.(*runtime.ArrayValue)
	if !ok {
		return nil, fmt.Errorf("receiver is not an array")
	}
	return arr, nil
}

var arrayMethods = map[string]*runtime.NativeFunctionValue{
	"push": native("push", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, args...)
		return runtime.Number(float64(len(arr.Elements))), nil
	}),
	"pop": native("pop", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		if len(arr.Elements) == 0 {
			return runtime.Undefined, nil
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil
	}),
	"join": native("join", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		sep := ","
		if len(args) > 0 && !runtime.Nullish(args[0]) {
			sep = runtime.ToString(args[0])
		}
		parts := make([]string, len(arr.Elements))
		for i, el := range arr.Elements {
			if !runtime.Nullish(el) {
				parts[i] = runtime.ToString(el)
			}
		}
		return runtime.String(strings.Join(parts, sep)), nil
	}),
	"indexOf": native("indexOf", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		target := argOr(args, 0)
		for i, el := range arr.Elements {
			if runtime.StrictEquals(el, target) {
				return runtime.Number(float64(i)), nil
			}
		}
		return runtime.Number(-1), nil
	}),
	"includes": native("includes", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		target := argOr(args, 0)
		for _, el := range arr.Elements {
			if runtime.StrictEquals(el, target) {
				return runtime.True, nil
			}
		}
		return runtime.False, nil
	}),
	"slice": native("slice", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		start, end := sliceBounds(len(arr.Elements), args)
		out := runtime.NewArray()
		out.Elements = append(out.Elements, arr.Elements[start:end]...)
		return out, nil
	}),
	"concat": native("concat", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		out := runtime.NewArray()
		out.Elements = append(out.Elements, arr.Elements...)
		for _, arg := range args {
			if other, ok := arg.(*runtime.ArrayValue); ok {
				out.Elements = append(out.Elements, other.Elements...)
			} else {
				out.Elements = append(out.Elements, arg)
			}
		}
		return out, nil
	}),
	"map": native("map", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		impl, ok := runtime.Callable(argOr(args, 0))
		if !ok {
			return nil, fmt.Errorf("map requires a function")
		}
		out := runtime.NewArray()
		for i, el := range arr.Elements {
			v, err := impl(runtime.Undefined, []runtime.Value{el, runtime.Number(float64(i))})
			if err != nil {
				return nil, err
			}
			out.Elements = append(out.Elements, v)
		}
		return out, nil
	}),
	"filter": native("filter", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		impl, ok := runtime.Callable(argOr(args, 0))
		if !ok {
			return nil, fmt.Errorf("filter requires a function")
		}
		out := runtime.NewArray()
		for i, el := range arr.Elements {
			keep, err := impl(runtime.Undefined, []runtime.Value{el, runtime.Number(float64(i))})
			if err != nil {
				return nil, err
			}
			if runtime.Truthy(keep) {
				out.Elements = append(out.Elements, el)
			}
		}
		return out, nil
	}),
	"forEach": native("forEach", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := thisArray(this)
		if err != nil {
			return nil, err
		}
		impl, ok := runtime.Callable(argOr(args, 0))
		if !ok {
			return nil, fmt.Errorf("forEach requires a function")
		}
		for i, el := range arr.Elements {
			if _, err := impl(runtime.Undefined, []runtime.Value{el, runtime.Number(float64(i))}); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	}),
}

func sliceBounds(length int, args []runtime.Value) (int, int) {
	norm := func(v runtime.Value, def int) int {
		if runtime.Nullish(v) {
			return def
		}
		n := int(runtime.ToNumber(v))
		if n < 0 {
			n += length
		}
		if n < 0 {
			n = 0
		}
		if n > length {
			n = length
		}
		return n
	}
	start := norm(argOr(args, 0), 0)
	end := norm(argOr(args, 1), length)
	if end < start {
		end = start
	}
	return start, end
}

func thisString(this runtime.Value) (string, error) {
	s, ok := this.(runtime.StringValue)
	if !ok {
		return "", fmt.Errorf("receiver is not a string")
	}
	return s.Val, nil
}

var stringMethods = map[string]*runtime.NativeFunctionValue{
	"charAt": native("charAt", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		i := int(runtime.ToNumber(argOr(args, 0)))
		if i < 0 || i >= len(s) {
			return runtime.String(""), nil
		}
		return runtime.String(string(s[i])), nil
	}),
	"slice": native("slice", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		start, end := sliceBounds(len(s), args)
		return runtime.String(s[start:end]), nil
	}),
	"split": native("split", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		sep := runtime.ToString(argOr(args, 0))
		out := runtime.NewArray()
		for _, part := range strings.Split(s, sep) {
			out.Elements = append(out.Elements, runtime.String(part))
		}
		return out, nil
	}),
	"toUpperCase": native("toUpperCase", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.ToUpper(s)), nil
	}),
	"toLowerCase": native("toLowerCase", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.ToLower(s)), nil
	}),
	"includes": native("includes", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := thisString(this)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(strings.Contains(s, runtime.ToString(argOr(args, 0)))), nil
	}),
}

var regexpTest = native("test", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	re, ok := this.(*runtime.RegExpValue)
	if !ok {
		return nil, fmt.Errorf("receiver is not a regexp")
	}
	return runtime.Boolean(re.Re.MatchString(runtime.ToString(argOr(args, 0)))), nil
})
