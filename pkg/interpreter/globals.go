package interpreter

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// WithGlobal populates base with the ambient host bindings for every name
// not already resolvable through it, and returns base.
func (rt *Runtime) WithGlobal(base *runtime.Scope) *runtime.Scope {
	for name, v := range rt.globals() {
		if !base.Has(name) {
			base.Declare(name, v)
		}
	}
	return base
}

func (rt *Runtime) globals() map[string]runtime.Value {
	rt.globalsOnce.Do(rt.initGlobals)
	return rt.globalVars
}

func (rt *Runtime) initGlobals() {
	vars := map[string]runtime.Value{
		"undefined": runtime.Undefined,
		"NaN":       runtime.Number(math.NaN()),
		"Infinity":  runtime.Number(math.Inf(1)),
	}

	console := runtime.NewObject()
	console.Set("log", native("log", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Fprintln(rt.out, consoleFormat(args))
		return runtime.Undefined, nil
	}))
	console.Set("error", native("error", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Fprintln(rt.out, consoleFormat(args))
		return runtime.Undefined, nil
	}))
	console.Set("debug", native("debug", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if rt.IsDebug {
			fmt.Fprintln(rt.tracer.w, consoleFormat(args))
		}
		return runtime.Undefined, nil
	}))
	vars["console"] = console

	vars["Math"] = mathObject()

	jsonObj := runtime.NewObject()
	jsonObj.Set("parse", native("parse", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.JSONParse(runtime.ToString(argOr(args, 0)))
	}))
	jsonObj.Set("stringify", native("stringify", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := runtime.JSONStringify(argOr(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.String(s), nil
	}))
	vars["JSON"] = jsonObj

	// setTimeout schedules the callback on the event loop and returns a
	// promise settling with the callback's result, so it can be awaited
	// directly as well as wrapped in a Promise executor.
	vars["setTimeout"] = native("setTimeout", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb := argOr(args, 0)
		ms := runtime.ToNumber(argOr(args, 1))
		if math.IsNaN(ms) || ms < 0 {
			ms = 0
		}
		p := runtime.NewPromise()
		rt.loop.After(time.Duration(ms)*time.Millisecond, func() {
			impl, ok := runtime.Callable(cb)
			if !ok {
				p.Resolve(runtime.Undefined)
				return
			}
			v, err := impl(runtime.Undefined, nil)
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(v)
		})
		return p, nil
	})

	rt.promiseCtor = rt.promiseGlobal()
	vars["Promise"] = rt.promiseCtor

	globalThis := runtime.NewObject()
	for _, name := range []string{"console", "Math", "JSON", "setTimeout", "Promise"} {
		globalThis.Set(name, vars[name])
	}
	vars["globalThis"] = globalThis

	rt.globalVars = vars
}

func mathObject() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("PI", runtime.Number(math.Pi))
	m.Set("E", runtime.Number(math.E))
	unary := func(name string, fn func(float64) float64) {
		m.Set(name, native(name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.Number(fn(runtime.ToNumber(argOr(args, 0)))), nil
		}))
	}
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("log", math.Log)
	m.Set("pow", native("pow", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(math.Pow(runtime.ToNumber(argOr(args, 0)), runtime.ToNumber(argOr(args, 1)))), nil
	}))
	m.Set("min", native("min", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := math.Inf(1)
		for _, a := range args {
			out = math.Min(out, runtime.ToNumber(a))
		}
		return runtime.Number(out), nil
	}))
	m.Set("max", native("max", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := math.Inf(-1)
		for _, a := range args {
			out = math.Max(out, runtime.ToNumber(a))
		}
		return runtime.Number(out), nil
	}))
	m.Set("random", native("random", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(rand.Float64()), nil
	}))
	return m
}

// promiseGlobal builds the Promise constructor: `new Promise(executor)` plus
// the static resolve/reject/all helpers.
func (rt *Runtime) promiseGlobal() *runtime.NativeFunctionValue {
	ctor := &runtime.NativeFunctionValue{Name: "Promise"}
	ctor.Construct = func(args []runtime.Value) (runtime.Value, error) {
		executor, ok := runtime.Callable(argOr(args, 0))
		if !ok {
			return nil, fmt.Errorf("Promise executor must be a function")
		}
		p := runtime.NewPromise()
		resolve := native("resolve", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p.Resolve(argOr(args, 0))
			return runtime.Undefined, nil
		})
		reject := native("reject", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p.Reject(runtime.AsError(argOr(args, 0)))
			return runtime.Undefined, nil
		})
		if _, err := executor(runtime.Undefined, []runtime.Value{resolve, reject}); err != nil {
			p.Reject(err)
		}
		return p, nil
	}
	ctor.Props = map[string]runtime.Value{
		"resolve": native("resolve", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p := runtime.NewPromise()
			p.Resolve(argOr(args, 0))
			return p, nil
		}),
		"reject": native("reject", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p := runtime.NewPromise()
			p.Reject(runtime.AsError(argOr(args, 0)))
			return p, nil
		}),
		"all": native("all", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			arr, ok := argOr(args, 0).(*runtime.ArrayValue)
			if !ok {
				return nil, fmt.Errorf("Promise.all requires an array")
			}
			return rt.promiseAll(arr.Elements), nil
		}),
	}
	return ctor
}

func (rt *Runtime) promiseAll(items []runtime.Value) *runtime.PromiseValue {
	out := runtime.NewPromise()
	results := make([]runtime.Value, len(items))
	remaining := len(items)
	if remaining == 0 {
		out.Resolve(runtime.NewArray())
		return out
	}
	for i, item := range items {
		i := i
		p, ok := item.(*runtime.PromiseValue)
		if !ok {
			results[i] = item
			remaining--
			continue
		}
		p.AddAwaiter(func() {
			rt.loop.Post(func() {
				val, reason, status := p.Snapshot()
				switch status {
				case runtime.PromiseFulfilled:
					results[i] = val
					remaining--
					if remaining == 0 {
						out.Resolve(runtime.NewArray(results...))
					}
				case runtime.PromiseAborted:
					out.Abort()
				default:
					out.Reject(reason)
				}
			})
		})
	}
	if remaining == 0 {
		out.Resolve(runtime.NewArray(results...))
	}
	return out
}

// promiseThen builds the per-runtime `then` method; continuation handlers
// always run on the event loop, never on the settler's goroutine.
func (rt *Runtime) promiseThen() *runtime.NativeFunctionValue {
	return native("then", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		p, ok := this.(*runtime.PromiseValue)
		if !ok {
			return nil, fmt.Errorf("receiver is not a promise")
		}
		return rt.chainPromise(p, argOr(args, 0), argOr(args, 1)), nil
	})
}

func (rt *Runtime) promiseCatch() *runtime.NativeFunctionValue {
	return native("catch", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		p, ok := this.(*runtime.PromiseValue)
		if !ok {
			return nil, fmt.Errorf("receiver is not a promise")
		}
		return rt.chainPromise(p, runtime.Undefined, argOr(args, 0)), nil
	})
}

func (rt *Runtime) chainPromise(p *runtime.PromiseValue, onFulfilled, onRejected runtime.Value) *runtime.PromiseValue {
	next := runtime.NewPromise()
	p.AddAwaiter(func() {
		rt.loop.Post(func() {
			val, reason, status := p.Snapshot()
			switch status {
			case runtime.PromiseFulfilled:
				impl, ok := runtime.Callable(onFulfilled)
				if !ok {
					next.Resolve(val)
					return
				}
				v, err := impl(runtime.Undefined, []runtime.Value{val})
				if err != nil {
					next.Reject(err)
					return
				}
				next.Resolve(v)
			case runtime.PromiseAborted:
				next.Abort()
			default:
				impl, ok := runtime.Callable(onRejected)
				if !ok {
					next.Reject(reason)
					return
				}
				v, err := impl(runtime.Undefined, []runtime.Value{reasonValue(reason)})
				if err != nil {
					next.Reject(err)
					return
				}
				next.Resolve(v)
			}
		})
	})
	return next
}

func reasonValue(err error) runtime.Value {
	if err == nil {
		return runtime.Undefined
	}
	if t, ok := err.(runtime.Thrown); ok {
		return t.Val
	}
	if ev, ok := err.(runtime.ErrorValue); ok {
		return ev
	}
	return runtime.ErrorValue{Message: err.Error()}
}

// consoleFormat implements the printf-lite substitution console.log
// supports: %d, %i, %f, %s, %j, %o with extra arguments appended.
func consoleFormat(args []runtime.Value) string {
	if len(args) == 0 {
		return ""
	}
	first, ok := args[0].(runtime.StringValue)
	if !ok || !strings.Contains(first.Val, "%") {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = runtime.Display(a)
		}
		return strings.Join(parts, " ")
	}

	var b strings.Builder
	rest := args[1:]
	next := func() (runtime.Value, bool) {
		if len(rest) == 0 {
			return nil, false
		}
		v := rest[0]
		rest = rest[1:]
		return v, true
	}
	s := first.Val
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		verb := s[i+1]
		switch verb {
		case '%':
			b.WriteByte('%')
			i++
		case 'd', 'i', 'f', 's', 'j', 'o':
			v, ok := next()
			if !ok {
				b.WriteByte(s[i])
				continue
			}
			switch verb {
			case 'd':
				b.WriteString(runtime.FormatNumber(runtime.ToNumber(v)))
			case 'i':
				b.WriteString(runtime.FormatNumber(math.Trunc(runtime.ToNumber(v))))
			case 'f':
				b.WriteString(runtime.FormatNumber(runtime.ToNumber(v)))
			case 's':
				b.WriteString(runtime.ToString(v))
			default:
				if out, err := runtime.JSONStringify(v); err == nil {
					b.WriteString(out)
				} else {
					b.WriteString(runtime.Display(v))
				}
			}
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	for _, v := range rest {
		b.WriteByte(' ')
		b.WriteString(runtime.Display(v))
	}
	return b.String()
}
