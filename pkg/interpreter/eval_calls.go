package interpreter

import (
	"fmt"

	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// collectArgs drives the argument phase shared by call and new frames:
// arguments evaluate in source order, with spreads expanding in place,
// before the callee is touched. Returns the collected values once
// f.Index has passed the argument list, nil while still collecting.
func (x *Execution) collectArgs(f *Frame, args []ast.Expression) ([]runtime.Value, error) {
	st := f.stateMap()
	collected, _ := st["args"].([]runtime.Value)
	if f.Index >= len(args) {
		return collected, nil
	}
	arg := args[f.Index]
	if sp, ok := arg.(*ast.SpreadElement); ok {
		switch f.SubIndex {
		case 0:
			x.pushChild(f, sp.Argument, RoleNone, "arg")
		case 1:
			src, ok := asValue(f.State["arg"]).(*runtime.ArrayValue)
			if !ok {
				return nil, &UnsupportedOperatorError{Operator: "spread of non-array"}
			}
			st["args"] = append(collected, src.Elements...)
			f.Index++
			f.SubIndex = 0
		default:
			return nil, invariant("call spread subIndex %d", f.SubIndex)
		}
		return nil, errCollecting
	}
	switch f.SubIndex {
	case 0:
		x.pushChild(f, arg, RoleNone, "arg")
	case 1:
		st["args"] = append(collected, asValue(f.State["arg"]))
		f.Index++
		f.SubIndex = 0
	default:
		return nil, invariant("call arg subIndex %d", f.SubIndex)
	}
	return nil, errCollecting
}

// errCollecting signals that collectArgs made progress and the frame should
// be stepped again; it never escapes the evaluator.
var errCollecting = fmt.Errorf("collecting arguments")

func (x *Execution) stepCall(f *Frame, node *ast.CallExpression) error {
	args, err := x.collectArgs(f, node.Arguments)
	if err != nil {
		if err == errCollecting {
			return nil
		}
		return err
	}
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Callee, RoleCallee, "callee")
	case 1:
		fn, this := splitCallee(f.State["callee"])
		if runtime.Nullish(fn) {
			if node.Optional || !isCalleeRef(f.State["callee"]) {
				// Optional call, or a short-circuited optional chain.
				x.ret(runtime.Undefined)
				return nil
			}
			return fmt.Errorf("%s is not a function", runtime.Display(fn))
		}
		v, err := x.callValue(fn, this, args)
		if err != nil {
			return err
		}
		x.ret(v)
	default:
		return invariant("call subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepNew(f *Frame, node *ast.NewExpression) error {
	args, err := x.collectArgs(f, node.Arguments)
	if err != nil {
		if err == errCollecting {
			return nil
		}
		return err
	}
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Callee, RoleCallee, "callee")
	case 1:
		fn, _ := splitCallee(f.State["callee"])
		v, err := x.construct(fn, args)
		if err != nil {
			return err
		}
		x.ret(v)
	default:
		return invariant("new subIndex %d", f.SubIndex)
	}
	return nil
}

func splitCallee(v any) (runtime.Value, runtime.Value) {
	if cr, ok := v.(*calleeRef); ok {
		return asValue(cr.fn), asValue(cr.this)
	}
	return asValue(v), runtime.Undefined
}

func isCalleeRef(v any) bool {
	_, ok := v.(*calleeRef)
	return ok
}

// construct services `new`: natives construct through their Construct hook;
// guest functions get a fresh receiver tagged with the constructor for
// `instanceof`, and keep it unless the body returns an object.
func (x *Execution) construct(fn runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch ctor := fn.(type) {
	case *runtime.NativeFunctionValue:
		if ctor.Construct == nil {
			return nil, fmt.Errorf("%s is not a constructor", runtime.Display(fn))
		}
		return ctor.Construct(args)
	case *runtime.FunctionValue:
		if ctor.Arrow {
			return nil, fmt.Errorf("%s is not a constructor", runtime.Display(fn))
		}
		this := runtime.NewObject()
		this.Ctor = ctor
		res, err := ctor.Impl(this, args)
		if err != nil {
			return nil, err
		}
		switch res.(type) {
		case *runtime.ObjectValue, *runtime.ArrayValue:
			return res, nil
		default:
			return this, nil
		}
	default:
		return nil, fmt.Errorf("%s is not a constructor", runtime.Display(fn))
	}
}

// stepAwait evaluates its argument, parks the execution on an observable
// promise, and polls the settle state: pending keeps the frame parked,
// fulfillment rets the value, rejection re-throws, and an abort propagates
// the cancellation sentinel. Non-promise, non-thenable values ret
// immediately without suspending.
func (x *Execution) stepAwait(f *Frame, node *ast.AwaitExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Argument, RoleNone, "v")
		return nil
	case 1:
		v := asValue(f.State["v"])
		var p *runtime.PromiseValue
		if pv, ok := v.(*runtime.PromiseValue); ok {
			p = pv
		} else if tp := x.wrapThenable(v); tp != nil {
			p = tp
		} else {
			x.ret(v)
			return nil
		}
		if x.State.AwaitingPromise != nil {
			return invariant("awaiting promise already set")
		}
		x.State.AwaitingPromise = p
		f.stateMap()["promise"] = p
		f.SubIndex = 2
		return nil
	case 2:
		p, _ := f.State["promise"].(*runtime.PromiseValue)
		if p == nil {
			return invariant("await polling without promise")
		}
		val, reason, status := p.Snapshot()
		switch status {
		case runtime.PromisePending:
			// Still parked; the driver resumes us on settlement.
			return nil
		case runtime.PromiseFulfilled:
			x.State.AwaitingPromise = nil
			x.ret(val)
			return nil
		case runtime.PromiseAborted:
			x.State.AwaitingPromise = nil
			return runtime.ErrAborted
		default:
			x.State.AwaitingPromise = nil
			if reason == nil {
				reason = runtime.ErrorValue{Message: "promise rejected"}
			}
			return reason
		}
	default:
		return invariant("await subIndex %d", f.SubIndex)
	}
}

// wrapThenable adapts an object exposing a callable `then` into an
// observable promise; returns nil when v is not a thenable.
func (x *Execution) wrapThenable(v runtime.Value) *runtime.PromiseValue {
	obj, ok := v.(*runtime.ObjectValue)
	if !ok {
		return nil
	}
	thenV, ok := obj.Get("then")
	if !ok {
		return nil
	}
	impl, ok := runtime.Callable(thenV)
	if !ok {
		return nil
	}
	p := runtime.NewPromise()
	resolve := &runtime.NativeFunctionValue{
		Name: "resolve",
		Impl: func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p.Resolve(argOr(args, 0))
			return runtime.Undefined, nil
		},
	}
	reject := &runtime.NativeFunctionValue{
		Name: "reject",
		Impl: func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			p.Reject(runtime.AsError(argOr(args, 0)))
			return runtime.Undefined, nil
		},
	}
	if _, err := impl(v, []runtime.Value{resolve, reject}); err != nil {
		p.Reject(err)
	}
	return p
}

func argOr(args []runtime.Value, i int) runtime.Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return runtime.Undefined
}
