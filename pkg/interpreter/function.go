package interpreter

import (
	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// buildFunction packages an AST function into a host-callable closure over
// the defining frame's scope. Each call creates a sub-execution rooted at
// the body behind a call frame whose OnRet captures the return value.
// Synchronous bodies pump to completion inline; asynchronous bodies return
// an observable promise and pump cooperatively on the runtime's loop.
// Arrows skip the `this` binding so resolution walks to the enclosing scope.
func (x *Execution) buildFunction(params []ast.Node, body ast.Node, async, arrow bool, name string, defScope *runtime.Scope, node ast.Node) *runtime.FunctionValue {
	rt := x.rt
	source := x.source
	fv := &runtime.FunctionValue{
		Name:    name,
		Node:    node,
		Closure: defScope,
		Async:   async,
		Arrow:   arrow,
	}
	fv.Impl = func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fnScope := runtime.NewScope(defScope)
		if !arrow {
			if this == nil {
				this = runtime.Undefined
			}
			fnScope.Declare("this", this)
		}
		if err := bindParams(fnScope, params, args); err != nil {
			return nil, err
		}

		desc := name
		if desc == "" {
			desc = "anonymous"
		}
		sub := rt.newExecution(desc, source)
		var retVal runtime.Value = runtime.Undefined
		sub.push(&Frame{
			Node:  body,
			Scope: fnScope,
			Role:  RoleCall,
			OnRet: func(v any) { retVal = asValue(v) },
		})

		if !async {
			for sub.State.Stack.Len() > 0 {
				if err := sub.Step(); err != nil {
					sub.State.Stack = nil
					return nil, err
				}
				if sub.State.AwaitingPromise != nil {
					sub.State.Stack = nil
					return nil, invariant("await inside synchronous function %q", desc)
				}
			}
			return retVal, nil
		}

		p := runtime.NewPromise()
		rt.register(sub)
		rt.loop.Post(func() {
			sub.run(func(err error) {
				sub.finish(err)
				switch {
				case err == nil:
					p.Resolve(retVal)
				case Aborted(err):
					p.Abort()
				default:
					p.Reject(err)
				}
			})
		})
		return p, nil
	}
	return fv
}

// bindParams binds plain identifiers positionally and a trailing rest
// identifier to the remaining arguments. Anything else is outside the
// supported subset.
func bindParams(scope *runtime.Scope, params []ast.Node, args []runtime.Value) error {
	for i, p := range params {
		switch pn := p.(type) {
		case *ast.Identifier:
			scope.Declare(pn.Name, argOr(args, i))
		case *ast.RestElement:
			if i != len(params)-1 {
				return &UnsupportedParamError{ParamType: "non-trailing rest element"}
			}
			rest := runtime.NewArray()
			if i < len(args) {
				rest.Elements = append(rest.Elements, args[i:]...)
			}
			scope.Declare(pn.Argument.Name, rest)
		default:
			return &UnsupportedParamError{ParamType: p.Type()}
		}
	}
	return nil
}
