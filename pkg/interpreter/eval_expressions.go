package interpreter

import (
	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// scopeRef is the assignable reference an identifier yields under RoleLeft.
// Writes target the scope that owns the binding, not necessarily the innermost
// one, so assignment through closures updates the captured binding.
type scopeRef struct {
	scope *runtime.Scope
	name  string
}

// memberRef is the assignable reference member access yields under RoleLeft.
type memberRef struct {
	object runtime.Value
	key    string
}

// calleeRef pairs a function with its receiver binding, produced under
// RoleCallee so method calls see the correct `this`.
type calleeRef struct {
	fn   runtime.Value
	this runtime.Value
}

func (x *Execution) stepIdentifier(f *Frame, node *ast.Identifier) error {
	switch f.Role {
	case RoleKey:
		x.ret(runtime.String(node.Name))
	case RoleLeft:
		owner := f.Scope.Owner(node.Name)
		if owner == nil {
			owner = f.Scope.Root()
		}
		x.ret(&scopeRef{scope: owner, name: node.Name})
	case RoleCallee:
		v, err := f.Scope.Get(node.Name)
		if err != nil {
			return err
		}
		x.ret(&calleeRef{fn: v, this: runtime.Undefined})
	default:
		v, err := f.Scope.Get(node.Name)
		if err != nil {
			return err
		}
		x.ret(v)
	}
	return nil
}

// stepThis resolves `this` through the scope chain; arrows leave it unbound
// in their own scope, so resolution walks to the enclosing function.
func (x *Execution) stepThis(f *Frame) error {
	if f.Role == RoleKey {
		x.ret(runtime.String("this"))
		return nil
	}
	v, ok := f.Scope.Lookup("this")
	if !ok {
		v = runtime.Undefined
	}
	if f.Role == RoleCallee {
		x.ret(&calleeRef{fn: v, this: runtime.Undefined})
		return nil
	}
	x.ret(v)
	return nil
}

func (x *Execution) stepMember(f *Frame, node *ast.MemberExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Object, RoleNone, "object")
	case 1:
		obj := asValue(f.State["object"])
		if node.Optional && runtime.Nullish(obj) {
			x.ret(runtime.Undefined)
			return nil
		}
		role := RoleNone
		if !node.Computed {
			role = RoleKey
		}
		x.pushChild(f, node.Property, role, "key")
	case 2:
		obj := asValue(f.State["object"])
		key := propertyKey(asValue(f.State["key"]))
		switch f.Role {
		case RoleLeft:
			x.ret(&memberRef{object: obj, key: key})
		case RoleCallee:
			v, err := x.getMember(obj, key)
			if err != nil {
				return err
			}
			x.ret(&calleeRef{fn: v, this: obj})
		default:
			v, err := x.getMember(obj, key)
			if err != nil {
				return err
			}
			x.ret(v)
		}
	default:
		return invariant("member subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepUnary(f *Frame, node *ast.UnaryExpression) error {
	switch f.SubIndex {
	case 0:
		switch node.Operator {
		case "throw", "delete":
			return &UnsupportedOperatorError{Operator: node.Operator}
		}
		x.pushChild(f, node.Argument, RoleNone, "v")
	case 1:
		v, err := applyUnary(node.Operator, asValue(f.State["v"]))
		if err != nil {
			return err
		}
		x.ret(v)
	default:
		return invariant("unary subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepBinary(f *Frame, node *ast.BinaryExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Left, RoleNone, "left")
	case 1:
		left := asValue(f.State["left"])
		switch node.Operator {
		case "&&":
			if !runtime.Truthy(left) {
				x.ret(left)
				return nil
			}
		case "||":
			if runtime.Truthy(left) {
				x.ret(left)
				return nil
			}
		case "??":
			if !runtime.Nullish(left) {
				x.ret(left)
				return nil
			}
		}
		x.pushChild(f, node.Right, RoleNone, "right")
	case 2:
		left := asValue(f.State["left"])
		right := asValue(f.State["right"])
		switch node.Operator {
		case "&&", "||", "??":
			x.ret(right)
		case "|>":
			v, err := x.callValue(right, runtime.Undefined, []runtime.Value{left})
			if err != nil {
				return err
			}
			x.ret(v)
		default:
			v, err := x.applyBinary(node.Operator, left, right)
			if err != nil {
				return err
			}
			x.ret(v)
		}
	default:
		return invariant("binary subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepConditional(f *Frame, node *ast.ConditionalExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Test, RoleNone, "test")
	case 1:
		branch := node.Consequent
		if !runtime.Truthy(asValue(f.State["test"])) {
			branch = node.Alternate
		}
		x.pushChild(f, branch, RoleNone, "v")
	case 2:
		x.ret(asValue(f.State["v"]))
	default:
		return invariant("conditional subIndex %d", f.SubIndex)
	}
	return nil
}

func isLogicalAssign(op string) bool {
	return op == "&&=" || op == "||=" || op == "??="
}

// stepAssignment evaluates the right-hand side first and the target second,
// except for the logical-assignment forms, which must read the target first
// to decide whether the right-hand side runs at all.
func (x *Execution) stepAssignment(f *Frame, node *ast.AssignmentExpression) error {
	if isLogicalAssign(node.Operator) {
		return x.stepLogicalAssignment(f, node)
	}
	switch f.SubIndex {
	case 0:
		name := ""
		if ident, ok := node.Left.(*ast.Identifier); ok {
			name = ident.Name
		}
		x.push(&Frame{
			Node:  node.Right,
			Scope: f.Scope,
			Name:  name,
			OnRet: asStateProp(f, "right"),
		})
	case 1:
		x.pushChild(f, node.Left, RoleLeft, "ref")
	case 2:
		right := asValue(f.State["right"])
		ref := f.State["ref"]
		if node.Operator == "=" {
			if err := x.refSet(ref, right); err != nil {
				return err
			}
			x.ret(right)
			return nil
		}
		cur, err := x.refGet(ref)
		if err != nil {
			return err
		}
		v, err := x.applyBinary(node.Operator[:len(node.Operator)-1], cur, right)
		if err != nil {
			return err
		}
		if err := x.refSet(ref, v); err != nil {
			return err
		}
		x.ret(v)
	default:
		return invariant("assignment subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepLogicalAssignment(f *Frame, node *ast.AssignmentExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Left, RoleLeft, "ref")
	case 1:
		cur, err := x.refGet(f.State["ref"])
		if err != nil {
			return err
		}
		skip := false
		switch node.Operator {
		case "&&=":
			skip = !runtime.Truthy(cur)
		case "||=":
			skip = runtime.Truthy(cur)
		case "??=":
			skip = !runtime.Nullish(cur)
		}
		if skip {
			x.ret(cur)
			return nil
		}
		x.pushChild(f, node.Right, RoleNone, "right")
	case 2:
		right := asValue(f.State["right"])
		if err := x.refSet(f.State["ref"], right); err != nil {
			return err
		}
		x.ret(right)
	default:
		return invariant("logical assignment subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepUpdate(f *Frame, node *ast.UpdateExpression) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Argument, RoleLeft, "ref")
	case 1:
		ref := f.State["ref"]
		cur, err := x.refGet(ref)
		if err != nil {
			return err
		}
		old := runtime.ToNumber(cur)
		delta := 1.0
		if node.Operator == "--" {
			delta = -1
		}
		next := old + delta
		if err := x.refSet(ref, runtime.Number(next)); err != nil {
			return err
		}
		if node.Prefix {
			x.ret(runtime.Number(next))
		} else {
			x.ret(runtime.Number(old))
		}
	default:
		return invariant("update subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepObject(f *Frame, node *ast.ObjectExpression) error {
	st := f.stateMap()
	obj, ok := st["obj"].(*runtime.ObjectValue)
	if !ok {
		obj = runtime.NewObject()
		st["obj"] = obj
	}
	if f.Index >= len(node.Properties) {
		x.ret(obj)
		return nil
	}
	switch p := node.Properties[f.Index].(type) {
	case *ast.ObjectProperty:
		switch f.SubIndex {
		case 0:
			role := RoleNone
			if !p.Computed {
				role = RoleKey
			}
			x.pushChild(f, p.Key, role, "key")
		case 1:
			name := propertyKey(asValue(f.State["key"]))
			x.push(&Frame{
				Node:  p.Value,
				Scope: f.Scope,
				Name:  name,
				OnRet: asStateProp(f, "val"),
			})
		case 2:
			obj.Set(propertyKey(asValue(f.State["key"])), asValue(f.State["val"]))
			f.Index++
			f.SubIndex = 0
		default:
			return invariant("object property subIndex %d", f.SubIndex)
		}
	case *ast.ObjectMethod:
		switch f.SubIndex {
		case 0:
			role := RoleNone
			if !p.Computed {
				role = RoleKey
			}
			x.pushChild(f, p.Key, role, "key")
		case 1:
			name := propertyKey(asValue(f.State["key"]))
			fn := x.buildFunction(p.Params, p.Body, p.Async, false, name, f.Scope, p)
			obj.Set(name, fn)
			f.Index++
			f.SubIndex = 0
		default:
			return invariant("object method subIndex %d", f.SubIndex)
		}
	case *ast.SpreadElement:
		switch f.SubIndex {
		case 0:
			x.pushChild(f, p.Argument, RoleNone, "spread")
		case 1:
			switch src := asValue(f.State["spread"]).(type) {
			case *runtime.ObjectValue:
				obj.Merge(src)
			case *runtime.ArrayValue:
				for i, el := range src.Elements {
					obj.Set(runtime.FormatNumber(float64(i)), el)
				}
			}
			f.Index++
			f.SubIndex = 0
		default:
			return invariant("object spread subIndex %d", f.SubIndex)
		}
	default:
		return &UnsupportedNodeError{NodeType: node.Properties[f.Index].Type()}
	}
	return nil
}

// stepArray appends evaluated elements in order; holes advance the index
// without writing, and spreads concatenate.
func (x *Execution) stepArray(f *Frame, node *ast.ArrayExpression) error {
	st := f.stateMap()
	arr, ok := st["arr"].(*runtime.ArrayValue)
	if !ok {
		arr = runtime.NewArray()
		st["arr"] = arr
	}
	if f.Index >= len(node.Elements) {
		x.ret(arr)
		return nil
	}
	el := node.Elements[f.Index]
	if el == nil {
		f.Index++
		return nil
	}
	if sp, ok := el.(*ast.SpreadElement); ok {
		switch f.SubIndex {
		case 0:
			x.pushChild(f, sp.Argument, RoleNone, "el")
		case 1:
			src, ok := asValue(f.State["el"]).(*runtime.ArrayValue)
			if !ok {
				return &UnsupportedOperatorError{Operator: "spread of non-array"}
			}
			arr.Elements = append(arr.Elements, src.Elements...)
			f.Index++
			f.SubIndex = 0
		default:
			return invariant("array spread subIndex %d", f.SubIndex)
		}
		return nil
	}
	switch f.SubIndex {
	case 0:
		x.pushChild(f, el, RoleNone, "el")
	case 1:
		arr.Elements = append(arr.Elements, asValue(f.State["el"]))
		f.Index++
		f.SubIndex = 0
	default:
		return invariant("array subIndex %d", f.SubIndex)
	}
	return nil
}
