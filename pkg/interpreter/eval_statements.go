package interpreter

import (
	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// Loop frame phases. For statements walk init→test→body→update; while and
// do-while use the two-phase subset.
const (
	phaseInit   = 0
	phaseTest   = 1
	phaseBody   = 2
	phaseUpdate = 3

	whileTest = 0
	whileBody = 1

	doBody = 0
	doTest = 1
)

// stepBlock drives Program and BlockStatement frames: enter a fresh child
// scope, evaluate statements in order discarding their values, then ret.
func (x *Execution) stepBlock(f *Frame, body []ast.Statement, program bool) error {
	st := f.stateMap()
	if _, ok := st["scope"]; !ok {
		if !(program && x.inRootScope) {
			f.Scope = runtime.NewScope(f.Scope)
		}
		hoistDeclarations(f.Scope, body)
		st["scope"] = f.Scope
	}
	if f.Index >= len(body) {
		x.ret(runtime.Undefined)
		return nil
	}
	switch f.SubIndex {
	case 0:
		x.push(&Frame{Node: body[f.Index], Scope: f.Scope, OnRet: discard})
	case 1:
		f.Index++
		f.SubIndex = 0
	default:
		return invariant("block subIndex %d", f.SubIndex)
	}
	return nil
}

// hoistDeclarations pre-stores the temporal-dead-zone sentinel for every
// binding declared directly in the block, so a read before the declaration
// statement reports an uninitialized access rather than a missing name.
func hoistDeclarations(scope *runtime.Scope, body []ast.Statement) {
	for _, stmt := range body {
		decl, ok := stmt.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		for _, d := range decl.Declarations {
			if d.ID != nil {
				scope.Declare(d.ID.Name, runtime.Uninitialized)
			}
		}
	}
}

func (x *Execution) stepExpressionStatement(f *Frame, node *ast.ExpressionStatement) error {
	switch f.SubIndex {
	case 0:
		x.push(&Frame{Node: node.Expression, Scope: f.Scope, OnRet: discard})
	case 1:
		x.ret(runtime.Undefined)
	default:
		return invariant("expression statement subIndex %d", f.SubIndex)
	}
	return nil
}

// stepVariableDeclaration pre-stores the hoisting sentinel before each
// initializer runs, so a self-referential initializer reads the sentinel and
// fails instead of seeing a stale outer binding.
func (x *Execution) stepVariableDeclaration(f *Frame, node *ast.VariableDeclaration) error {
	if f.Index >= len(node.Declarations) {
		x.ret(runtime.Undefined)
		return nil
	}
	d := node.Declarations[f.Index]
	if d.ID == nil {
		return &UnsupportedParamError{ParamType: "declaration pattern"}
	}
	switch f.SubIndex {
	case 0:
		f.Scope.Declare(d.ID.Name, runtime.Uninitialized)
		if d.Init == nil {
			f.Scope.Declare(d.ID.Name, runtime.Undefined)
			f.Index++
			return nil
		}
		x.push(&Frame{
			Node:  d.Init,
			Scope: f.Scope,
			Name:  d.ID.Name,
			OnRet: asStateProp(f, "init"),
		})
	case 1:
		f.Scope.Declare(d.ID.Name, asValue(f.State["init"]))
		f.Index++
		f.SubIndex = 0
	default:
		return invariant("declaration subIndex %d", f.SubIndex)
	}
	return nil
}

func (x *Execution) stepIf(f *Frame, node *ast.IfStatement) error {
	switch f.SubIndex {
	case 0:
		x.pushChild(f, node.Test, RoleNone, "test")
	case 1:
		branch := node.Consequent
		if !runtime.Truthy(asValue(f.State["test"])) {
			branch = node.Alternate
		}
		if branch == nil {
			x.ret(runtime.Undefined)
			return nil
		}
		x.push(&Frame{Node: branch, Scope: f.Scope, OnRet: discard})
	case 2:
		x.ret(runtime.Undefined)
	default:
		return invariant("if subIndex %d", f.SubIndex)
	}
	return nil
}

// stepFor shares one scope between init, test, and update, and hands the
// body a fresh per-iteration scope seeded from the init scope's bindings, so
// closures captured in the body observe per-iteration loop variables.
func (x *Execution) stepFor(f *Frame, node *ast.ForStatement) error {
	switch f.Index {
	case phaseInit:
		switch f.SubIndex {
		case 0:
			st := f.stateMap()
			if _, ok := st["scope"]; !ok {
				f.Scope = runtime.NewScope(f.Scope)
				st["scope"] = f.Scope
			}
			if node.Init == nil {
				f.Index = phaseTest
				return nil
			}
			x.push(&Frame{Node: node.Init, Scope: f.Scope, OnRet: discard})
		case 1:
			f.Index = phaseTest
			f.SubIndex = 0
		default:
			return invariant("for init subIndex %d", f.SubIndex)
		}
	case phaseTest:
		switch f.SubIndex {
		case 0:
			if node.Test == nil {
				f.Index = phaseBody
				return nil
			}
			x.pushChild(f, node.Test, RoleNone, "test")
		case 1:
			if runtime.Truthy(asValue(f.State["test"])) {
				f.Index = phaseBody
				f.SubIndex = 0
			} else {
				x.ret(runtime.Undefined)
			}
		default:
			return invariant("for test subIndex %d", f.SubIndex)
		}
	case phaseBody:
		switch f.SubIndex {
		case 0:
			iter := runtime.NewScope(f.Scope)
			f.Scope.CopyOwn(iter)
			x.push(&Frame{Node: node.Body, Scope: iter, OnRet: discard})
		case 1:
			f.Index = phaseUpdate
			f.SubIndex = 0
		default:
			return invariant("for body subIndex %d", f.SubIndex)
		}
	case phaseUpdate:
		switch f.SubIndex {
		case 0:
			if node.Update == nil {
				f.Index = phaseTest
				return nil
			}
			x.push(&Frame{Node: node.Update, Scope: f.Scope, OnRet: discard})
		case 1:
			f.Index = phaseTest
			f.SubIndex = 0
		default:
			return invariant("for update subIndex %d", f.SubIndex)
		}
	default:
		return invariant("for phase %d", f.Index)
	}
	return nil
}

func (x *Execution) stepWhile(f *Frame, node *ast.WhileStatement) error {
	switch f.Index {
	case whileTest:
		switch f.SubIndex {
		case 0:
			x.pushChild(f, node.Test, RoleNone, "test")
		case 1:
			if runtime.Truthy(asValue(f.State["test"])) {
				f.Index = whileBody
				f.SubIndex = 0
			} else {
				x.ret(runtime.Undefined)
			}
		default:
			return invariant("while test subIndex %d", f.SubIndex)
		}
	case whileBody:
		switch f.SubIndex {
		case 0:
			x.push(&Frame{Node: node.Body, Scope: f.Scope, OnRet: discard})
		case 1:
			f.Index = whileTest
			f.SubIndex = 0
		default:
			return invariant("while body subIndex %d", f.SubIndex)
		}
	default:
		return invariant("while phase %d", f.Index)
	}
	return nil
}

func (x *Execution) stepDoWhile(f *Frame, node *ast.DoWhileStatement) error {
	switch f.Index {
	case doBody:
		switch f.SubIndex {
		case 0:
			x.push(&Frame{Node: node.Body, Scope: f.Scope, OnRet: discard})
		case 1:
			f.Index = doTest
			f.SubIndex = 0
		default:
			return invariant("do-while body subIndex %d", f.SubIndex)
		}
	case doTest:
		switch f.SubIndex {
		case 0:
			x.pushChild(f, node.Test, RoleNone, "test")
		case 1:
			if runtime.Truthy(asValue(f.State["test"])) {
				f.Index = doBody
				f.SubIndex = 0
			} else {
				x.ret(runtime.Undefined)
			}
		default:
			return invariant("do-while test subIndex %d", f.SubIndex)
		}
	default:
		return invariant("do-while phase %d", f.Index)
	}
	return nil
}

func (x *Execution) stepBreak(f *Frame) error {
	if _, err := x.unwindToLoop(); err != nil {
		return err
	}
	x.ret(runtime.Undefined)
	return nil
}

// stepContinue rewinds the loop frame to its next-iteration phase: the
// update phase for `for`, the test for `while`, and the body for `do-while`.
func (x *Execution) stepContinue(f *Frame) error {
	loop, err := x.unwindToLoop()
	if err != nil {
		return err
	}
	switch loop.Node.(type) {
	case *ast.ForStatement:
		loop.Index = phaseUpdate
	case *ast.WhileStatement:
		loop.Index = whileTest
	case *ast.DoWhileStatement:
		loop.Index = doBody
	}
	loop.SubIndex = 0
	return nil
}

// stepReturn unwinds to the nearest call frame and rets the value through
// it. A top-level return simply ends the execution.
func (x *Execution) stepReturn(f *Frame, node *ast.ReturnStatement) error {
	switch f.SubIndex {
	case 0:
		if node.Argument == nil {
			f.stateMap()["val"] = runtime.Value(runtime.Undefined)
			f.SubIndex = 2
			return nil
		}
		x.pushChild(f, node.Argument, RoleNone, "val")
		return nil
	case 1, 2:
		val := asValue(f.State["val"])
		callIdx := -1
		for i := x.State.Stack.Len() - 1; i >= 0; i-- {
			if x.State.Stack[i].Role == RoleCall {
				callIdx = i
				break
			}
		}
		if callIdx < 0 {
			x.State.Stack = nil
			return nil
		}
		x.State.Stack = x.State.Stack[:callIdx+1]
		x.ret(val)
		return nil
	default:
		return invariant("return subIndex %d", f.SubIndex)
	}
}

func (x *Execution) stepFunctionDeclaration(f *Frame, node *ast.FunctionDeclaration) error {
	if node.ID == nil {
		return &UnsupportedNodeError{NodeType: "anonymous function declaration"}
	}
	fn := x.buildFunction(node.Params, node.Body, node.Async, false, node.ID.Name, f.Scope, node)
	f.Scope.Declare(node.ID.Name, fn)
	x.ret(runtime.Undefined)
	return nil
}
