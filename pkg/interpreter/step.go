package interpreter

import (
	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// Step performs exactly one unit of progress on the top frame: push a child,
// pop with a value, or mutate the frame's indices and scratch. It is
// non-reentrant per execution.
func (x *Execution) Step() error {
	f := x.State.Stack.Top()
	if f == nil {
		return invariant("step on empty stack")
	}
	x.steps++
	if x.rt.IsDebug {
		x.rt.tracer.step(x, f)
	}

	switch node := f.Node.(type) {
	case *ast.Program:
		return x.stepBlock(f, node.Body, true)
	case *ast.BlockStatement:
		return x.stepBlock(f, node.Body, false)
	case *ast.ExpressionStatement:
		return x.stepExpressionStatement(f, node)
	case *ast.VariableDeclaration:
		return x.stepVariableDeclaration(f, node)
	case *ast.IfStatement:
		return x.stepIf(f, node)
	case *ast.ForStatement:
		return x.stepFor(f, node)
	case *ast.WhileStatement:
		return x.stepWhile(f, node)
	case *ast.DoWhileStatement:
		return x.stepDoWhile(f, node)
	case *ast.BreakStatement:
		return x.stepBreak(f)
	case *ast.ContinueStatement:
		return x.stepContinue(f)
	case *ast.ReturnStatement:
		return x.stepReturn(f, node)
	case *ast.FunctionDeclaration:
		return x.stepFunctionDeclaration(f, node)
	case *ast.Identifier:
		return x.stepIdentifier(f, node)
	case *ast.ThisExpression:
		return x.stepThis(f)
	case *ast.MemberExpression:
		return x.stepMember(f, node)
	case *ast.UnaryExpression:
		return x.stepUnary(f, node)
	case *ast.BinaryExpression:
		return x.stepBinary(f, node)
	case *ast.ConditionalExpression:
		return x.stepConditional(f, node)
	case *ast.AssignmentExpression:
		return x.stepAssignment(f, node)
	case *ast.UpdateExpression:
		return x.stepUpdate(f, node)
	case *ast.ObjectExpression:
		return x.stepObject(f, node)
	case *ast.ArrayExpression:
		return x.stepArray(f, node)
	case *ast.CallExpression:
		return x.stepCall(f, node)
	case *ast.NewExpression:
		return x.stepNew(f, node)
	case *ast.FunctionExpression:
		name := f.Name
		if node.ID != nil {
			name = node.ID.Name
		}
		x.ret(x.buildFunction(node.Params, node.Body, node.Async, false, name, f.Scope, node))
		return nil
	case *ast.ArrowFunctionExpression:
		x.ret(x.buildFunction(node.Params, node.Body, node.Async, true, f.Name, f.Scope, node))
		return nil
	case *ast.AwaitExpression:
		return x.stepAwait(f, node)
	case *ast.StringLiteral:
		x.ret(runtime.String(node.Value))
		return nil
	case *ast.NumericLiteral:
		x.ret(runtime.Number(node.Value))
		return nil
	case *ast.BooleanLiteral:
		x.ret(runtime.Boolean(node.Value))
		return nil
	case *ast.NullLiteral:
		x.ret(runtime.Null)
		return nil
	case *ast.RegExpLiteral:
		re, err := runtime.NewRegExp(node.Pattern, node.Flags)
		if err != nil {
			return err
		}
		x.ret(re)
		return nil
	default:
		return &UnsupportedNodeError{NodeType: f.Node.Type()}
	}
}

// push makes f the active frame.
func (x *Execution) push(f *Frame) {
	x.State.Stack.Push(f)
}

// pushChild pushes node as a child of parent, delivering its value into
// parent's scratch under prop.
func (x *Execution) pushChild(parent *Frame, node ast.Node, role Role, prop string) {
	x.push(&Frame{
		Node:  node,
		Scope: parent.Scope,
		Role:  role,
		OnRet: asStateProp(parent, prop),
	})
}

// ret pops the active frame with value v: the frame's OnRet receives v and
// the new top frame's SubIndex advances by one. This is the only way a frame
// communicates a result upward.
func (x *Execution) ret(v any) {
	f := x.State.Stack.Pop()
	if f == nil {
		return
	}
	if x.rt.IsDebug {
		x.rt.tracer.ret(x, f, v)
	}
	if f.OnRet != nil {
		f.OnRet(v)
	}
	if parent := x.State.Stack.Top(); parent != nil {
		parent.SubIndex++
	}
}

// unwindToLoop silently pops frames (no OnRet, no SubIndex advance) until
// the active frame is a loop.
func (x *Execution) unwindToLoop() (*Frame, error) {
	for {
		top := x.State.Stack.Top()
		if top == nil {
			return nil, invariant("break/continue outside loop")
		}
		if isLoopNode(top.Node) {
			return top, nil
		}
		x.State.Stack.Pop()
	}
}

func isLoopNode(n ast.Node) bool {
	switch n.(type) {
	case *ast.ForStatement, *ast.WhileStatement, *ast.DoWhileStatement:
		return true
	default:
		return false
	}
}

// asValue normalizes OnRet payloads back into runtime values.
func asValue(v any) runtime.Value {
	if v == nil {
		return runtime.Undefined
	}
	if val, ok := v.(runtime.Value); ok {
		return val
	}
	return runtime.Undefined
}
