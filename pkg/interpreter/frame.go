package interpreter

import (
	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// Role hints how a parent frame wants a sub-expression interpreted.
type Role int

const (
	// RoleNone evaluates to a plain value.
	RoleNone Role = iota
	// RoleCall marks the root frame of a function invocation; Return
	// statements unwind to it.
	RoleCall
	// RoleCallee makes identifier and member evaluation yield the function
	// together with its receiver binding.
	RoleCallee
	// RoleKey makes an identifier yield its name literally, for object keys
	// and non-computed member access.
	RoleKey
	// RoleLeft makes identifier and member evaluation yield an assignable
	// reference instead of a value.
	RoleLeft
)

func (r Role) String() string {
	switch r {
	case RoleCall:
		return "call"
	case RoleCallee:
		return "callee"
	case RoleKey:
		return "key"
	case RoleLeft:
		return "left"
	default:
		return ""
	}
}

// OnRet delivers a popped frame's value to its parent. It is the sole
// inter-frame communication channel. Values are `any` rather than
// runtime.Value because reference shapes (assignment targets, callee
// receivers) also travel through it.
type OnRet func(v any)

// Frame is one in-progress AST node on an execution stack. Index walks an
// ordered child list; SubIndex is the phase within evaluating one child;
// State is evaluator scratch, usually a map fed by OnRet handlers.
type Frame struct {
	Node     ast.Node
	Scope    *runtime.Scope
	Role     Role
	Name     string
	Index    int
	SubIndex int
	State    map[string]any
	OnRet    OnRet
}

// stateMap lazily allocates the frame's scratch map.
func (f *Frame) stateMap() map[string]any {
	if f.State == nil {
		f.State = make(map[string]any)
	}
	return f.State
}

// asStateProp stores the child's return under key p in the parent's scratch.
func asStateProp(parent *Frame, p string) OnRet {
	return func(v any) {
		parent.stateMap()[p] = v
	}
}

// discard ignores the child's return.
func discard(any) {}

// Stack is the ordered frame sequence of one execution; the last element is
// the active frame.
type Stack []*Frame

func (s *Stack) Push(f *Frame) {
	*s = append(*s, f)
}

func (s *Stack) Pop() *Frame {
	if len(*s) == 0 {
		return nil
	}
	last := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return last
}

func (s Stack) Top() *Frame {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

func (s Stack) Len() int { return len(s) }

// ExecutionState is the host-observable part of an execution: the frame
// stack, and the promise it is parked on. The stack is empty exactly when
// the execution has terminated; AwaitingPromise is non-nil only at an await
// suspension and is cleared before the awaiter resumes.
type ExecutionState struct {
	Stack           Stack
	AwaitingPromise *runtime.PromiseValue
}
