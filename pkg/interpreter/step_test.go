package interpreter_test

import (
	"errors"
	"testing"

	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/interpreter"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// progKey observes the components every step must advance: stack shape, top
// frame indices, or the awaiting promise.
type progKey struct {
	depth    int
	index    int
	subIndex int
	awaiting bool
}

func snapshot(x *interpreter.Execution) progKey {
	key := progKey{
		depth:    x.State.Stack.Len(),
		awaiting: x.State.AwaitingPromise != nil,
	}
	if top := x.State.Stack.Top(); top != nil {
		key.index = top.Index
		key.subIndex = top.SubIndex
	}
	return key
}

func TestStepMakesObservableProgress(t *testing.T) {
	rt, _ := newRuntime(t)
	prog := ast.Prog(
		ast.Let("x", ast.Num(1)),
		ast.ExprStmt(ast.Assign("=", ast.Ident("x"), ast.Bin("+", ast.Ident("x"), ast.Num(2)))),
		ast.If(ast.Ident("x"), ast.Block(ast.ExprStmt(ast.Update("++", ast.Ident("x"), false))), nil),
	)
	exec := rt.ExecuteProgram(prog, nil, interpreter.ExecOptions{Desc: "manual"})

	prev := snapshot(exec)
	steps := 0
	for exec.State.Stack.Len() > 0 {
		if err := exec.Step(); err != nil {
			t.Fatalf("step %d: %v", steps, err)
		}
		steps++
		if steps > 10000 {
			t.Fatalf("execution did not terminate")
		}
		cur := snapshot(exec)
		if cur == prev {
			t.Fatalf("step %d made no observable progress: %+v", steps, cur)
		}
		prev = cur
	}
	if exec.State.AwaitingPromise != nil {
		t.Fatalf("terminated execution must not hold an awaiting promise")
	}
}

func TestStepOnEmptyStackViolatesInvariant(t *testing.T) {
	rt, _ := newRuntime(t)
	exec := rt.ExecuteProgram(ast.Prog(), nil, interpreter.ExecOptions{Desc: "empty"})
	for exec.State.Stack.Len() > 0 {
		if err := exec.Step(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	err := exec.Step()
	var inv *interpreter.StateInvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected StateInvariantError, got %v", err)
	}
}

func TestManualSteppingReachesTDZ(t *testing.T) {
	rt, _ := newRuntime(t)
	// console.log is irrelevant here: reading `a` before its declaration
	// statement must fail once hoisting has parked the sentinel.
	prog := ast.Prog(
		ast.ExprStmt(ast.Ident("a")),
		ast.Let("a", ast.Num(1)),
	)
	exec := rt.ExecuteProgram(prog, nil, interpreter.ExecOptions{Desc: "tdz"})
	var err error
	for exec.State.Stack.Len() > 0 && err == nil {
		err = exec.Step()
	}
	var tdz *runtime.UninitializedReadError
	if !errors.As(err, &tdz) {
		t.Fatalf("expected UninitializedReadError, got %v", err)
	}
}

func TestHostCallableSyncFunction(t *testing.T) {
	rt, buf := newRuntime(t)
	scope := rt.WithGlobal(runtime.NewScope(nil))
	exec, err := rt.Execute(`const double = x => x * 2`, interpreter.ExecOptions{
		Desc:        "defs",
		RootScope:   scope,
		InRootScope: true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := exec.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	_ = buf

	v, err := scope.Get("double")
	if err != nil {
		t.Fatalf("binding lookup: %v", err)
	}
	fn, ok := v.(*runtime.FunctionValue)
	if !ok {
		t.Fatalf("expected a guest function, got %s", v.Kind())
	}
	if fn.Name != "double" {
		t.Fatalf("expected declarator naming, got %q", fn.Name)
	}
	out, err := fn.Impl(runtime.Undefined, []runtime.Value{runtime.Number(21)})
	if err != nil {
		t.Fatalf("host call: %v", err)
	}
	if num := out.(runtime.NumberValue); num.Val != 42 {
		t.Fatalf("expected 42, got %v", num.Val)
	}
}

func TestWithGlobalKeepsExistingBindings(t *testing.T) {
	rt, _ := newRuntime(t)
	base := runtime.NewScope(nil)
	custom := runtime.NewObject()
	base.Declare("console", custom)
	scope := rt.WithGlobal(base)

	v, err := scope.Get("console")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if v != runtime.Value(custom) {
		t.Fatalf("WithGlobal must not replace existing bindings")
	}
	if !scope.Has("Math") || !scope.Has("JSON") || !scope.Has("Promise") || !scope.Has("setTimeout") {
		t.Fatalf("WithGlobal must add the missing host globals")
	}
}

func TestPipelineOperator(t *testing.T) {
	// The pipeline operator only arrives through the JSON front end; build
	// the AST directly the way that decoder would.
	rt, buf := newRuntime(t)
	prog := ast.Prog(
		ast.Let("inc", ast.Arrow(ast.Params("x"), ast.Bin("+", ast.Ident("x"), ast.Num(1)), false)),
		ast.ExprStmt(ast.Call(
			ast.Member(ast.Ident("console"), "log"),
			ast.Bin("|>", ast.Num(41), ast.Ident("inc")),
		)),
	)
	exec := rt.ExecuteProgram(prog, nil, interpreter.ExecOptions{Desc: "pipe"})
	if err := exec.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := buf.String(); got != "42\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBreakOutsideLoopViolatesInvariant(t *testing.T) {
	rt, _ := newRuntime(t)
	exec := rt.ExecuteProgram(ast.Prog(ast.Brk()), nil, interpreter.ExecOptions{Desc: "stray"})
	err := exec.Wait()
	var inv *interpreter.StateInvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected StateInvariantError, got %v", err)
	}
}

func TestReturnValueThroughCallFrame(t *testing.T) {
	out := runSource(t, `
		const pick = n => {
			for (let i = 0; i < 100; i++) {
				if (i === n) return i * 10
			}
			return -1
		}
		console.log(pick(4), pick(200))
	`)
	got := out
	if got != "40 -1\n" {
		t.Fatalf("got %q", got)
	}
}
