package interpreter

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ForkKILLET/fkio/pkg/ast"
	"github.com/ForkKILLET/fkio/pkg/parser"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// Options configures a runtime.
type Options struct {
	// IsDebug enables per-step trace output.
	IsDebug bool
	// Stdout receives console output from guest programs; defaults to
	// os.Stdout.
	Stdout io.Writer
	// TraceWriter receives debug traces; defaults to os.Stderr.
	TraceWriter io.Writer
}

// ExecOptions configures one execution.
type ExecOptions struct {
	// Desc labels the execution in traces and the executions list.
	Desc string
	// RootScope is the program's outermost scope; a fresh globals-populated
	// scope when nil.
	RootScope *runtime.Scope
	// InRootScope evaluates the program directly in RootScope so its
	// bindings persist there; used by the REPL.
	InRootScope bool
}

// Runtime owns the event loop, the observable list of live executions, and
// the debug toggle.
type Runtime struct {
	// IsDebug may be flipped at any point between steps.
	IsDebug bool

	mu    sync.Mutex
	execs []*Execution
	seq   int

	loop   *eventLoop
	tracer *tracer
	out    io.Writer

	globalsOnce sync.Once
	globalVars  map[string]runtime.Value
	promiseCtor *runtime.NativeFunctionValue
}

// NewRuntime creates a runtime with a running event loop.
func NewRuntime(opts Options) *Runtime {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	tw := opts.TraceWriter
	if tw == nil {
		tw = os.Stderr
	}
	return &Runtime{
		IsDebug: opts.IsDebug,
		loop:    newEventLoop(),
		tracer:  newTracer(tw),
		out:     out,
	}
}

// Close stops the event loop. Executions still parked on promises never
// resume afterwards.
func (rt *Runtime) Close() {
	rt.loop.Close()
}

// Flush blocks until the event loop has drained its queue and gone idle.
// Suspended executions waiting on unsettled promises do not count as work.
func (rt *Runtime) Flush() {
	rt.loop.Drain()
}

// Execute parses source and creates an execution rooted at its program
// node. Syntax errors surface here; nothing runs until Step, Start, or
// Wait is called on the returned execution.
func (rt *Runtime) Execute(source string, opts ExecOptions) (*Execution, error) {
	prog, err := parser.Parse([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return rt.ExecuteProgram(prog, []byte(source), opts), nil
}

// ExecuteProgram creates an execution for an already-parsed program, the
// entry point for hosts that decode an AST instead of parsing source.
func (rt *Runtime) ExecuteProgram(prog *ast.Program, source []byte, opts ExecOptions) *Execution {
	scope := opts.RootScope
	if scope == nil {
		scope = rt.WithGlobal(runtime.NewScope(nil))
	}
	desc := opts.Desc
	if desc == "" {
		desc = fmt.Sprintf("exec-%d", rt.nextSeq())
	}
	x := rt.newExecution(desc, source)
	x.inRootScope = opts.InRootScope
	x.push(&Frame{Node: prog, Scope: scope, OnRet: discard})
	rt.register(x)
	return x
}

// Executions snapshots the live executions list. The list is append-only
// during a run: async function invocations add sub-executions here.
func (rt *Runtime) Executions() []*Execution {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*Execution, len(rt.execs))
	copy(out, rt.execs)
	return out
}

func (rt *Runtime) register(x *Execution) {
	rt.mu.Lock()
	rt.execs = append(rt.execs, x)
	rt.mu.Unlock()
}

func (rt *Runtime) nextSeq() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.seq++
	return rt.seq
}
