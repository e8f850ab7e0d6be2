package interpreter

import (
	"errors"
	"sync"

	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// Execution is one live interpretation of a program or async function body.
// It owns a frame stack and, while suspended, the promise it waits on. All
// pumping happens on the owning runtime's event loop; Step may also be
// driven directly by a host single-stepping a debugger, from one thread.
type Execution struct {
	rt   *Runtime
	Desc string

	// State is the read-only observation surface for hosts.
	State ExecutionState

	source []byte
	steps  int

	// inRootScope makes the program node evaluate directly in the root
	// scope instead of a child scope, so REPL lines accumulate bindings.
	inRootScope bool

	startOnce sync.Once
	doneOnce  sync.Once
	doneCh    chan struct{}
	err       error
}

func (rt *Runtime) newExecution(desc string, source []byte) *Execution {
	return &Execution{
		rt:     rt,
		Desc:   desc,
		source: source,
		doneCh: make(chan struct{}),
	}
}

// Steps returns how many micro-steps this execution has performed.
func (x *Execution) Steps() int { return x.steps }

// Done is closed when the execution terminates, normally or by error.
func (x *Execution) Done() <-chan struct{} { return x.doneCh }

// Err returns the terminating error, if any, once Done is closed.
func (x *Execution) Err() error { return x.err }

// Start begins pumping the execution on the runtime's loop and returns
// immediately.
func (x *Execution) Start() {
	x.startOnce.Do(func() {
		x.rt.loop.Post(func() {
			x.run(x.finish)
		})
	})
}

// Wait pumps the execution to completion and returns its terminating error.
// An aborted execution reports runtime.ErrAborted.
func (x *Execution) Wait() error {
	x.Start()
	<-x.doneCh
	return x.err
}

// Abort cancels the promise the execution is currently parked on, which
// unwinds the abort sentinel through it on the next resumption. An execution
// that is not suspended is unaffected.
func (x *Execution) Abort() {
	if p := x.State.AwaitingPromise; p != nil {
		p.Abort()
	}
}

// run pumps frames until the stack drains, an error unwinds, or an await
// parks the execution. Parking chains the continuation off the promise's
// settlement; the loop is never busy-waited across an await.
func (x *Execution) run(onDone func(error)) {
	for {
		if x.State.Stack.Len() == 0 {
			onDone(nil)
			return
		}
		if err := x.Step(); err != nil {
			x.State.Stack = nil
			x.State.AwaitingPromise = nil
			onDone(err)
			return
		}
		if p := x.State.AwaitingPromise; p != nil {
			p.AddAwaiter(func() {
				x.rt.loop.Post(func() {
					x.run(onDone)
				})
			})
			return
		}
	}
}

func (x *Execution) finish(err error) {
	x.doneOnce.Do(func() {
		x.err = err
		close(x.doneCh)
	})
}

// Aborted reports whether err is the cooperative cancellation sentinel.
func Aborted(err error) bool {
	return errors.Is(err, runtime.ErrAborted)
}
