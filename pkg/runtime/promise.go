package runtime

import (
	"errors"
	"sync"
)

// ErrAborted is the sentinel carried by a cancelled await. It is distinct
// from every error a guest program can construct, so cancellation-aware
// callers can recognize and swallow it.
var ErrAborted = errors.New("execution aborted")

// PromiseStatus is the externally observable settle state.
type PromiseStatus int

const (
	PromisePending PromiseStatus = iota
	PromiseFulfilled
	PromiseRejected
	PromiseAborted
)

func (s PromiseStatus) String() string {
	switch s {
	case PromisePending:
		return "pending"
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	case PromiseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// PromiseValue is a promise whose settle state is observable as data and
// which can be externally cancelled. Transitions are monotone:
// Pending → Fulfilled | Rejected | Aborted; every settle path on an already
// settled promise is a no-op. The evaluator polls Status in its await step
// instead of re-subscribing callbacks in the hot path.
type PromiseValue struct {
	mu       sync.Mutex
	status   PromiseStatus
	value    Value
	reason   error
	done     *sync.Cond
	awaiters []func()
}

func NewPromise() *PromiseValue {
	p := &PromiseValue{}
	p.done = sync.NewCond(&p.mu)
	return p
}

func (*PromiseValue) Kind() Kind { return KindPromise }

// IsObservable is the type guard for values carrying the live settle state.
func IsObservable(v Value) bool {
	_, ok := v.(*PromiseValue)
	return ok
}

func (p *PromiseValue) Status() PromiseStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Snapshot returns the settled value, the failure reason, and the status.
func (p *PromiseValue) Snapshot() (Value, error, PromiseStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.reason, p.status
}

// AddAwaiter registers cb to run once the promise settles. A callback added
// after settlement fires immediately on the caller's goroutine.
func (p *PromiseValue) AddAwaiter(cb func()) {
	if cb == nil {
		return
	}
	p.mu.Lock()
	if p.status != PromisePending {
		p.mu.Unlock()
		cb()
		return
	}
	p.awaiters = append(p.awaiters, cb)
	p.mu.Unlock()
}

// Resolve fulfills the promise. Resolving with another promise adopts its
// eventual state instead of fulfilling with the promise itself.
func (p *PromiseValue) Resolve(v Value) {
	if inner, ok := v.(*PromiseValue); ok && inner != p {
		inner.AddAwaiter(func() {
			val, reason, status := inner.Snapshot()
			switch status {
			case PromiseFulfilled:
				p.Resolve(val)
			case PromiseAborted:
				p.Abort()
			default:
				p.Reject(reason)
			}
		})
		return
	}
	p.settle(PromiseFulfilled, v, nil)
}

// Reject settles the promise with a failure reason.
func (p *PromiseValue) Reject(reason error) {
	if reason == nil {
		reason = ErrorValue{Message: "promise rejected"}
	}
	if errors.Is(reason, ErrAborted) {
		p.settle(PromiseAborted, nil, ErrAborted)
		return
	}
	p.settle(PromiseRejected, nil, reason)
}

// Abort fires cancellation: the promise rejects with the abort sentinel and
// lands in the Aborted terminal state. Aborting a settled promise is a no-op.
func (p *PromiseValue) Abort() {
	p.settle(PromiseAborted, nil, ErrAborted)
}

func (p *PromiseValue) settle(status PromiseStatus, v Value, reason error) {
	var awaiters []func()
	p.mu.Lock()
	if p.status == PromisePending {
		p.status = status
		p.value = v
		p.reason = reason
		awaiters = p.awaiters
		p.awaiters = nil
		p.done.Broadcast()
	}
	p.mu.Unlock()
	for _, cb := range awaiters {
		cb()
	}
}

// Await blocks the calling goroutine until the promise settles. This is a
// host convenience; guest awaits never block, they park their execution.
func (p *PromiseValue) Await() (Value, error) {
	p.mu.Lock()
	for p.status == PromisePending {
		p.done.Wait()
	}
	v, reason := p.value, p.reason
	p.mu.Unlock()
	if reason != nil {
		return nil, reason
	}
	return v, nil
}

// Fulfilled returns an already fulfilled promise.
func Fulfilled(v Value) *PromiseValue {
	p := NewPromise()
	p.Resolve(v)
	return p
}
