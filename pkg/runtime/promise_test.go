package runtime

import (
	"errors"
	"testing"
	"time"
)

func TestPromiseResolve(t *testing.T) {
	p := NewPromise()
	if p.Status() != PromisePending {
		t.Fatalf("expected pending, got %v", p.Status())
	}
	p.Resolve(Number(42))
	v, err := p.Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num := v.(NumberValue); num.Val != 42 {
		t.Fatalf("expected 42, got %v", num.Val)
	}
	if p.Status() != PromiseFulfilled {
		t.Fatalf("expected fulfilled, got %v", p.Status())
	}
}

func TestPromiseSettleIsMonotone(t *testing.T) {
	p := NewPromise()
	p.Resolve(Number(1))
	p.Reject(ErrorValue{Message: "late"})
	p.Abort()
	if p.Status() != PromiseFulfilled {
		t.Fatalf("settled promise must not transition again, got %v", p.Status())
	}
}

func TestPromiseAbort(t *testing.T) {
	p := NewPromise()
	p.Abort()
	if p.Status() != PromiseAborted {
		t.Fatalf("expected aborted, got %v", p.Status())
	}
	_, err := p.Await()
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected abort sentinel, got %v", err)
	}
	// Idempotent on a settled promise.
	p.Abort()
	if p.Status() != PromiseAborted {
		t.Fatalf("second abort changed status to %v", p.Status())
	}
}

func TestPromiseRejectWithAbortSentinelLandsAborted(t *testing.T) {
	p := NewPromise()
	p.Reject(ErrAborted)
	if p.Status() != PromiseAborted {
		t.Fatalf("expected aborted, got %v", p.Status())
	}
}

func TestPromiseAwaiterAfterSettleFiresImmediately(t *testing.T) {
	p := NewPromise()
	p.Resolve(Undefined)
	fired := false
	p.AddAwaiter(func() { fired = true })
	if !fired {
		t.Fatalf("awaiter added after settlement must fire immediately")
	}
}

func TestPromiseAwaiterOnSettle(t *testing.T) {
	p := NewPromise()
	done := make(chan struct{})
	p.AddAwaiter(func() { close(done) })
	go p.Resolve(Number(1))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("awaiter did not fire")
	}
}

func TestPromiseResolveAdoptsPromise(t *testing.T) {
	inner := NewPromise()
	outer := NewPromise()
	outer.Resolve(inner)
	if outer.Status() != PromisePending {
		t.Fatalf("outer must stay pending until inner settles")
	}
	inner.Resolve(String("done"))
	v, err := outer.Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := v.(StringValue); s.Val != "done" {
		t.Fatalf("expected adoption of inner value, got %#v", v)
	}
}

func TestIsObservable(t *testing.T) {
	if !IsObservable(NewPromise()) {
		t.Fatalf("promise must be observable")
	}
	if IsObservable(Number(1)) || IsObservable(NewObject()) {
		t.Fatalf("plain values must not be observable")
	}
}
