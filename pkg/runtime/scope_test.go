package runtime

import (
	"errors"
	"testing"
)

func TestScopeChainLookup(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", Number(1))
	child := NewScope(root)
	grandchild := NewScope(child)

	v, err := grandchild.Get("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num, ok := v.(NumberValue); !ok || num.Val != 1 {
		t.Fatalf("expected 1, got %#v", v)
	}
}

func TestScopeShadowing(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", Number(1))
	child := NewScope(root)
	child.Declare("x", Number(2))

	v, err := child.Get("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num := v.(NumberValue); num.Val != 2 {
		t.Fatalf("expected shadowed value 2, got %v", num.Val)
	}

	v, err = root.Get("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num := v.(NumberValue); num.Val != 1 {
		t.Fatalf("expected outer value 1, got %v", num.Val)
	}
}

func TestScopeUndefinedIdentifier(t *testing.T) {
	s := NewScope(nil)
	_, err := s.Get("missing")
	var undefErr *UndefinedIdentifierError
	if !errors.As(err, &undefErr) {
		t.Fatalf("expected UndefinedIdentifierError, got %v", err)
	}
	if undefErr.Name != "missing" {
		t.Fatalf("expected name %q, got %q", "missing", undefErr.Name)
	}
}

func TestScopeUninitializedRead(t *testing.T) {
	s := NewScope(nil)
	s.Declare("a", Uninitialized)
	_, err := s.Get("a")
	var tdzErr *UninitializedReadError
	if !errors.As(err, &tdzErr) {
		t.Fatalf("expected UninitializedReadError, got %v", err)
	}
	if tdzErr.Name != "a" {
		t.Fatalf("expected name %q, got %q", "a", tdzErr.Name)
	}
}

func TestScopeOwnerTargetsDefiningScope(t *testing.T) {
	root := NewScope(nil)
	root.Declare("s", Number(0))
	inner := NewScope(NewScope(root))

	owner := inner.Owner("s")
	if owner != root {
		t.Fatalf("expected owner to be the root scope")
	}
	owner.Declare("s", Number(5))

	v, err := inner.Get("s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num := v.(NumberValue); num.Val != 5 {
		t.Fatalf("expected write through owner to be visible, got %v", num.Val)
	}
}

func TestScopeCopyOwn(t *testing.T) {
	init := NewScope(nil)
	init.Declare("i", Number(3))
	iter := NewScope(init)
	init.CopyOwn(iter)

	iter.Declare("i", Number(4))
	v, _ := init.Get("i")
	if num := v.(NumberValue); num.Val != 3 {
		t.Fatalf("iteration copy must not alias the init binding, got %v", num.Val)
	}
}
