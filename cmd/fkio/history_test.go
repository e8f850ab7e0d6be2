package main

import (
	"path/filepath"
	"testing"
)

func TestHistoryAddAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := openHistory(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	for _, line := range []string{"let a = 1", "a + 1", "console.log(a)"} {
		if err := store.Add(line); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := store.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"let a = 1", "a + 1", "console.log(a)"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0] != "a + 1" || limited[1] != "console.log(a)" {
		t.Fatalf("limit must keep the most recent lines, got %v", limited)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"prelude":     "prelude",
		"my lib!":     "my-lib",
		"@scope/name": "scope-name",
	}
	for in, want := range cases {
		if got := sanitizeName(in); got != want {
			t.Fatalf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
