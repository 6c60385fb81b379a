package env_test

import (
	"testing"

	"github.com/emberlang/ember/internal/common/type/env"
	"github.com/emberlang/ember/internal/common/type/value"
)

func TestDefineAndGet(t *testing.T) {
	e := env.New(nil)

	e.Define("x", value.Num(1))

	v, ok := e.Get("x")
	if !ok || v.Num() != 1 {
		t.Error("expected x to be bound to 1")
	}

	if _, ok := e.Get("y"); ok {
		t.Error("expected y to be unbound")
	}
}

func TestAncestorWalk(t *testing.T) {
	root := env.New(nil)
	middle := env.New(root)
	leaf := env.New(middle)

	root.Define("x", value.Num(1))

	if _, ok := leaf.Get("x"); ok {
		t.Error("expected no chained lookup without a depth")
	}

	v, ok := leaf.GetAt(2, "x")
	if !ok || v.Num() != 1 {
		t.Error("expected x at depth 2")
	}
}

func TestSetRequiresBinding(t *testing.T) {
	e := env.New(nil)

	if e.Set("x", value.Num(1)) {
		t.Error("expected Set to refuse an absent binding")
	}

	e.Define("x", value.Num(1))

	if !e.Set("x", value.Num(2)) {
		t.Error("expected Set to replace an existing binding")
	}

	v, _ := e.Get("x")
	if v.Num() != 2 {
		t.Error("expected x to be 2")
	}
}

func TestDefineAtShadows(t *testing.T) {
	root := env.New(nil)
	leaf := env.New(root)

	root.Define("x", value.Num(1))
	leaf.DefineAt(0, "x", value.Num(2))

	v, _ := root.Get("x")
	if v.Num() != 1 {
		t.Error("expected the root binding to be untouched")
	}

	v, _ = leaf.Get("x")
	if v.Num() != 2 {
		t.Error("expected the leaf binding to shadow")
	}

	leaf.SetAt(1, "x", value.Num(3))

	v, _ = root.Get("x")
	if v.Num() != 3 {
		t.Error("expected SetAt to reach the root binding")
	}
}
