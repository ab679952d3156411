package symbols

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

type fakeFunc string

func (f fakeFunc) FunctionName() string { return string(f) }

func TestDeclareTwiceFails(t *testing.T) {
	root := NewContext("global", nil)
	if err := root.DeclareVariable("x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := root.DeclareVariable("x")
	if !diagnostics.Is(err, diagnostics.DefinitionError) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
}

func TestShadowingInChild(t *testing.T) {
	root := NewContext("global", nil)
	root.StoreVariable("x", value.NewLong(1))
	child := NewContext("f", root)
	if err := child.DeclareVariable("x"); err != nil {
		t.Fatalf("shadowing must be allowed: %v", err)
	}
	if err := child.UpdateVariable("x", value.NewLong(2)); err != nil {
		t.Fatal(err)
	}
	v, _ := root.GetVariable("x")
	if v.AsInt64() != 1 {
		t.Errorf("parent binding changed: %s", v)
	}
	v, _ = child.GetVariable("x")
	if v.AsInt64() != 2 {
		t.Errorf("child binding not updated: %s", v)
	}
}

func TestUpdateWalksChain(t *testing.T) {
	root := NewContext("global", nil)
	if err := root.DeclareVariable("x"); err != nil {
		t.Fatal(err)
	}
	child := NewContext("f", NewContext("g", root))
	if err := child.UpdateVariable("x", value.NewLong(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if child.HasLocalVariable("x") {
		t.Errorf("update must not create a local binding")
	}
	v, ok := root.GetVariable("x")
	if !ok || v.AsInt64() != 10 {
		t.Errorf("expected 10 in root, got %v", v)
	}
}

func TestUpdateUndeclared(t *testing.T) {
	root := NewContext("global", nil)
	err := NewContext("f", root).UpdateVariable("y", value.NewLong(10))
	if !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if _, ok := root.GetVariable("y"); ok {
		t.Errorf("failed update created a binding")
	}
	if err := root.UpdateStorageHandle("y", nil); !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Errorf("expected ReferenceError for storage, got %v", err)
	}
}

func TestFunctionsAndStorage(t *testing.T) {
	root := NewContext("global", nil)
	root.StoreFunction("add", fakeFunc("add"))
	child := NewContext("add", root)
	fn, ok := child.GetFunction("add")
	if !ok || fn.FunctionName() != "add" {
		t.Fatalf("function lookup through chain failed")
	}
	if _, ok := child.GetFunction("sub"); ok {
		t.Errorf("unexpected function")
	}

	h1 := constant.NewInt(types.I64, 1)
	h2 := constant.NewInt(types.I64, 2)
	root.StoreStorageHandle("a", h1)
	if err := child.UpdateStorageHandle("a", h2); err != nil {
		t.Fatal(err)
	}
	got, ok := root.GetStorageHandle("a")
	if !ok || got != h2 {
		t.Errorf("storage handle not updated")
	}

	if child.RemoveFunction("add") {
		t.Errorf("remove must only act locally")
	}
	if !root.RemoveFunction("add") || root.RemoveFunction("add") {
		t.Errorf("unexpected remove result")
	}
	if !root.RemoveStorageHandle("a") {
		t.Errorf("expected storage handle removal")
	}
	root.StoreVariable("v", nil)
	if !root.RemoveVariable("v") || root.RemoveVariable("v") {
		t.Errorf("unexpected variable remove result")
	}
}

func TestStack(t *testing.T) {
	root := NewContext("global", nil)
	s := NewStack(root)
	f := NewContext("f", root)
	err := s.With(f, func() error {
		if s.Current() != f || s.Len() != 2 {
			t.Errorf("push did not activate f")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Current() != root {
		t.Errorf("With must pop")
	}
	if s.Pop() != nil || s.Len() != 1 {
		t.Errorf("root must never be popped")
	}
	s.Push(f)
	s.Push(NewContext("g", f))
	s.Reset()
	if s.Current() != root {
		t.Errorf("Reset must return to root")
	}
	if f.Depth() != 1 || !root.IsRoot() {
		t.Errorf("unexpected depth")
	}
}
