package session

import (
	"testing"

	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

func TestExecReturnsLastValue(t *testing.T) {
	for _, backendName := range backends {
		t.Run(backendName, func(t *testing.T) {
			s, out, _ := newSession(t, backendName)
			v, err := s.Exec("def sq(x) { return x * x; } sq(3); sq(4i)", "")
			if err != nil {
				t.Fatal(err)
			}
			if v == nil || v.Tag() != value.Int || v.AsInt64() != 16 {
				t.Fatalf("got %v, want int 16", v)
			}
			if out.String() != "defined sq\n" {
				t.Errorf("top-level results must not be printed, got %q", out.String())
			}

			v, err = s.Exec("declare z = 1", "")
			if err != nil || v != nil {
				t.Errorf("got (%v, %v), want (nil, nil)", v, err)
			}
		})
	}
}

func TestExecStopsAtFirstError(t *testing.T) {
	s, _, errOut := newSession(t, config.BackendJIT)
	_, err := s.Exec("declare a = 1; a = missing; declare b = 2", "script.xj")
	if !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Fatalf("got %v, want ReferenceError", err)
	}
	d := diagnostics.Wrap(diagnostics.ReferenceError, err)
	if d.File != "script.xj" {
		t.Errorf("error file = %q", d.File)
	}
	if _, ok := s.Stack.Root().GetVariable("b"); ok {
		t.Error("statements after the failure must not run")
	}
	if errOut.Len() != 0 {
		t.Errorf("Exec must not report, stderr %q", errOut.String())
	}
}

func TestCall(t *testing.T) {
	for _, backendName := range backends {
		t.Run(backendName, func(t *testing.T) {
			s, _, _ := newSession(t, backendName)
			if err := s.Run(`def greet(n, suffix = "!") { return "hi " + n + suffix; } def add(a, b) { return a + b; }`, ""); err != nil {
				t.Fatal(err)
			}

			v, err := s.Call("add", value.NewInt(2), value.NewDouble(0.5))
			if err != nil {
				t.Fatal(err)
			}
			if v.Tag() != value.Double || v.AsFloat64() != 2.5 {
				t.Errorf("add = %v, want double 2.5", v)
			}

			v, err = s.Call("greet", value.NewString("bob"))
			if err != nil {
				t.Fatal(err)
			}
			if str, _ := v.AsString(); str != "hi bob!" {
				t.Errorf("greet = %q", str)
			}

			if _, err := s.Call("add", value.NewInt(1)); !diagnostics.Is(err, diagnostics.ArityError) {
				t.Errorf("got %v, want ArityError", err)
			}
			if _, err := s.Call("nope"); !diagnostics.Is(err, diagnostics.ReferenceError) {
				t.Errorf("got %v, want ReferenceError", err)
			}
			if _, err := s.Call("add", value.VoidValue, value.NewInt(1)); !diagnostics.Is(err, diagnostics.TypeError) {
				t.Errorf("got %v, want TypeError", err)
			}
			if s.Stack.Len() != 1 {
				t.Errorf("stack depth %d after failed calls", s.Stack.Len())
			}
		})
	}
}

func TestErrorPositionsAgree(t *testing.T) {
	tests := []struct {
		input     string
		kind      diagnostics.Kind
		line, col int
	}{
		{"def v() { declare k; return k; } v()", diagnostics.ReferenceError, 1, 29},
		{"def d(x) {\n  return 10 / x;\n}\nd(0)", diagnostics.TypeError, 2, 13},
		{"def u(a) { return a - \"s\"; }\nu(1)", diagnostics.TypeError, 1, 21},
		{"def n(a) { return -a; }\nn(\"s\")", diagnostics.TypeError, 1, 19},
	}
	for _, tt := range tests {
		for _, backendName := range backends {
			t.Run(backendName+"/"+tt.input, func(t *testing.T) {
				s, _, _ := newSession(t, backendName)
				err := s.Run(tt.input, "")
				if !diagnostics.Is(err, tt.kind) {
					t.Fatalf("got %v, want %s", err, tt.kind)
				}
				d := diagnostics.Wrap(tt.kind, err)
				if d.Line != tt.line || d.Column != tt.col {
					t.Errorf("position %d:%d, want %d:%d", d.Line, d.Column, tt.line, tt.col)
				}
			})
		}
	}
}
