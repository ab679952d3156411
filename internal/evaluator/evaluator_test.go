package evaluator

import (
	"testing"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/parser"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

type session struct {
	t     *testing.T
	stack *symbols.Stack
	b     *ast.Builder
	e     *Evaluator
}

func newSession(t *testing.T) *session {
	t.Helper()
	stack := symbols.NewStack(symbols.NewContext("global", nil))
	return &session{t: t, stack: stack, b: ast.NewBuilder(stack), e: New(stack)}
}

// run evaluates every statement of input and returns the last value.
func (s *session) run(input string) (*value.NodeValue, error) {
	s.t.Helper()
	p := parser.New(input, s.b, ".")
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		s.t.Fatalf("parse %q: %v", input, errs[0])
	}
	var last *value.NodeValue
	for _, stmt := range prog.Statements {
		v, err := s.e.Eval(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (s *session) mustRun(input string) *value.NodeValue {
	s.t.Helper()
	v, err := s.run(input)
	if err != nil {
		s.t.Fatalf("run %q: %v", input, err)
	}
	return v
}

func TestEvalExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  *value.NodeValue
	}{
		{"1 + 2 * 3", value.NewLong(7)},
		{"(1 + 2) * 3", value.NewLong(9)},
		{"7 / 2", value.NewLong(3)},
		{"7.0 / 2", value.NewDouble(3.5)},
		{"2 ^ 10", value.NewLong(1024)},
		{"-5 + 2", value.NewLong(-3)},
		{"1.5f + 1", value.NewDouble(2.5)},
		{"1.5f + 1i", value.NewFloat(2.5)},
		{"100c + 100c", value.NewChar(-56)},
		{"1s + 1i", value.NewInt(2)},
		{`"ab" + "cd"`, value.NewString("abcd")},
	}
	for _, tt := range tests {
		s := newSession(t)
		got := s.mustRun(tt.input)
		if !got.Equal(tt.want) {
			t.Errorf("%s = %s, want %s", tt.input, got.Inspect(), tt.want.Inspect())
		}
	}
}

func TestFunctionCalls(t *testing.T) {
	s := newSession(t)
	s.mustRun("def add(a, b) { return a + b; }")

	got := s.mustRun("add(2, 3)")
	if !got.Equal(value.NewLong(5)) {
		t.Errorf("add(2, 3) = %s, want 5 (long)", got.Inspect())
	}
	got = s.mustRun("add(2.5, 3)")
	if !got.Equal(value.NewDouble(5.5)) {
		t.Errorf("add(2.5, 3) = %s, want 5.5 (double)", got.Inspect())
	}
}

func TestDeclarationsAndAssignment(t *testing.T) {
	s := newSession(t)
	s.mustRun("declare x; x = 4;")
	got := s.mustRun("x * 2")
	if !got.Equal(value.NewLong(8)) {
		t.Errorf("x * 2 = %s, want 8", got.Inspect())
	}

	_, err := s.run("y = 10")
	if !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Errorf("assigning undeclared y: got %v, want ReferenceError", err)
	}
	if _, ok := s.stack.Root().GetVariable("y"); ok {
		t.Error("failed assignment created y")
	}

	_, err = s.run("declare z; z + 1")
	if !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Errorf("reading unassigned z: got %v, want ReferenceError", err)
	}

	_, err = s.run("declare x")
	if !diagnostics.Is(err, diagnostics.DefinitionError) {
		t.Errorf("redeclaring x: got %v, want DefinitionError", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup string
		input string
		kind  diagnostics.Kind
	}{
		{"redefinition", "def add(a, b) { return a + b; }", "def add(a) { return a; }", diagnostics.DefinitionError},
		{"string minus", "", `"ab" - "cd"`, diagnostics.TypeError},
		{"string and number", "", `"ab" + 1`, diagnostics.TypeError},
		{"division by zero", "", "1 / 0", diagnostics.TypeError},
		{"unknown function", "", "nope(1)", diagnostics.ReferenceError},
		{"unknown variable", "", "q + 1", diagnostics.ReferenceError},
		{"too many arguments", "def f(a) { return a; }", "f(1, 2)", diagnostics.ArityError},
		{"too few arguments", "def f(a, b = 1) { return a + b; }", "f()", diagnostics.ArityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			if tt.setup != "" {
				s.mustRun(tt.setup)
			}
			_, err := s.run(tt.input)
			if !diagnostics.Is(err, tt.kind) {
				t.Fatalf("%s: got %v, want %s", tt.input, err, tt.kind)
			}
		})
	}
}

func TestArityErrorEvaluatesNoArguments(t *testing.T) {
	s := newSession(t)
	s.mustRun("declare n = 0; def f(a) { return a; } def bump() { n = n + 1; return n; }")
	if _, err := s.run("f(bump(), bump())"); !diagnostics.Is(err, diagnostics.ArityError) {
		t.Fatalf("got %v, want ArityError", err)
	}
	n, _ := s.stack.Root().GetVariable("n")
	if !n.Equal(value.NewLong(0)) {
		t.Errorf("arguments were evaluated: n = %s", n.Inspect())
	}
}

func TestDefaultArguments(t *testing.T) {
	s := newSession(t)
	s.mustRun("def scale(x, k = 10) { return x * k; }")
	if got := s.mustRun("scale(2)"); !got.Equal(value.NewLong(20)) {
		t.Errorf("scale(2) = %s", got.Inspect())
	}
	if got := s.mustRun("scale(2, 3)"); !got.Equal(value.NewLong(6)) {
		t.Errorf("scale(2, 3) = %s", got.Inspect())
	}
}

func TestRecursion(t *testing.T) {
	s := newSession(t)
	s.mustRun("def pow2(n) { declare r = 1; r = r * 2 ^ n; return r; }")
	if got := s.mustRun("pow2(5)"); !got.Equal(value.NewLong(32)) {
		t.Errorf("pow2(5) = %s", got.Inspect())
	}

	// Without conditionals recursion never terminates; the depth guard stops it.
	s.e.MaxCallDepth = 50
	s.mustRun("def loop(n) { return loop(n + 1); }")
	if _, err := s.run("loop(0)"); !diagnostics.Is(err, diagnostics.RuntimeError) {
		t.Fatalf("unbounded recursion: got %v, want RuntimeError", err)
	}
}

func TestActivationIsolation(t *testing.T) {
	s := newSession(t)
	s.mustRun("declare a = 100; def f(a) { declare t = a * 2; return t; }")
	if got := s.mustRun("f(1) + f(2)"); !got.Equal(value.NewLong(6)) {
		t.Errorf("f(1) + f(2) = %s", got.Inspect())
	}
	if got := s.mustRun("a"); !got.Equal(value.NewLong(100)) {
		t.Errorf("global a changed to %s", got.Inspect())
	}
	if _, ok := s.stack.Root().GetVariable("t"); ok {
		t.Error("function local leaked into the global context")
	}
	if s.stack.Len() != 1 {
		t.Errorf("stack depth %d after calls, want 1", s.stack.Len())
	}
}

func TestVoidFunction(t *testing.T) {
	s := newSession(t)
	s.mustRun("declare g = 1; def set(v) { g = v; }")
	got := s.mustRun("set(5)")
	if got.Tag() != value.Void {
		t.Errorf("set(5) = %s, want void", got.Inspect())
	}
	if got := s.mustRun("g"); !got.Equal(value.NewLong(5)) {
		t.Errorf("g = %s", got.Inspect())
	}
}
