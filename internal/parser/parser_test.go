package parser

import (
	"testing"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

func parse(t *testing.T, input string) (*ast.Program, *Parser, *symbols.Stack) {
	t.Helper()
	stack := symbols.NewStack(symbols.NewContext("global", nil))
	p := New(input, ast.NewBuilder(stack), ".")
	return p.ParseProgram(), p, stack
}

// show renders an expression fully parenthesised.
func show(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Number:
		return n.Value.String()
	case *ast.String:
		return n.Value.String()
	case *ast.Variable:
		return n.Name
	case *ast.UnaryExp:
		return "(" + n.Operator + show(n.Operand) + ")"
	case *ast.BinaryExp:
		return "(" + show(n.Left) + " " + n.Operator + " " + show(n.Right) + ")"
	case *ast.CallExp:
		s := n.Callee + "("
		for i, a := range n.Args {
			if i > 0 {
				s += ", "
			}
			s += show(a)
		}
		return s + ")"
	case *ast.TopLevelExp:
		return show(n.Expr)
	case *ast.Assignment:
		return n.Name + " = " + show(n.Value)
	case *ast.DeclarationAssignment:
		return "declare " + n.Name + " = " + show(n.Value)
	case *ast.Declaration:
		return "declare " + n.Name
	}
	return "?"
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a - b - c", "((a - b) - c)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-a * b", "((-a) * b)"},
		{"-2 ^ 2", "((-2) ^ 2)"},
		{"add(1, 2 * x) + f()", "(add(1, (2 * x)) + f())"},
		{`"ab" + "cd"`, `("ab" + "cd")`},
		{"a / b * c", "((a / b) * c)"},
	}
	for _, tt := range tests {
		prog, p, _ := parse(t, tt.input)
		if len(p.Errors()) > 0 {
			t.Errorf("%q: unexpected errors %v", tt.input, p.Errors())
			continue
		}
		if len(prog.Statements) != 1 {
			t.Errorf("%q: expected 1 statement, got %d", tt.input, len(prog.Statements))
			continue
		}
		if got := show(prog.Statements[0]); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestStatementKinds(t *testing.T) {
	prog, p, _ := parse(t, `declare x; x = 10; declare y = 2.5; x; import "lib.xj"; add(1, 2)`)
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected errors %v", p.Errors())
	}
	want := []ast.Kind{ast.KindDeclaration, ast.KindAssignment, ast.KindDeclarationAssignment,
		ast.KindTopLevelExp, ast.KindImport, ast.KindTopLevelExp}
	if len(prog.Statements) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(prog.Statements))
	}
	for i, k := range want {
		if prog.Statements[i].Kind() != k {
			t.Errorf("statement %d: got %s, want %s", i, prog.Statements[i].Kind(), k)
		}
	}
	dec := prog.Statements[2].(*ast.DeclarationAssignment)
	if dec.Value.(*ast.Number).Value.Tag() != value.Double {
		t.Errorf("2.5 should be a double literal")
	}
	if imp := prog.Statements[4].(*ast.Import); imp.Path != "lib.xj" || imp.Dir != "." {
		t.Errorf("unexpected import %+v", imp)
	}
}

func TestFunctionDefinition(t *testing.T) {
	prog, p, stack := parse(t, `def add(a, b = 1) { declare t = a; t = t + b; return t; }`)
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected errors %v", p.Errors())
	}
	fn, ok := prog.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", prog.Statements[0])
	}
	sig := fn.Signature
	if sig.Name != "add" || sig.Arity() != 2 || sig.Required() != 1 {
		t.Errorf("unexpected signature %+v", sig)
	}
	if len(fn.Body) != 2 || fn.Return == nil {
		t.Errorf("unexpected body %d statements, return %v", len(fn.Body), fn.Return)
	}
	if fn.Scope() != stack.Root() || fn.Own.Parent() != stack.Root() {
		t.Errorf("function contexts wired incorrectly")
	}
	if fn.Return.Scope() != fn.Own {
		t.Errorf("return expression must be built in the function context")
	}
	if stack.Current() != stack.Root() {
		t.Errorf("parser left a context pushed")
	}
}

func TestFunctionWithoutReturn(t *testing.T) {
	prog, p, _ := parse(t, "def noop() { }; def g(x) { x }")
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected errors %v", p.Errors())
	}
	if fn := prog.Statements[0].(*ast.FunctionDef); fn.Return != nil || len(fn.Body) != 0 {
		t.Errorf("noop should be empty")
	}
	if fn := prog.Statements[1].(*ast.FunctionDef); fn.Return != nil || len(fn.Body) != 1 {
		t.Errorf("g should have one body statement and no return")
	}
}

func TestErrorsRecover(t *testing.T) {
	tests := []string{
		"x = ;",
		"return 1;",
		"def f(a, a) { return a; }",
		"def f(a = 1, b) { return a; }",
		"def f() { return 1; 2 }",
		"def f() { x = ; y = 2; }",
		"300c",
		"(1 + 2",
		"declare",
		"import x",
		"def f() { return 1;",
	}
	for _, input := range tests {
		prog, p, stack := parse(t, input+"; 42")
		if len(p.Errors()) == 0 {
			t.Errorf("%q: expected a syntax error", input)
			continue
		}
		if prog.Statements[0].Kind() != ast.KindError {
			t.Errorf("%q: expected an Error node first, got %s", input, prog.Statements[0].Kind())
		}
		if stack.Current() != stack.Root() {
			t.Errorf("%q: parser left a context pushed", input)
		}
	}
}

func TestRecoveryContinuesAfterBadFunction(t *testing.T) {
	prog, _, _ := parse(t, "def f() { x = ; y = 2; }; 42")
	last := prog.Statements[len(prog.Statements)-1]
	if len(prog.Statements) != 2 || show(last) != "42" {
		t.Errorf("expected the statement after the bad definition to survive, got %d statements", len(prog.Statements))
	}
}
