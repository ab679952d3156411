package walk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/token"
)

// render folds nodes back into text and records the visit order.
type render struct {
	visited []string
	failOn  string
}

func (r *render) visit(s string) (string, error) {
	r.visited = append(r.visited, s)
	if s == r.failOn {
		return "", diagnostics.New(diagnostics.ReferenceError, "%s not found", s)
	}
	return s, nil
}

func (r *render) Number(n *ast.Number) (string, error)     { return r.visit(n.Value.String()) }
func (r *render) String(n *ast.String) (string, error)     { return r.visit(n.Value.String()) }
func (r *render) Variable(n *ast.Variable) (string, error) { return r.visit(n.Name) }
func (r *render) Unary(n *ast.UnaryExp, v string) (string, error) {
	return r.visit(n.Operator + v)
}
func (r *render) Binary(n *ast.BinaryExp, l, rv string) (string, error) {
	return r.visit("(" + l + n.Operator + rv + ")")
}
func (r *render) Call(n *ast.CallExp, args func() ([]string, error)) (string, error) {
	vs, err := args()
	if err != nil {
		return "", err
	}
	return r.visit(n.Callee + "(" + strings.Join(vs, ",") + ")")
}
func (r *render) Assign(n *ast.Assignment, v string) (string, error) {
	return r.visit(n.Name + "=" + v)
}
func (r *render) DeclareAssign(n *ast.DeclarationAssignment, v string) (string, error) {
	return r.visit("declare " + n.Name + "=" + v)
}
func (r *render) Declare(n *ast.Declaration) (string, error) { return r.visit("declare " + n.Name) }
func (r *render) Statement(n ast.Node) (string, error) {
	return "", fmt.Errorf("statement %s", n.Kind())
}

func build() (*ast.Builder, token.Token) {
	return ast.NewBuilder(symbols.NewStack(symbols.NewContext("global", nil))), token.Token{}
}

func TestExprOrder(t *testing.T) {
	b, tok := build()
	e := b.TopLevel(b.Binary(tok, "*",
		b.Binary(tok, "+", b.Variable(tok, "a"), b.Variable(tok, "b")),
		b.Call(tok, "f", []ast.Expression{b.Variable(tok, "c"), b.Unary(tok, "-", b.Variable(tok, "d"))})))

	r := &render{}
	got, err := Expr[string](r, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "((a+b)*f(c,-d))" {
		t.Errorf("unexpected rendering %q", got)
	}
	want := []string{"a", "b", "(a+b)", "c", "d", "-d", "f(c,-d)", "((a+b)*f(c,-d))"}
	if strings.Join(r.visited, " ") != strings.Join(want, " ") {
		t.Errorf("visit order %v; want %v", r.visited, want)
	}
}

func TestExprStopsOnFailure(t *testing.T) {
	b, tok := build()
	e := b.Assign(tok, "x", b.Binary(tok, "+", b.Variable(tok, "a"), b.Variable(tok, "b")))
	r := &render{failOn: "a"}
	_, err := Expr[string](r, e)
	if !diagnostics.Is(err, diagnostics.ReferenceError) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if len(r.visited) != 1 {
		t.Errorf("dependents were processed after a failure: %v", r.visited)
	}
}

func TestExprStatementsAndNil(t *testing.T) {
	b, tok := build()
	r := &render{}
	if _, err := Expr[string](r, b.Import(tok, "x.xj", ".")); err == nil || !strings.Contains(err.Error(), "Import") {
		t.Errorf("expected Statement to handle imports, got %v", err)
	}
	if _, err := Expr[string](r, b.Unary(tok, "-", nil)); !diagnostics.Is(err, diagnostics.LoweringError) {
		t.Errorf("expected LoweringError for a missing operand, got %v", err)
	}
	got, err := Expr[string](r, b.DeclareAssign(tok, "y", b.String(tok, "s")))
	if err != nil || got != `declare y="s"` {
		t.Errorf("unexpected %q, %v", got, err)
	}
}
