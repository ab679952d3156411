// Package walk is the single traversal over expression nodes shared by the
// interpreter and the code generator. Each supplies an Algebra that says what
// a node means in its value domain; the traversal fixes evaluation order.
package walk

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
)

// Algebra interprets nodes into values of type V.
type Algebra[V any] interface {
	Number(n *ast.Number) (V, error)
	String(n *ast.String) (V, error)
	Variable(n *ast.Variable) (V, error)
	Unary(n *ast.UnaryExp, operand V) (V, error)
	Binary(n *ast.BinaryExp, left, right V) (V, error)
	// Call decides when the arguments are produced; args evaluates them in
	// order and may be skipped entirely, e.g. on an arity mismatch.
	Call(n *ast.CallExp, args func() ([]V, error)) (V, error)
	Assign(n *ast.Assignment, v V) (V, error)
	DeclareAssign(n *ast.DeclarationAssignment, v V) (V, error)
	Declare(n *ast.Declaration) (V, error)
	// Statement handles nodes outside the expression range
	// (function definitions, imports, error nodes).
	Statement(n ast.Node) (V, error)
}

// Expr folds n with alg. Operands are produced strictly left to right and a
// failing operand stops the traversal before any dependent is processed.
func Expr[V any](alg Algebra[V], n ast.Node) (V, error) {
	var zero V
	switch n := n.(type) {
	case *ast.Number:
		return alg.Number(n)
	case *ast.String:
		return alg.String(n)
	case *ast.Variable:
		return alg.Variable(n)
	case *ast.UnaryExp:
		operand, err := Expr(alg, n.Operand)
		if err != nil {
			return zero, err
		}
		return alg.Unary(n, operand)
	case *ast.BinaryExp:
		left, err := Expr(alg, n.Left)
		if err != nil {
			return zero, err
		}
		right, err := Expr(alg, n.Right)
		if err != nil {
			return zero, err
		}
		return alg.Binary(n, left, right)
	case *ast.CallExp:
		return alg.Call(n, func() ([]V, error) { return List(alg, n.Args) })
	case *ast.TopLevelExp:
		return Expr(alg, n.Expr)
	case *ast.Assignment:
		v, err := Expr(alg, n.Value)
		if err != nil {
			return zero, err
		}
		return alg.Assign(n, v)
	case *ast.DeclarationAssignment:
		v, err := Expr(alg, n.Value)
		if err != nil {
			return zero, err
		}
		return alg.DeclareAssign(n, v)
	case *ast.Declaration:
		return alg.Declare(n)
	case *ast.FunctionDef, *ast.Import, *ast.Error:
		return alg.Statement(n)
	case nil:
		return zero, diagnostics.New(diagnostics.LoweringError, "missing operand")
	}
	return zero, diagnostics.New(diagnostics.LoweringError, "unknown node kind %s", n.Kind())
}

// List folds expressions in order, stopping at the first failure.
func List[V any](alg Algebra[V], exprs []ast.Expression) ([]V, error) {
	out := make([]V, 0, len(exprs))
	for _, e := range exprs {
		v, err := Expr(alg, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
