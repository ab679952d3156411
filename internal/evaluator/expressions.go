package evaluator

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

// interp is the value algebra of the tree walk.
type interp struct {
	e *Evaluator
}

func (a interp) Number(n *ast.Number) (*value.NodeValue, error) { return n.Value, nil }

func (a interp) String(n *ast.String) (*value.NodeValue, error) { return n.Value, nil }

func (a interp) Variable(n *ast.Variable) (*value.NodeValue, error) {
	v, ok := a.e.Current().GetVariable(n.Name)
	if !ok {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "%s not found", n.Name)
	}
	if v == nil {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "%s is declared but has no value", n.Name)
	}
	return v, nil
}

func (a interp) Unary(n *ast.UnaryExp, operand *value.NodeValue) (*value.NodeValue, error) {
	v, err := value.ApplyUnary(n.Operator, operand)
	return v, at(err, n)
}

func (a interp) Binary(n *ast.BinaryExp, left, right *value.NodeValue) (*value.NodeValue, error) {
	v, err := value.Apply(n.Operator, left, right)
	return v, at(err, n)
}

func (a interp) Assign(n *ast.Assignment, v *value.NodeValue) (*value.NodeValue, error) {
	if err := a.e.Current().UpdateVariable(n.Name, v); err != nil {
		return nil, at(err, n)
	}
	return v, nil
}

func (a interp) DeclareAssign(n *ast.DeclarationAssignment, v *value.NodeValue) (*value.NodeValue, error) {
	a.e.Current().StoreVariable(n.Name, v)
	return v, nil
}

func (a interp) Declare(n *ast.Declaration) (*value.NodeValue, error) {
	if err := a.e.Current().DeclareVariable(n.Name); err != nil {
		return nil, at(err, n)
	}
	return value.VoidValue, nil
}

func (a interp) Statement(n ast.Node) (*value.NodeValue, error) {
	switch n := n.(type) {
	case *ast.FunctionDef:
		if err := a.e.Define(n); err != nil {
			return nil, err
		}
		return value.VoidValue, nil
	case *ast.Error:
		return nil, diagnostics.NewAt(diagnostics.SyntaxError, n.GetToken(), "%s", n.Message)
	case *ast.Import:
		return nil, diagnostics.NewAt(diagnostics.ImportError, n.GetToken(), "import %q is only allowed at top level", n.Path)
	}
	return nil, diagnostics.NewAt(diagnostics.LoweringError, n.GetToken(), "cannot evaluate %s", n.Kind())
}
