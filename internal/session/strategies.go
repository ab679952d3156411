package session

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
)

// strategy decides what the session does with one statement of a category.
type strategy func(s *Session, n ast.Node) error

var strategies map[ast.Category]strategy

func init() {
	strategies = map[ast.Category]strategy{
		ast.CategoryError:       processError,
		ast.CategoryExpression:  processExpression,
		ast.CategoryCall:        processExpression,
		ast.CategoryTopLevel:    processTopLevel,
		ast.CategoryAssignment:  processAssignment,
		ast.CategoryFunctionDef: processFunctionDef,
		ast.CategoryImport:      processImport,
	}
}

func processError(s *Session, n ast.Node) error {
	msg := "invalid statement"
	if e, ok := n.(*ast.Error); ok {
		msg = e.Message
	}
	return diagnostics.NewAt(diagnostics.SyntaxError, n.GetToken(), "%s", msg)
}

func processExpression(s *Session, n ast.Node) error {
	expr, ok := n.(ast.Expression)
	if !ok {
		return diagnostics.NewAt(diagnostics.SyntaxError, n.GetToken(), "%s is not an expression", n.Kind())
	}
	v, err := s.Backend.Evaluate(expr)
	if err != nil {
		return err
	}
	s.PrintResult(v)
	return nil
}

func processTopLevel(s *Session, n ast.Node) error {
	top, ok := n.(*ast.TopLevelExp)
	if !ok {
		return processExpression(s, n)
	}
	return processExpression(s, top.Expr)
}

// Assignments and declarations always run on the interpreter; they only
// touch context bindings.
func processAssignment(s *Session, n ast.Node) error {
	v, err := s.Eval.Eval(n)
	if err != nil {
		return err
	}
	switch n := n.(type) {
	case *ast.Declaration:
		s.announce("declared", n.Name)
	case *ast.DeclarationAssignment:
		s.announce("declared", n.Name)
	default:
		s.PrintResult(v)
	}
	return nil
}

func processFunctionDef(s *Session, n ast.Node) error {
	def := n.(*ast.FunctionDef)
	if err := s.Backend.Define(def); err != nil {
		return err
	}
	s.announce("defined", def.FunctionName())
	return nil
}

func processImport(s *Session, n ast.Node) error {
	imp := n.(*ast.Import)
	return s.Import(imp.Path, imp.Dir, imp)
}
