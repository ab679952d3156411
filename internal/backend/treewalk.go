package backend

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/evaluator"
	"github.com/funvibe/exprjit/internal/value"
)

// TreeWalkBackend wraps the tree-walk interpreter
type TreeWalkBackend struct {
	eval *evaluator.Evaluator
}

// NewTreeWalk creates a new tree-walk backend
func NewTreeWalk(eval *evaluator.Evaluator) *TreeWalkBackend {
	return &TreeWalkBackend{eval: eval}
}

func (b *TreeWalkBackend) Define(def *ast.FunctionDef) error {
	return b.eval.Define(def)
}

// Evaluate walks expr in the active context.
func (b *TreeWalkBackend) Evaluate(expr ast.Expression) (*value.NodeValue, error) {
	return b.eval.Eval(expr)
}

func (b *TreeWalkBackend) Name() string {
	return config.BackendTreeWalk
}
