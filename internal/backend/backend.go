// Package backend provides an interface for different execution backends.
// This allows switching between the tree-walk interpreter and the JIT.
package backend

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/evaluator"
	"github.com/funvibe/exprjit/internal/pipeline"
	"github.com/funvibe/exprjit/internal/value"
)

// Backend is the interface for execution backends
type Backend interface {
	// Define registers a function definition in the active context.
	Define(def *ast.FunctionDef) error

	// Evaluate computes a top-level expression.
	Evaluate(expr ast.Expression) (*value.NodeValue, error)

	// Name returns the backend name for display
	Name() string
}

// New selects a backend by its configured name.
func New(name string, eval *evaluator.Evaluator, compiler *pipeline.Compiler) (Backend, error) {
	switch name {
	case config.BackendTreeWalk:
		return NewTreeWalk(eval), nil
	case config.BackendJIT, "":
		return NewJIT(eval, compiler), nil
	}
	return nil, diagnostics.New(diagnostics.LoweringError, "unknown backend %q", name)
}
