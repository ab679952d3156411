package pipeline

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/codegen"
	"github.com/funvibe/exprjit/internal/jit"
	"github.com/funvibe/exprjit/internal/value"
)

// PipelineContext carries one expression through the stages.
type PipelineContext struct {
	// Expr is the top-level expression being evaluated.
	Expr ast.Expression
	// Wrapper is the synthesized zero-argument function returning Expr.
	Wrapper *ast.FunctionDef
	Unit    *codegen.Unit
	Handle  jit.Handle
	Added   bool
	Symbol  *jit.Symbol
	Raw     jit.Raw
	Result  *value.NodeValue
	Err     error
}

func NewContext(expr ast.Expression) *PipelineContext {
	return &PipelineContext{Expr: expr}
}
