package backend

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/evaluator"
	"github.com/funvibe/exprjit/internal/pipeline"
	"github.com/funvibe/exprjit/internal/value"
)

// JITBackend compiles definitions into resident units and runs top-level
// expressions through the compile-and-invoke pipeline. Definitions are
// also registered with the interpreter so assignments and declarations,
// which are interpreted, can call them.
type JITBackend struct {
	eval     *evaluator.Evaluator
	compiler *pipeline.Compiler
}

// NewJIT creates a new JIT backend
func NewJIT(eval *evaluator.Evaluator, compiler *pipeline.Compiler) *JITBackend {
	return &JITBackend{eval: eval, compiler: compiler}
}

// Define rejects a name already defined in the active context before any
// code is emitted, then compiles and registers the function.
func (b *JITBackend) Define(def *ast.FunctionDef) error {
	name := def.FunctionName()
	if name == config.AnonFuncName {
		return diagnostics.NewAt(diagnostics.DefinitionError, def.GetToken(), "%s is a reserved name", name)
	}
	if b.eval.Current().HasLocalFunction(name) {
		return diagnostics.NewAt(diagnostics.DefinitionError, def.GetToken(), "function %s is already defined", name)
	}
	if _, err := b.compiler.Define(def); err != nil {
		return err
	}
	return b.eval.Define(def)
}

func (b *JITBackend) Evaluate(expr ast.Expression) (*value.NodeValue, error) {
	return b.compiler.Evaluate(expr)
}

func (b *JITBackend) Name() string {
	return config.BackendJIT
}
