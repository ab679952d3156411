// Package evaluator implements the interpretive path: a direct tree walk
// over the AST producing boxed values.
package evaluator

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
	"github.com/funvibe/exprjit/internal/walk"
)

// DefaultMaxCallDepth bounds nested interpreted calls.
const DefaultMaxCallDepth = 4096

type Evaluator struct {
	// Stack is the active context stack shared with the session.
	Stack *symbols.Stack
	// MaxCallDepth bounds recursion; exceeding it is a RuntimeError.
	MaxCallDepth int

	depth int
}

func New(stack *symbols.Stack) *Evaluator {
	return &Evaluator{Stack: stack, MaxCallDepth: DefaultMaxCallDepth}
}

// Eval evaluates an expression or declaration in the active context.
// Function definitions are registered and yield the void value.
func (e *Evaluator) Eval(n ast.Node) (*value.NodeValue, error) {
	return walk.Expr[*value.NodeValue](interp{e}, n)
}

// Exec evaluates statements in order for effect.
func (e *Evaluator) Exec(stmts []ast.Node) error {
	for _, stmt := range stmts {
		if _, err := e.Eval(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Current is the innermost active context.
func (e *Evaluator) Current() *symbols.Context {
	return e.Stack.Current()
}

// at attaches the node position to a diagnostics error that has none.
func at(err error, n ast.Node) error {
	if err == nil || n == nil {
		return err
	}
	d := diagnostics.Wrap(diagnostics.RuntimeError, err)
	if d.Line == 0 {
		tok := n.GetToken()
		d.Line, d.Column = tok.Line, tok.Column
	}
	return d
}
