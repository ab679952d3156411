package evaluator

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

// Define registers fn in the active context, which is the scope the
// definition appears in (not the function's own nested scope), so later
// statements and the body itself can call it by name.
func (e *Evaluator) Define(fn *ast.FunctionDef) error {
	ctx := e.Current()
	name := fn.FunctionName()
	if ctx.HasLocalFunction(name) {
		return diagnostics.NewAt(diagnostics.DefinitionError, fn.GetToken(), "function %s is already defined", name)
	}
	ctx.StoreFunction(name, fn)
	return nil
}

// Resolve finds the callee of a call expression.
func (e *Evaluator) Resolve(n *ast.CallExp) (*ast.FunctionDef, error) {
	if n.Target != nil {
		return n.Target, nil
	}
	f, ok := e.Current().GetFunction(n.Callee)
	if !ok {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "unknown function %s", n.Callee)
	}
	fn, ok := f.(*ast.FunctionDef)
	if !ok {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "%s is not callable", n.Callee)
	}
	return fn, nil
}

func (a interp) Call(n *ast.CallExp, args func() ([]*value.NodeValue, error)) (*value.NodeValue, error) {
	fn, err := a.e.Resolve(n)
	if err != nil {
		return nil, err
	}
	if err := fn.Signature.CheckArity(len(n.Args)); err != nil {
		return nil, at(err, n)
	}
	// Arguments are evaluated in the caller's context before anything is bound.
	vals, err := args()
	if err != nil {
		return nil, err
	}
	v, err := a.e.Invoke(fn, vals)
	return v, at(err, n)
}

// Invoke runs fn with already evaluated arguments. Each call binds its
// arguments in a fresh activation context whose parent is the function's own
// context. Omitted parameters take their defaults, evaluated in that
// activation context. A function without a return expression yields the void value.
func (e *Evaluator) Invoke(fn *ast.FunctionDef, args []*value.NodeValue) (*value.NodeValue, error) {
	sig := fn.Signature
	if err := sig.CheckArity(len(args)); err != nil {
		return nil, err
	}
	if e.MaxCallDepth > 0 && e.depth >= e.MaxCallDepth {
		return nil, diagnostics.New(diagnostics.RuntimeError, "maximum call depth %d exceeded in %s", e.MaxCallDepth, sig.Name)
	}
	e.depth++
	defer func() { e.depth-- }()

	activation := symbols.NewContext(sig.Name, fn.Own)
	for i, v := range args {
		activation.StoreVariable(sig.Params[i].Name, v)
	}

	var result *value.NodeValue
	err := e.Stack.With(activation, func() error {
		for _, p := range sig.Params[len(args):] {
			v, err := e.Eval(p.Default)
			if err != nil {
				return err
			}
			activation.StoreVariable(p.Name, v)
		}
		if err := e.Exec(fn.Body); err != nil {
			return err
		}
		if fn.Return == nil {
			result = value.VoidValue
			return nil
		}
		v, err := e.Eval(fn.Return)
		result = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
