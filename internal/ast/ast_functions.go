package ast

import (
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

// Param is one formal parameter; Default may be nil.
type Param struct {
	Name    string
	Default Expression
}

// FunctionSignature is computed once, at definition time.
type FunctionSignature struct {
	Name   string
	Params []Param
	// ReturnType is the tag inferred from the lowered return expression.
	// ReturnKnown is false until lowering infers it, or when the tag is
	// only known at run time.
	ReturnType  value.Tag
	ReturnKnown bool
}

// Arity is the number of declared parameters.
func (s *FunctionSignature) Arity() int { return len(s.Params) }

// Required counts the leading parameters without a default.
func (s *FunctionSignature) Required() int {
	n := 0
	for _, p := range s.Params {
		if p.Default != nil {
			break
		}
		n++
	}
	return n
}

// CheckArity validates an argument count against the signature.
func (s *FunctionSignature) CheckArity(n int) error {
	req, max := s.Required(), s.Arity()
	if n >= req && n <= max {
		return nil
	}
	if req == max {
		return diagnostics.New(diagnostics.ArityError, "%s expects %d arguments, got %d", s.Name, max, n)
	}
	return diagnostics.New(diagnostics.ArityError, "%s expects %d to %d arguments, got %d", s.Name, req, max, n)
}

// FunctionDef owns its signature, body statements and optional return
// expression. Scope is the context active at the definition site; Own is the
// nested context its body resolves names against.
type FunctionDef struct {
	base
	Signature *FunctionSignature
	Body      []Node
	Return    Expression
	Own       *symbols.Context
}

// FunctionName implements symbols.Function.
func (f *FunctionDef) FunctionName() string { return f.Signature.Name }
