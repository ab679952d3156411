package ast

import (
	"github.com/funvibe/exprjit/internal/value"
)

// Number is a numeric literal, already boxed with its tag.
type Number struct {
	base
	Value *value.NodeValue
}

func (n *Number) expressionNode() {}

// String is a string literal.
type String struct {
	base
	Value *value.NodeValue
}

func (s *String) expressionNode() {}

// Variable reads a binding.
type Variable struct {
	base
	Name string
}

func (v *Variable) expressionNode() {}

// UnaryExp is a prefix operator application, e.g. -x.
type UnaryExp struct {
	base
	Operator string
	Operand  Expression
}

func (u *UnaryExp) expressionNode() {}

// BinaryExp is an infix operator application. Left is evaluated first.
type BinaryExp struct {
	base
	Operator string
	Left     Expression
	Right    Expression
}

func (b *BinaryExp) expressionNode() {}

// CallExp calls a function by name, or through Target when the callee was
// resolved at construction.
type CallExp struct {
	base
	Callee string
	Target *FunctionDef
	Args   []Expression
}

func (c *CallExp) expressionNode() {}

// TopLevelExp wraps an expression entered for immediate execution.
type TopLevelExp struct {
	base
	Expr Expression
}

func (t *TopLevelExp) expressionNode() {}

// Assignment updates the nearest existing binding: x = expr
type Assignment struct {
	base
	Name  string
	Value Expression
}

func (a *Assignment) expressionNode() {}

// DeclarationAssignment binds in the active context: declare x = expr
type DeclarationAssignment struct {
	base
	Name  string
	Value Expression
}

func (d *DeclarationAssignment) expressionNode() {}
