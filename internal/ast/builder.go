package ast

import (
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/token"
	"github.com/funvibe/exprjit/internal/value"
)

// Builder is the factory the parser uses to construct nodes. It tracks the
// active context stack so every node records the context it was built in,
// and function bodies are built inside their own nested context.
type Builder struct {
	stack *symbols.Stack
}

func NewBuilder(stack *symbols.Stack) *Builder {
	return &Builder{stack: stack}
}

func (b *Builder) scope() *symbols.Context { return b.stack.Current() }

func (b *Builder) Error(tok token.Token, msg string) *Error {
	return &Error{base: newBase(KindError, b.scope(), tok), Message: msg}
}

// Number parses literal text; malformed text yields an Error node.
func (b *Builder) Number(tok token.Token, text string) Node {
	v, err := value.ParseNumber(text)
	if err != nil {
		return b.Error(tok, err.Error())
	}
	return &Number{base: newBase(KindNumber, b.scope(), tok), Value: v}
}

// NumberValue builds a literal from an already boxed value.
func (b *Builder) NumberValue(tok token.Token, v *value.NodeValue) *Number {
	return &Number{base: newBase(KindNumber, b.scope(), tok), Value: v}
}

func (b *Builder) String(tok token.Token, s string) *String {
	return &String{base: newBase(KindString, b.scope(), tok), Value: value.NewString(s)}
}

func (b *Builder) Variable(tok token.Token, name string) *Variable {
	return &Variable{base: newBase(KindVariable, b.scope(), tok), Name: name}
}

func (b *Builder) Unary(tok token.Token, op string, operand Expression) *UnaryExp {
	return &UnaryExp{base: newBase(KindUnaryExp, b.scope(), tok), Operator: op, Operand: operand}
}

func (b *Builder) Binary(tok token.Token, op string, left, right Expression) *BinaryExp {
	return &BinaryExp{base: newBase(KindBinaryExp, b.scope(), tok), Operator: op, Left: left, Right: right}
}

func (b *Builder) Call(tok token.Token, callee string, args []Expression) *CallExp {
	return &CallExp{base: newBase(KindCallExp, b.scope(), tok), Callee: callee, Args: args}
}

// CallTo builds a call bound directly to an already resolved definition.
func (b *Builder) CallTo(tok token.Token, fn *FunctionDef, args []Expression) *CallExp {
	c := b.Call(tok, fn.FunctionName(), args)
	c.Target = fn
	return c
}

func (b *Builder) Assign(tok token.Token, name string, v Expression) *Assignment {
	return &Assignment{base: newBase(KindAssignment, b.scope(), tok), Name: name, Value: v}
}

func (b *Builder) DeclareAssign(tok token.Token, name string, v Expression) *DeclarationAssignment {
	return &DeclarationAssignment{base: newBase(KindDeclarationAssignment, b.scope(), tok), Name: name, Value: v}
}

func (b *Builder) Declare(tok token.Token, name string) *Declaration {
	return &Declaration{base: newBase(KindDeclaration, b.scope(), tok), Name: name}
}

func (b *Builder) TopLevel(expr Expression) *TopLevelExp {
	return &TopLevelExp{base: newBase(KindTopLevelExp, b.scope(), expr.GetToken()), Expr: expr}
}

func (b *Builder) Import(tok token.Token, path, dir string) *Import {
	return &Import{base: newBase(KindImport, b.scope(), tok), Path: path, Dir: dir}
}

// FunctionScope is an open function definition: its nested context is
// active until EndFunction or AbortFunction.
type FunctionScope struct {
	tok   token.Token
	name  string
	outer *symbols.Context
	own   *symbols.Context
}

// BeginFunction pushes the function's own context, a child of the active one.
func (b *Builder) BeginFunction(tok token.Token, name string) *FunctionScope {
	outer := b.scope()
	own := symbols.NewContext(name, outer)
	b.stack.Push(own)
	return &FunctionScope{tok: tok, name: name, outer: outer, own: own}
}

// EndFunction pops the function context and assembles the definition.
func (b *Builder) EndFunction(fs *FunctionScope, params []Param, body []Node, ret Expression) *FunctionDef {
	b.AbortFunction(fs)
	return &FunctionDef{
		base:      newBase(KindFunctionDef, fs.outer, fs.tok),
		Signature: &FunctionSignature{Name: fs.name, Params: params},
		Body:      body,
		Return:    ret,
		Own:       fs.own,
	}
}

// AbortFunction pops the function context without producing a node.
func (b *Builder) AbortFunction(fs *FunctionScope) {
	for b.stack.Len() > 1 && b.stack.Current() != fs.outer {
		b.stack.Pop()
	}
}
