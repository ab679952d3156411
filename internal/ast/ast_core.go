package ast

import (
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/token"
)

// Kind tags every node. The values form contiguous ranges so classification
// is a range check: the Error range, the Expression range (containing the
// Assignment sub-range), then the flat statement set.
type Kind int

const (
	KindError Kind = iota

	KindNumber
	KindString
	KindVariable
	KindUnaryExp
	KindBinaryExp
	KindCallExp
	KindTopLevelExp
	KindAssignment
	KindDeclarationAssignment

	KindDeclaration
	KindFunctionDef
	KindImport

	kindCount
)

const (
	firstError      = KindError
	lastError       = KindError
	firstExpression = KindNumber
	lastExpression  = KindDeclarationAssignment
	firstAssignment = KindAssignment
	lastAssignment  = KindDeclarationAssignment
)

var kindNames = [...]string{
	KindError:                 "Error",
	KindNumber:                "Number",
	KindString:                "String",
	KindVariable:              "Variable",
	KindUnaryExp:              "UnaryExp",
	KindBinaryExp:             "BinaryExp",
	KindCallExp:               "CallExp",
	KindTopLevelExp:           "TopLevelExp",
	KindAssignment:            "Assignment",
	KindDeclarationAssignment: "DeclarationAssignment",
	KindDeclaration:           "Declaration",
	KindFunctionDef:           "FunctionDef",
	KindImport:                "Import",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

func (k Kind) IsError() bool      { return k >= firstError && k <= lastError }
func (k Kind) IsExpression() bool { return k >= firstExpression && k <= lastExpression }
func (k Kind) IsAssignment() bool { return k >= firstAssignment && k <= lastAssignment }

// Category selects the processing strategy the driver applies to a node.
type Category int

const (
	CategoryError Category = iota
	CategoryExpression
	CategoryAssignment
	CategoryCall
	CategoryFunctionDef
	CategoryImport
	CategoryTopLevel
)

func (c Category) String() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryExpression:
		return "expression"
	case CategoryAssignment:
		return "assignment"
	case CategoryCall:
		return "call"
	case CategoryFunctionDef:
		return "function-definition"
	case CategoryImport:
		return "import"
	case CategoryTopLevel:
		return "top-level"
	}
	return "unknown"
}

// CategoryOf resolves the category of a kind. Declarations share the
// assignment strategy since both mutate bindings.
func CategoryOf(k Kind) Category {
	switch {
	case k.IsError():
		return CategoryError
	case k.IsAssignment(), k == KindDeclaration:
		return CategoryAssignment
	case k == KindCallExp:
		return CategoryCall
	case k == KindTopLevelExp:
		return CategoryTopLevel
	case k == KindFunctionDef:
		return CategoryFunctionDef
	case k == KindImport:
		return CategoryImport
	}
	return CategoryExpression
}

// Node is the base interface for all AST nodes.
type Node interface {
	Kind() Kind
	// Category is fixed when the node is constructed.
	Category() Category
	// Scope is the context that was active when the node was built.
	Scope() *symbols.Context
	GetToken() token.Token
	node()
}

// Expression is a Node in the Expression range.
type Expression interface {
	Node
	expressionNode()
}

type base struct {
	kind     Kind
	category Category
	scope    *symbols.Context
	Token    token.Token
}

func newBase(kind Kind, scope *symbols.Context, tok token.Token) base {
	return base{kind: kind, category: CategoryOf(kind), scope: scope, Token: tok}
}

func (b *base) Kind() Kind              { return b.kind }
func (b *base) Category() Category      { return b.category }
func (b *base) Scope() *symbols.Context { return b.scope }
func (b *base) GetToken() token.Token   { return b.Token }
func (b *base) node()                   {}

// Program is the root node list our parser produces.
type Program struct {
	File       string
	Statements []Node
}

// AppendStatement extends a statement list.
func AppendStatement(list []Node, stmt Node) []Node {
	if stmt == nil {
		return list
	}
	return append(list, stmt)
}

// Error marks a construct the parser could not build.
type Error struct {
	base
	Message string
}

// Declaration introduces a name without a value: declare x
type Declaration struct {
	base
	Name string
}

// Import loads another source file: import "lib.xj"
type Import struct {
	base
	Path string
	// Dir is the directory relative paths resolve against.
	Dir string
}
