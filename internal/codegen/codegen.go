// Package codegen lowers the AST into LLVM IR built with llir/llvm. Every
// lowered expression produces a pointer to a heap box {i32 tag, i64 bits}
// with the same tag numbering as the interpreter's values, so compiled and
// interpreted results are interchangeable.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

// Box field indices.
const (
	boxTagField  = 0
	boxBitsField = 1
)

// Unit is one compilation unit: an IR module plus the string table its
// runtime calls index into.
type Unit struct {
	Name    string
	Module  *ir.Module
	Strings []string

	BoxType types.Type
	BoxPtr  *types.PointerType

	strIndex map[string]int64
	runtime  map[string]*ir.Func
}

// NewUnit creates an empty unit with the box type defined.
func NewUnit(name string) *Unit {
	m := ir.NewModule()
	m.SourceFilename = name
	box := m.NewTypeDef(config.BoxTypeName, types.NewStruct(types.I32, types.I64))
	return &Unit{
		Name:     name,
		Module:   m,
		BoxType:  box,
		BoxPtr:   types.NewPointer(box),
		strIndex: make(map[string]int64),
		runtime:  make(map[string]*ir.Func),
	}
}

// Intern adds s to the string table and returns its index.
func (u *Unit) Intern(s string) int64 {
	if id, ok := u.strIndex[s]; ok {
		return id
	}
	id := int64(len(u.Strings))
	u.Strings = append(u.Strings, s)
	u.strIndex[s] = id
	return id
}

// StringAt returns string table entry id.
func (u *Unit) StringAt(id int64) (string, bool) {
	if id < 0 || id >= int64(len(u.Strings)) {
		return "", false
	}
	return u.Strings[id], true
}

// Func returns the function named name in this unit, defined or declared.
func (u *Unit) Func(name string) *ir.Func {
	for _, f := range u.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Defines returns the names of functions with a body that other units may
// call. Runtime helpers are internal and excluded.
func (u *Unit) Defines() []string {
	var names []string
	for _, f := range u.Module.Funcs {
		if len(f.Blocks) > 0 && !isInternal(f) {
			names = append(names, f.Name())
		}
	}
	return names
}

// IR renders the module as LLVM assembly.
func (u *Unit) IR() string {
	return u.Module.String()
}

func (u *Unit) removeFunc(f *ir.Func) {
	funcs := u.Module.Funcs[:0]
	for _, g := range u.Module.Funcs {
		if g != f {
			funcs = append(funcs, g)
		}
	}
	u.Module.Funcs = funcs
}

// Options configures a Generator.
type Options struct {
	// Optimize runs the peephole pass on each lowered function.
	Optimize bool
	// Resident reports whether the execution engine already holds a
	// definition for name. Such names cannot be redefined.
	Resident func(name string) bool
}

// Generator lowers nodes into one Unit. It resolves names against the
// shared context stack.
type Generator struct {
	stack *symbols.Stack
	unit  *Unit
	opts  Options

	// Per-function state.
	localSlots map[string]llvalue.Value
	fn         *ir.Func
	entry      *ir.Block
	block      *ir.Block
	blockSeq   int

	// slotOwner maps storage handles to the function that allocated them.
	slotOwner map[llvalue.Value]*ir.Func
	// defined holds signatures of functions lowered into this unit.
	defined map[string]*ast.FunctionSignature
	// tags records the statically known tag of lowered values.
	tags map[llvalue.Value]value.Tag
}

func New(stack *symbols.Stack, unit *Unit, opts Options) *Generator {
	return &Generator{
		stack:     stack,
		unit:      unit,
		opts:      opts,
		slotOwner: make(map[llvalue.Value]*ir.Func),
		defined:   make(map[string]*ast.FunctionSignature),
		tags:      make(map[llvalue.Value]value.Tag),
	}
}

// Unit returns the unit being generated.
func (g *Generator) Unit() *Unit { return g.unit }

func (g *Generator) current() *symbols.Context { return g.stack.Current() }

// newBlock appends a uniquely named block to the current function.
func (g *Generator) newBlock(name string) *ir.Block {
	g.blockSeq++
	return g.fn.NewBlock(fmt.Sprintf("%s.%d", name, g.blockSeq))
}

// staticTag returns the tag of v when known at lowering time.
func (g *Generator) staticTag(v llvalue.Value) (value.Tag, bool) {
	t, ok := g.tags[v]
	return t, ok
}

func i32(x int64) *constant.Int { return constant.NewInt(types.I32, x) }
func i64(x int64) *constant.Int { return constant.NewInt(types.I64, x) }

func tagConst(t value.Tag) *constant.Int { return i32(int64(t)) }

// boxField addresses one field of a box.
func (g *Generator) boxField(b *ir.Block, box llvalue.Value, field int64) llvalue.Value {
	return b.NewGetElementPtr(g.unit.BoxType, box, i32(0), i32(field))
}

// makeBox heap-allocates a fresh box carrying tag and bits.
func (g *Generator) makeBox(b *ir.Block, tag, bits llvalue.Value) llvalue.Value {
	box := b.NewCall(g.runtimeFunc(config.AllocBoxSymbol))
	b.NewStore(tag, g.boxField(b, box, boxTagField))
	b.NewStore(bits, g.boxField(b, box, boxBitsField))
	return box
}

// loadTag and loadBits read a box's fields.
func (g *Generator) loadTag(b *ir.Block, box llvalue.Value) llvalue.Value {
	return b.NewLoad(types.I32, g.boxField(b, box, boxTagField))
}

func (g *Generator) loadBits(b *ir.Block, box llvalue.Value) llvalue.Value {
	return b.NewLoad(types.I64, g.boxField(b, box, boxBitsField))
}

// constBox materializes a literal of known tag.
func (g *Generator) constBox(v *value.NodeValue) llvalue.Value {
	box := g.makeBox(g.block, tagConst(v.Tag()), i64(int64(v.Bits())))
	g.tags[box] = v.Tag()
	return box
}

// voidBox is the value of a call to a function without a return expression.
func (g *Generator) voidBox() llvalue.Value {
	return g.constBox(value.VoidValue)
}

func (g *Generator) nullBox() *constant.Null {
	return constant.NewNull(g.unit.BoxPtr)
}
