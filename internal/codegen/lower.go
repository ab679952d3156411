package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
	"github.com/funvibe/exprjit/internal/walk"
)

// lowerer is the walk algebra producing box pointers in the current block.
type lowerer struct{ g *Generator }

// Lower emits code for n into the function being generated.
func (g *Generator) Lower(n ast.Node) (llvalue.Value, error) {
	if g.fn == nil {
		return nil, diagnostics.New(diagnostics.LoweringError, "no function to lower into")
	}
	v, err := walk.Expr[llvalue.Value](lowerer{g}, n)
	if err != nil {
		return nil, at(err, n)
	}
	if v == nil {
		return nil, at(diagnostics.New(diagnostics.LoweringError, "%s produced no value", n.Kind()), n)
	}
	return v, nil
}

func at(err error, n ast.Node) error {
	d := diagnostics.Wrap(diagnostics.LoweringError, err)
	if d.Line == 0 && n != nil {
		tok := n.GetToken()
		d.Line, d.Column = tok.Line, tok.Column
	}
	return d
}

func (a lowerer) Number(n *ast.Number) (llvalue.Value, error) {
	return a.g.constBox(n.Value), nil
}

func (a lowerer) String(n *ast.String) (llvalue.Value, error) {
	g := a.g
	s, _ := n.Value.AsString()
	bits := g.block.NewCall(g.runtimeFunc(config.StrLitSymbol), i64(g.unit.Intern(s)))
	box := g.makeBox(g.block, tagConst(value.String), bits)
	g.tags[box] = value.String
	return box, nil
}

// slot returns the storage handle for name when it belongs to the function
// being generated.
func (g *Generator) slot(name string) (llvalue.Value, bool) {
	h, ok := g.current().GetStorageHandle(name)
	if !ok || g.slotOwner[h] != g.fn {
		return nil, false
	}
	return h, true
}

func (a lowerer) Variable(n *ast.Variable) (llvalue.Value, error) {
	g := a.g
	if h, ok := g.slot(n.Name); ok {
		v := g.block.NewLoad(g.unit.BoxPtr, h)
		return g.checked(v, n, diagnostics.ReferenceError, n.Name+" is declared but has no value"), nil
	}
	if _, ok := g.current().GetVariable(n.Name); !ok {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "%s not found", n.Name)
	}
	v := g.block.NewCall(g.runtimeFunc(config.VarGetSymbol), i64(g.unit.Intern(n.Name)))
	return g.checked(v, n, diagnostics.ReferenceError, n.Name+" is declared but has no value"), nil
}

func (a lowerer) Unary(n *ast.UnaryExp, operand llvalue.Value) (llvalue.Value, error) {
	g := a.g
	if n.Operator != value.OpSub {
		return nil, diagnostics.NewAt(diagnostics.LoweringError, n.GetToken(), "unknown unary operator %s", n.Operator)
	}
	res := g.block.NewCall(g.negHelper(), operand)
	out := g.checked(res, n, diagnostics.TypeError, "bad operand type for unary -")
	if t, ok := g.staticTag(operand); ok && t.IsNumeric() {
		g.tags[out] = t
	}
	return out, nil
}

func (a lowerer) Binary(n *ast.BinaryExp, left, right llvalue.Value) (llvalue.Value, error) {
	g := a.g
	if !isOperator(n.Operator) {
		return nil, diagnostics.NewAt(diagnostics.LoweringError, n.GetToken(), "unknown operator %s", n.Operator)
	}
	line, col := position(n)
	res := g.block.NewCall(g.binopHelper(n.Operator), left, right, line, col)
	out := g.checked(res, n, diagnostics.TypeError, "unsupported operand types for "+n.Operator)
	lt, lok := g.staticTag(left)
	rt, rok := g.staticTag(right)
	if lok && rok {
		if t, ok := value.CommonType(lt, rt); ok {
			g.tags[out] = t
		} else if lt == value.String && rt == value.String && n.Operator == value.OpAdd {
			g.tags[out] = value.String
		}
	}
	return out, nil
}

func isOperator(op string) bool {
	for _, o := range value.Operators {
		if o == op {
			return true
		}
	}
	return false
}

func (a lowerer) Call(n *ast.CallExp, args func() ([]llvalue.Value, error)) (llvalue.Value, error) {
	g := a.g
	callee, sig, err := g.callee(n)
	if err != nil {
		return nil, err
	}
	vals, err := args()
	if err != nil {
		return nil, err
	}
	for len(vals) < len(callee.Params) {
		vals = append(vals, g.nullBox())
	}
	res := g.block.NewCall(callee, vals...)
	if types.Equal(callee.Sig.RetType, types.Void) {
		return g.voidBox(), nil
	}
	if sig.ReturnKnown {
		g.tags[res] = sig.ReturnType
	}
	return res, nil
}

func (a lowerer) Assign(n *ast.Assignment, v llvalue.Value) (llvalue.Value, error) {
	g := a.g
	if h, ok := g.slot(n.Name); ok {
		g.block.NewStore(v, h)
		return v, nil
	}
	if _, ok := g.current().GetVariable(n.Name); !ok {
		return nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "%s not defined", n.Name)
	}
	g.block.NewCall(g.runtimeFunc(config.VarSetSymbol), i64(g.unit.Intern(n.Name)), v)
	return v, nil
}

func (a lowerer) DeclareAssign(n *ast.DeclarationAssignment, v llvalue.Value) (llvalue.Value, error) {
	g := a.g
	h, ok := g.localSlots[n.Name]
	if !ok {
		h = g.local(n.Name)
	}
	g.block.NewStore(v, h)
	return v, nil
}

func (a lowerer) Declare(n *ast.Declaration) (llvalue.Value, error) {
	g := a.g
	if _, ok := g.localSlots[n.Name]; ok {
		return nil, diagnostics.NewAt(diagnostics.DefinitionError, n.GetToken(), "%s already declared", n.Name)
	}
	g.local(n.Name)
	return g.voidBox(), nil
}

func (a lowerer) Statement(n ast.Node) (llvalue.Value, error) {
	switch n := n.(type) {
	case *ast.FunctionDef:
		return nil, diagnostics.New(diagnostics.LoweringError, "function %s must be defined at top level", n.Signature.Name)
	case *ast.Import:
		return nil, diagnostics.New(diagnostics.LoweringError, "import is not an expression")
	case *ast.Error:
		return nil, diagnostics.New(diagnostics.SyntaxError, "%s", n.Message)
	}
	return nil, diagnostics.New(diagnostics.LoweringError, "cannot lower %s", n.Kind())
}

// local allocates a fresh slot for name in the entry block, initialized to
// null, and records it as the name's storage handle.
func (g *Generator) local(name string) llvalue.Value {
	h := g.alloca()
	g.entryStore(g.nullBox(), h)
	g.slotOwner[h] = g.fn
	g.localSlots[name] = h
	g.current().StoreStorageHandle(name, h)
	return h
}

// alloca places a box-pointer slot at the head of the entry block so it
// dominates every use.
func (g *Generator) alloca() *ir.InstAlloca {
	inst := ir.NewAlloca(g.unit.BoxPtr)
	g.entry.Insts = append([]ir.Instruction{inst}, g.entry.Insts...)
	return inst
}

// entryStore stores v into h right after the entry block's allocas.
func (g *Generator) entryStore(v, h llvalue.Value) {
	inst := ir.NewStore(v, h)
	i := 0
	for i < len(g.entry.Insts) {
		if _, ok := g.entry.Insts[i].(*ir.InstAlloca); !ok {
			break
		}
		i++
	}
	insts := append([]ir.Instruction{}, g.entry.Insts[:i]...)
	insts = append(insts, inst)
	g.entry.Insts = append(insts, g.entry.Insts[i:]...)
}
