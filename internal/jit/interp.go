package jit

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/funvibe/exprjit/internal/diagnostics"
)

type frame struct {
	unit *loaded
	vals map[llvalue.Value]any
}

func (e *Engine) tick() error {
	e.steps++
	if e.steps > e.maxSteps {
		return diagnostics.New(diagnostics.RuntimeError, "execution limit exceeded")
	}
	return nil
}

// call runs f, which belongs to unit u when it has a body, or resolves it
// through the host table and the symbol table when it is a declaration.
func (e *Engine) call(u *loaded, f *ir.Func, args []any, depth int) (any, error) {
	if len(f.Blocks) == 0 {
		name := f.Name()
		if h, ok := e.host[name]; ok {
			return h(u, args)
		}
		syms := e.symbols[name]
		if len(syms) == 0 {
			return nil, errors.Errorf("unresolved symbol %s", name)
		}
		sym := syms[len(syms)-1]
		u, f = sym.unit, sym.Func
	}
	if depth >= e.maxDepth {
		return nil, diagnostics.New(diagnostics.RuntimeError, "maximum call depth %d exceeded in %s", e.maxDepth, f.Name())
	}
	fr := &frame{unit: u, vals: make(map[llvalue.Value]any)}
	for i, p := range f.Params {
		fr.vals[p] = args[i]
	}
	b := f.Blocks[0]
	for {
		for _, inst := range b.Insts {
			if err := e.tick(); err != nil {
				return nil, err
			}
			v, err := e.step(fr, inst, depth)
			if err != nil {
				return nil, err
			}
			if res, ok := inst.(llvalue.Value); ok {
				fr.vals[res] = v
			}
		}
		if err := e.tick(); err != nil {
			return nil, err
		}
		switch t := b.Term.(type) {
		case *ir.TermRet:
			if t.X == nil {
				return nil, nil
			}
			return e.operand(fr, t.X)
		case *ir.TermBr:
			next, err := target(t.Target)
			if err != nil {
				return nil, err
			}
			b = next
		case *ir.TermCondBr:
			c, err := e.operand(fr, t.Cond)
			if err != nil {
				return nil, err
			}
			dest := any(t.TargetFalse)
			if c.(int64) != 0 {
				dest = t.TargetTrue
			}
			next, err := target(dest)
			if err != nil {
				return nil, err
			}
			b = next
		case *ir.TermUnreachable:
			return nil, errors.Errorf("%s: reached unreachable code", f.Name())
		default:
			return nil, errors.Errorf("%s: unsupported terminator %T", f.Name(), t)
		}
	}
}

func target(t any) (*ir.Block, error) {
	b, ok := t.(*ir.Block)
	if !ok {
		return nil, errors.Errorf("branch target %v is not a block", t)
	}
	return b, nil
}

// operand evaluates a constant or looks up a previously computed value.
func (e *Engine) operand(fr *frame, v llvalue.Value) (any, error) {
	switch c := v.(type) {
	case *constant.Int:
		return canon(c.Typ, c.X.Int64()), nil
	case *constant.Float:
		f, _ := c.X.Float64()
		return round(c.Typ, f), nil
	case *constant.Null:
		return (*Pointer)(nil), nil
	case *ir.Func:
		return c, nil
	}
	x, ok := fr.vals[v]
	if !ok {
		return nil, errors.Errorf("use of undefined value %s", v.Ident())
	}
	return x, nil
}

func (e *Engine) operands(fr *frame, vs ...llvalue.Value) ([]any, error) {
	out := make([]any, len(vs))
	for i, v := range vs {
		x, err := e.operand(fr, v)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (e *Engine) pointer(fr *frame, v llvalue.Value) (*Pointer, error) {
	x, err := e.operand(fr, v)
	if err != nil {
		return nil, err
	}
	p, _ := x.(*Pointer)
	if p == nil {
		return nil, diagnostics.New(diagnostics.RuntimeError, "null pointer dereference")
	}
	return p, nil
}

func (e *Engine) ints(fr *frame, x, y llvalue.Value) (int64, int64, error) {
	vs, err := e.operands(fr, x, y)
	if err != nil {
		return 0, 0, err
	}
	return vs[0].(int64), vs[1].(int64), nil
}

func (e *Engine) floats(fr *frame, x, y llvalue.Value) (float64, float64, error) {
	vs, err := e.operands(fr, x, y)
	if err != nil {
		return 0, 0, err
	}
	return vs[0].(float64), vs[1].(float64), nil
}

// step executes one instruction and returns its result, if any.
func (e *Engine) step(fr *frame, inst ir.Instruction, depth int) (any, error) {
	switch i := inst.(type) {
	case *ir.InstAlloca:
		return newObject(cellsFor(i.ElemType)), nil
	case *ir.InstLoad:
		p, err := e.pointer(fr, i.Src)
		if err != nil {
			return nil, err
		}
		if p.index >= len(p.obj.cells) {
			return nil, errors.Errorf("load out of bounds")
		}
		if c := p.obj.cells[p.index]; c != nil {
			return c, nil
		}
		return zeroOf(i.ElemType), nil
	case *ir.InstStore:
		p, err := e.pointer(fr, i.Dst)
		if err != nil {
			return nil, err
		}
		v, err := e.operand(fr, i.Src)
		if err != nil {
			return nil, err
		}
		if p.index >= len(p.obj.cells) {
			return nil, errors.Errorf("store out of bounds")
		}
		p.obj.cells[p.index] = v
		return nil, nil
	case *ir.InstGetElementPtr:
		p, err := e.pointer(fr, i.Src)
		if err != nil {
			return nil, err
		}
		idx, err := e.operands(fr, i.Indices...)
		if err != nil {
			return nil, err
		}
		off := 0
		for k, x := range idx {
			n := int(x.(int64))
			if k == 0 {
				off += n * cellsFor(i.ElemType)
			} else {
				off += n
			}
		}
		return p.offset(off), nil
	case *ir.InstAdd:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x+y), err
	case *ir.InstSub:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x-y), err
	case *ir.InstMul:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x*y), err
	case *ir.InstSDiv:
		x, y, err := e.ints(fr, i.X, i.Y)
		if err != nil {
			return nil, err
		}
		if y == 0 {
			return nil, diagnostics.New(diagnostics.TypeError, "division by zero")
		}
		return canon(i.Type(), x/y), nil
	case *ir.InstSRem:
		x, y, err := e.ints(fr, i.X, i.Y)
		if err != nil {
			return nil, err
		}
		if y == 0 {
			return nil, diagnostics.New(diagnostics.TypeError, "division by zero")
		}
		return canon(i.Type(), x%y), nil
	case *ir.InstAnd:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x&y), err
	case *ir.InstOr:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x|y), err
	case *ir.InstXor:
		x, y, err := e.ints(fr, i.X, i.Y)
		return canon(i.Type(), x^y), err
	case *ir.InstFAdd:
		x, y, err := e.floats(fr, i.X, i.Y)
		return round(i.Type(), x+y), err
	case *ir.InstFSub:
		x, y, err := e.floats(fr, i.X, i.Y)
		return round(i.Type(), x-y), err
	case *ir.InstFMul:
		x, y, err := e.floats(fr, i.X, i.Y)
		return round(i.Type(), x*y), err
	case *ir.InstFDiv:
		x, y, err := e.floats(fr, i.X, i.Y)
		return round(i.Type(), x/y), err
	case *ir.InstFNeg:
		x, err := e.operand(fr, i.X)
		if err != nil {
			return nil, err
		}
		return -x.(float64), nil
	case *ir.InstICmp:
		return e.icmp(fr, i)
	case *ir.InstFCmp:
		return e.fcmp(fr, i)
	case *ir.InstSelect:
		vs, err := e.operands(fr, i.Cond, i.ValueTrue, i.ValueFalse)
		if err != nil {
			return nil, err
		}
		if vs[0].(int64) != 0 {
			return vs[1], nil
		}
		return vs[2], nil
	case *ir.InstTrunc:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		return canon(i.To, x.(int64)), nil
	case *ir.InstSExt:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		if bitSize(i.From.Type()) == 1 && x.(int64) != 0 {
			return canon(i.To, -1), nil
		}
		return canon(i.To, x.(int64)), nil
	case *ir.InstZExt:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		return canon(i.To, int64(unsigned(i.From.Type(), x.(int64)))), nil
	case *ir.InstFPTrunc:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		return round(i.To, x.(float64)), nil
	case *ir.InstFPExt:
		return e.operand(fr, i.From)
	case *ir.InstSIToFP:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		return round(i.To, float64(x.(int64))), nil
	case *ir.InstFPToSI:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		return canon(i.To, int64(x.(float64))), nil
	case *ir.InstBitCast:
		x, err := e.operand(fr, i.From)
		if err != nil {
			return nil, err
		}
		switch to := i.To.(type) {
		case *types.FloatType:
			if n, ok := x.(int64); ok {
				return round(to, float64from(n)), nil
			}
		case *types.IntType:
			if f, ok := x.(float64); ok {
				return float64bits(f), nil
			}
		}
		return x, nil
	case *ir.InstCall:
		callee, ok := i.Callee.(*ir.Func)
		if !ok {
			return nil, errors.Errorf("indirect call to %s", i.Callee.Ident())
		}
		args, err := e.operands(fr, i.Args...)
		if err != nil {
			return nil, err
		}
		return e.call(fr.unit, callee, args, depth+1)
	}
	return nil, errors.Errorf("unsupported instruction %T", inst)
}

func (e *Engine) icmp(fr *frame, i *ir.InstICmp) (any, error) {
	vs, err := e.operands(fr, i.X, i.Y)
	if err != nil {
		return nil, err
	}
	if p, ok := vs[0].(*Pointer); ok {
		q, _ := vs[1].(*Pointer)
		switch i.Pred {
		case enum.IPredEQ:
			return boolean(p.same(q)), nil
		case enum.IPredNE:
			return boolean(!p.same(q)), nil
		}
		return nil, errors.Errorf("unsupported pointer comparison %s", i.Pred)
	}
	x, y := vs[0].(int64), vs[1].(int64)
	t := i.X.Type()
	ux, uy := unsigned(t, x), unsigned(t, y)
	var r bool
	switch i.Pred {
	case enum.IPredEQ:
		r = x == y
	case enum.IPredNE:
		r = x != y
	case enum.IPredSGT:
		r = x > y
	case enum.IPredSGE:
		r = x >= y
	case enum.IPredSLT:
		r = x < y
	case enum.IPredSLE:
		r = x <= y
	case enum.IPredUGT:
		r = ux > uy
	case enum.IPredUGE:
		r = ux >= uy
	case enum.IPredULT:
		r = ux < uy
	case enum.IPredULE:
		r = ux <= uy
	default:
		return nil, errors.Errorf("unsupported predicate %s", i.Pred)
	}
	return boolean(r), nil
}

func (e *Engine) fcmp(fr *frame, i *ir.InstFCmp) (any, error) {
	x, y, err := e.floats(fr, i.X, i.Y)
	if err != nil {
		return nil, err
	}
	ordered := !math.IsNaN(x) && !math.IsNaN(y)
	var r bool
	switch i.Pred {
	case enum.FPredFalse:
	case enum.FPredTrue:
		r = true
	case enum.FPredOEQ:
		r = ordered && x == y
	case enum.FPredONE:
		r = ordered && x != y
	case enum.FPredOGT:
		r = ordered && x > y
	case enum.FPredOGE:
		r = ordered && x >= y
	case enum.FPredOLT:
		r = ordered && x < y
	case enum.FPredOLE:
		r = ordered && x <= y
	case enum.FPredORD:
		r = ordered
	case enum.FPredUNO:
		r = !ordered
	case enum.FPredUEQ:
		r = !ordered || x == y
	case enum.FPredUNE:
		r = !ordered || x != y
	default:
		return nil, errors.Errorf("unsupported predicate %s", i.Pred)
	}
	return boolean(r), nil
}

func boolean(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
