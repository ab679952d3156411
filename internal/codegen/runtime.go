package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

// Host symbols the execution engine resolves at link time.
var hostSymbols = map[string]bool{
	config.AllocBoxSymbol:  true,
	config.PowSymbol:       true,
	config.StrLitSymbol:    true,
	config.StrConcatSymbol: true,
	config.VarGetSymbol:    true,
	config.VarSetSymbol:    true,
	config.FailSymbol:      true,
}

// IsHostSymbol reports whether name is provided by the engine rather than
// by a compiled unit.
func IsHostSymbol(name string) bool { return hostSymbols[name] }

func isInternal(f *ir.Func) bool { return f.Linkage == enum.LinkageInternal }

// runtimeFunc returns the declaration of a host symbol, declaring it in
// the unit on first use.
func (g *Generator) runtimeFunc(name string) *ir.Func {
	u := g.unit
	if f, ok := u.runtime[name]; ok {
		return f
	}
	m := u.Module
	var f *ir.Func
	switch name {
	case config.AllocBoxSymbol:
		f = m.NewFunc(name, u.BoxPtr)
	case config.PowSymbol:
		f = m.NewFunc(name, types.Double, ir.NewParam("x", types.Double), ir.NewParam("y", types.Double))
	case config.StrLitSymbol:
		f = m.NewFunc(name, types.I64, ir.NewParam("id", types.I64))
	case config.StrConcatSymbol:
		f = m.NewFunc(name, types.I64, ir.NewParam("a", types.I64), ir.NewParam("b", types.I64))
	case config.VarGetSymbol:
		f = m.NewFunc(name, u.BoxPtr, ir.NewParam("name", types.I64))
	case config.VarSetSymbol:
		f = m.NewFunc(name, types.Void, ir.NewParam("name", types.I64), ir.NewParam("v", u.BoxPtr))
	case config.FailSymbol:
		f = m.NewFunc(name, types.Void, ir.NewParam("kind", types.I64), ir.NewParam("msg", types.I64),
			ir.NewParam("line", types.I64), ir.NewParam("col", types.I64))
	default:
		panic("codegen: unknown runtime symbol " + name)
	}
	u.runtime[name] = f
	return f
}

// fail ends b with a call that raises a kind error at run time.
// The error is positioned at line and col.
func (g *Generator) fail(b *ir.Block, kind diagnostics.Kind, msg string, line, col llvalue.Value) {
	b.NewCall(g.runtimeFunc(config.FailSymbol), i64(g.unit.Intern(string(kind))), i64(g.unit.Intern(msg)), line, col)
	b.NewUnreachable()
}

// position returns the source position of n as IR constants.
func position(n ast.Node) (llvalue.Value, llvalue.Value) {
	tok := n.GetToken()
	return i64(int64(tok.Line)), i64(int64(tok.Column))
}

// checked branches to a failure block, positioned at n, when box is null
// and continues in a fresh block otherwise.
func (g *Generator) checked(box llvalue.Value, n ast.Node, kind diagnostics.Kind, msg string) llvalue.Value {
	bad := g.newBlock("fail")
	ok := g.newBlock("ok")
	isNull := g.block.NewICmp(enum.IPredEQ, box, g.nullBox())
	g.block.NewCondBr(isNull, bad, ok)
	line, col := position(n)
	g.fail(bad, kind, msg, line, col)
	g.block = ok
	return box
}

// helperState saves the per-function generator state while a runtime
// helper is emitted.
type helperState struct {
	fn    *ir.Func
	entry *ir.Block
	block *ir.Block
}

func (g *Generator) enterHelper(f *ir.Func) helperState {
	saved := helperState{g.fn, g.entry, g.block}
	g.fn = f
	g.entry = f.NewBlock("entry")
	g.block = g.entry
	return saved
}

func (g *Generator) leaveHelper(s helperState) {
	g.fn, g.entry, g.block = s.fn, s.entry, s.block
}

// binopHelper returns the shared helper implementing op for any pair of
// boxes. It returns null when the operand tags have no common type. The
// caller's position is passed along for the errors the helper raises itself.
func (g *Generator) binopHelper(op string) *ir.Func {
	name := config.BinopHelperPrefix + op
	if f, ok := g.unit.runtime[name]; ok {
		return f
	}
	u := g.unit
	l := ir.NewParam("l", u.BoxPtr)
	r := ir.NewParam("r", u.BoxPtr)
	line := ir.NewParam("line", types.I64)
	col := ir.NewParam("col", types.I64)
	f := u.Module.NewFunc(name, u.BoxPtr, l, r, line, col)
	f.Linkage = enum.LinkageInternal
	u.runtime[name] = f

	saved := g.enterHelper(f)
	defer g.leaveHelper(saved)

	entry := g.entry
	out := entry.NewAlloca(u.BoxPtr)
	entry.NewStore(g.nullBox(), out)

	ltag := g.loadTag(entry, l)
	rtag := g.loadTag(entry, r)
	lbits := g.loadBits(entry, l)
	rbits := g.loadBits(entry, r)

	numeric := func(tag llvalue.Value) llvalue.Value {
		lo := entry.NewICmp(enum.IPredSGE, tag, tagConst(value.Char))
		hi := entry.NewICmp(enum.IPredSLE, tag, tagConst(value.Double))
		return entry.NewAnd(lo, hi)
	}
	bothNumeric := entry.NewAnd(numeric(ltag), numeric(rtag))

	// Common tag: the wider of the two, except float with long widens to
	// double.
	hi := entry.NewSelect(entry.NewICmp(enum.IPredSGT, ltag, rtag), ltag, rtag)
	lo := entry.NewSelect(entry.NewICmp(enum.IPredSLT, ltag, rtag), ltag, rtag)
	widen := entry.NewAnd(
		entry.NewICmp(enum.IPredEQ, hi, tagConst(value.Long)),
		entry.NewICmp(enum.IPredEQ, lo, tagConst(value.Float)),
	)
	common := entry.NewSelect(widen, tagConst(value.Double), hi)
	isFloat := entry.NewICmp(enum.IPredEQ, common, tagConst(value.Float))
	isDouble := entry.NewICmp(enum.IPredEQ, common, tagConst(value.Double))
	floating := entry.NewOr(isFloat, isDouble)

	dispatch := g.newBlock("dispatch")
	other := g.newBlock("other")
	merge := g.newBlock("merge")
	entry.NewCondBr(bothNumeric, dispatch, other)

	fpBlock := g.newBlock("floating")
	intBlock := g.newBlock("integral")
	dispatch.NewCondBr(floating, fpBlock, intBlock)

	// Floating: operands become doubles. When the common tag is float each
	// operand and the result are rounded to float precision.
	toDouble := func(b *ir.Block, tag, bits llvalue.Value) llvalue.Value {
		fp := b.NewOr(
			b.NewICmp(enum.IPredEQ, tag, tagConst(value.Float)),
			b.NewICmp(enum.IPredEQ, tag, tagConst(value.Double)),
		)
		return b.NewSelect(fp, b.NewBitCast(bits, types.Double), b.NewSIToFP(bits, types.Double))
	}
	toCommon := func(b *ir.Block, x llvalue.Value) llvalue.Value {
		single := b.NewFPExt(b.NewFPTrunc(x, types.Float), types.Double)
		return b.NewSelect(isFloat, single, x)
	}
	lf := toCommon(fpBlock, toDouble(fpBlock, ltag, lbits))
	rf := toCommon(fpBlock, toDouble(fpBlock, rtag, rbits))
	var res llvalue.Value
	switch op {
	case value.OpAdd:
		res = fpBlock.NewFAdd(lf, rf)
	case value.OpSub:
		res = fpBlock.NewFSub(lf, rf)
	case value.OpMul:
		res = fpBlock.NewFMul(lf, rf)
	case value.OpDiv:
		res = fpBlock.NewFDiv(lf, rf)
	case value.OpPow:
		res = fpBlock.NewCall(g.runtimeFunc(config.PowSymbol), lf, rf)
	}
	rounded := fpBlock.NewFPExt(fpBlock.NewFPTrunc(res, types.Float), types.Double)
	res = fpBlock.NewSelect(isFloat, rounded, res)
	fpBlock.NewStore(g.makeBox(fpBlock, common, fpBlock.NewBitCast(res, types.I64)), out)
	fpBlock.NewBr(merge)

	// Integral: payloads are sign-extended to i64, the result is narrowed
	// back to the common width.
	g.block = intBlock
	var ires llvalue.Value
	switch op {
	case value.OpAdd:
		ires = intBlock.NewAdd(lbits, rbits)
	case value.OpSub:
		ires = intBlock.NewSub(lbits, rbits)
	case value.OpMul:
		ires = intBlock.NewMul(lbits, rbits)
	case value.OpDiv:
		zero := g.newBlock("divzero")
		div := g.newBlock("div")
		intBlock.NewCondBr(intBlock.NewICmp(enum.IPredEQ, rbits, i64(0)), zero, div)
		g.fail(zero, diagnostics.TypeError, "division by zero", line, col)
		g.block = div
		ires = div.NewSDiv(lbits, rbits)
	case value.OpPow:
		p := intBlock.NewCall(g.runtimeFunc(config.PowSymbol),
			intBlock.NewSIToFP(lbits, types.Double), intBlock.NewSIToFP(rbits, types.Double))
		ires = intBlock.NewFPToSI(p, types.I64)
	}
	b := g.block
	narrowed := g.narrow(b, common, ires)
	b.NewStore(g.makeBox(b, common, narrowed), out)
	b.NewBr(merge)

	// Strings only support concatenation; every other pairing leaves the
	// result null.
	if op == value.OpAdd {
		str := g.newBlock("string")
		both := other.NewAnd(
			other.NewICmp(enum.IPredEQ, ltag, tagConst(value.String)),
			other.NewICmp(enum.IPredEQ, rtag, tagConst(value.String)),
		)
		other.NewCondBr(both, str, merge)
		joined := str.NewCall(g.runtimeFunc(config.StrConcatSymbol), lbits, rbits)
		str.NewStore(g.makeBox(str, tagConst(value.String), joined), out)
		str.NewBr(merge)
	} else {
		other.NewBr(merge)
	}

	merge.NewRet(merge.NewLoad(u.BoxPtr, out))
	return f
}

// narrow wraps x to the width selected by tag and sign-extends it back.
func (g *Generator) narrow(b *ir.Block, tag, x llvalue.Value) llvalue.Value {
	c := b.NewSExt(b.NewTrunc(x, types.I8), types.I64)
	s := b.NewSExt(b.NewTrunc(x, types.I16), types.I64)
	i := b.NewSExt(b.NewTrunc(x, types.I32), types.I64)
	v := b.NewSelect(b.NewICmp(enum.IPredEQ, tag, tagConst(value.Int)), i, x)
	v = b.NewSelect(b.NewICmp(enum.IPredEQ, tag, tagConst(value.Short)), s, v)
	return b.NewSelect(b.NewICmp(enum.IPredEQ, tag, tagConst(value.Char)), c, v)
}

// negHelper returns the helper for unary minus.
func (g *Generator) negHelper() *ir.Func {
	name := config.NegHelperName
	if f, ok := g.unit.runtime[name]; ok {
		return f
	}
	u := g.unit
	x := ir.NewParam("x", u.BoxPtr)
	f := u.Module.NewFunc(name, u.BoxPtr, x)
	f.Linkage = enum.LinkageInternal
	u.runtime[name] = f

	saved := g.enterHelper(f)
	defer g.leaveHelper(saved)

	entry := g.entry
	tag := g.loadTag(entry, x)
	bits := g.loadBits(entry, x)

	fp := g.newBlock("floating")
	notFP := g.newBlock("notfloating")
	integral := g.newBlock("integral")
	bad := g.newBlock("other")

	isFP := entry.NewOr(
		entry.NewICmp(enum.IPredEQ, tag, tagConst(value.Float)),
		entry.NewICmp(enum.IPredEQ, tag, tagConst(value.Double)),
	)
	entry.NewCondBr(isFP, fp, notFP)

	neg := fp.NewFNeg(fp.NewBitCast(bits, types.Double))
	fp.NewRet(g.makeBox(fp, tag, fp.NewBitCast(neg, types.I64)))

	isInt := notFP.NewAnd(
		notFP.NewICmp(enum.IPredSGE, tag, tagConst(value.Char)),
		notFP.NewICmp(enum.IPredSLE, tag, tagConst(value.Long)),
	)
	notFP.NewCondBr(isInt, integral, bad)

	ineg := g.narrow(integral, tag, integral.NewSub(i64(0), bits))
	integral.NewRet(g.makeBox(integral, tag, ineg))

	bad.NewRet(g.nullBox())
	return f
}
