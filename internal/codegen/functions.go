package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

type functionState struct {
	localSlots map[string]llvalue.Value
	fn         *ir.Func
	entry      *ir.Block
	block      *ir.Block
}

func (g *Generator) enterFunction(f *ir.Func) functionState {
	saved := functionState{g.localSlots, g.fn, g.entry, g.block}
	g.localSlots = make(map[string]llvalue.Value)
	g.fn = f
	g.entry = f.NewBlock("entry")
	g.block = g.entry
	return saved
}

func (g *Generator) leaveFunction(s functionState) {
	for h, owner := range g.slotOwner {
		if owner == g.fn {
			delete(g.slotOwner, h)
		}
	}
	g.localSlots, g.fn, g.entry, g.block = s.localSlots, s.fn, s.entry, s.block
}

// CheckRedefinition fails when name is already defined in this unit or is
// resident in the engine.
func (g *Generator) CheckRedefinition(name string) error {
	if IsHostSymbol(name) {
		return diagnostics.New(diagnostics.DefinitionError, "%s is a reserved name", name)
	}
	if f := g.unit.Func(name); f != nil {
		return diagnostics.New(diagnostics.DefinitionError, "function %s is already defined", name)
	}
	if g.opts.Resident != nil && g.opts.Resident(name) {
		return diagnostics.New(diagnostics.DefinitionError, "function %s is already defined", name)
	}
	return nil
}

// LowerFunction emits def as a function of the unit. On failure the unit is
// left without the function and the context chain without its handles.
func (g *Generator) LowerFunction(def *ast.FunctionDef) (*ir.Func, error) {
	sig := def.Signature
	if err := g.CheckRedefinition(sig.Name); err != nil {
		return nil, at(err, def)
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = ir.NewParam(p.Name, g.unit.BoxPtr)
	}
	var ret types.Type = g.unit.BoxPtr
	if def.Return == nil {
		ret = types.Void
	}
	f := g.unit.Module.NewFunc(sig.Name, ret, params...)
	g.defined[sig.Name] = sig

	saved := g.enterFunction(f)
	var retTag value.Tag
	var retKnown bool
	err := g.stack.With(def.Own, func() error {
		defer def.Own.ClearStorage()
		var err error
		retTag, retKnown, err = g.lowerBody(def, params)
		return err
	})
	g.leaveFunction(saved)
	if err == nil {
		err = Verify(f)
	}
	if err != nil {
		g.unit.removeFunc(f)
		delete(g.defined, sig.Name)
		return nil, err
	}
	if g.opts.Optimize {
		Optimize(f)
	}
	sig.ReturnType, sig.ReturnKnown = retTag, retKnown
	return f, nil
}

func (g *Generator) lowerBody(def *ast.FunctionDef, params []*ir.Param) (value.Tag, bool, error) {
	sig := def.Signature
	slots := make([]llvalue.Value, len(params))
	for i, p := range sig.Params {
		h := g.alloca()
		g.entry.NewStore(params[i], h)
		g.slotOwner[h] = g.fn
		g.localSlots[p.Name] = h
		g.current().StoreStorageHandle(p.Name, h)
		slots[i] = h
	}
	// Omitted arguments arrive as null and take their default here.
	for i, p := range sig.Params {
		if p.Default == nil {
			continue
		}
		dflt := g.newBlock("default." + p.Name)
		bind := g.newBlock("bind." + p.Name)
		g.block.NewCondBr(g.block.NewICmp(enum.IPredEQ, params[i], g.nullBox()), dflt, bind)
		g.block = dflt
		v, err := g.Lower(p.Default)
		if err != nil {
			return 0, false, err
		}
		g.block.NewStore(v, slots[i])
		g.block.NewBr(bind)
		g.block = bind
	}
	for _, stmt := range def.Body {
		if _, err := g.Lower(stmt); err != nil {
			return 0, false, err
		}
	}
	if def.Return == nil {
		g.block.NewRet(nil)
		return value.Void, true, nil
	}
	v, err := g.Lower(def.Return)
	if err != nil {
		return 0, false, err
	}
	g.block.NewRet(v)
	t, ok := g.staticTag(v)
	return t, ok, nil
}

// callee resolves the function a call refers to: first a definition in this
// unit, then one recorded in the context chain, declared here so the engine
// can link it. The arity is checked before anything is emitted.
func (g *Generator) callee(n *ast.CallExp) (*ir.Func, *ast.FunctionSignature, error) {
	if sig, ok := g.defined[n.Callee]; ok {
		if err := sig.CheckArity(len(n.Args)); err != nil {
			return nil, nil, at(err, n)
		}
		return g.unit.Func(n.Callee), sig, nil
	}
	def := n.Target
	if def == nil {
		if fn, ok := g.current().GetFunction(n.Callee); ok {
			def, _ = fn.(*ast.FunctionDef)
		}
	}
	if def == nil {
		return nil, nil, diagnostics.NewAt(diagnostics.ReferenceError, n.GetToken(), "unknown function %s", n.Callee)
	}
	if err := def.Signature.CheckArity(len(n.Args)); err != nil {
		return nil, nil, at(err, n)
	}
	if f := g.unit.Func(n.Callee); f != nil && !isInternal(f) && !IsHostSymbol(n.Callee) {
		return f, def.Signature, nil
	}
	return g.declare(def.Signature), def.Signature, nil
}

// declare adds an external declaration matching sig.
func (g *Generator) declare(sig *ast.FunctionSignature) *ir.Func {
	params := make([]*ir.Param, len(sig.Params))
	for i := range sig.Params {
		params[i] = ir.NewParam(fmt.Sprintf("a%d", i), g.unit.BoxPtr)
	}
	var ret types.Type = g.unit.BoxPtr
	if sig.ReturnKnown && sig.ReturnType == value.Void {
		ret = types.Void
	}
	return g.unit.Module.NewFunc(sig.Name, ret, params...)
}
