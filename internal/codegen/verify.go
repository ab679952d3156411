package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/funvibe/exprjit/internal/diagnostics"
)

// Verify checks the structural rules the engine relies on: every block is
// terminated, branches stay inside the function, returns match the
// signature and calls pass the right number of arguments.
func Verify(f *ir.Func) error {
	name := f.Name()
	if len(f.Blocks) == 0 {
		return diagnostics.New(diagnostics.LoweringError, "function %s has no body", name)
	}
	owned := make(map[*ir.Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		owned[b] = true
	}
	void := types.Equal(f.Sig.RetType, types.Void)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return diagnostics.New(diagnostics.LoweringError, "function %s: block %s is not terminated", name, b.Name())
		}
		for _, inst := range b.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}
			callee, ok := call.Callee.(*ir.Func)
			if !ok {
				return diagnostics.New(diagnostics.LoweringError, "function %s: indirect call", name)
			}
			if !callee.Sig.Variadic && len(call.Args) != len(callee.Sig.Params) {
				return diagnostics.New(diagnostics.LoweringError, "function %s: call to %s passes %d arguments, want %d",
					name, callee.Name(), len(call.Args), len(callee.Sig.Params))
			}
		}
		switch t := b.Term.(type) {
		case *ir.TermRet:
			if (t.X == nil) != void {
				return diagnostics.New(diagnostics.LoweringError, "function %s: return does not match signature", name)
			}
		case *ir.TermBr, *ir.TermCondBr:
			for _, s := range successors(b) {
				if !owned[s] {
					return diagnostics.New(diagnostics.LoweringError, "function %s: branch to foreign block %s", name, s.Name())
				}
			}
		case *ir.TermUnreachable:
		default:
			return diagnostics.New(diagnostics.LoweringError, "function %s: unsupported terminator %T", name, t)
		}
	}
	return nil
}

// successors lists the blocks b may branch to.
func successors(b *ir.Block) []*ir.Block {
	switch t := b.Term.(type) {
	case *ir.TermBr:
		return blocks(t.Target)
	case *ir.TermCondBr:
		return blocks(t.TargetTrue, t.TargetFalse)
	}
	return nil
}

func blocks(targets ...any) []*ir.Block {
	out := make([]*ir.Block, 0, len(targets))
	for _, t := range targets {
		if b, ok := t.(*ir.Block); ok {
			out = append(out, b)
		}
	}
	return out
}
