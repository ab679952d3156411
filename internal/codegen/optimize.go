package codegen

import (
	"github.com/llir/llvm/ir"
	llvalue "github.com/llir/llvm/ir/value"
)

// Optimize runs a small cleanup over f: blocks unreachable from the entry
// are dropped, then side-effect-free instructions whose results are unused
// are removed until nothing changes.
func Optimize(f *ir.Func) {
	if len(f.Blocks) == 0 {
		return
	}
	removeUnreachable(f)
	for removeDead(f) {
	}
}

func removeUnreachable(f *ir.Func) {
	seen := map[*ir.Block]bool{f.Blocks[0]: true}
	work := []*ir.Block{f.Blocks[0]}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range successors(b) {
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if seen[b] {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
}

func removeDead(f *ir.Func) bool {
	used := make(map[llvalue.Value]bool)
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			for _, op := range Operands(inst) {
				used[op] = true
			}
		}
		for _, op := range Operands(b.Term) {
			used[op] = true
		}
	}
	changed := false
	for _, b := range f.Blocks {
		kept := b.Insts[:0]
		for _, inst := range b.Insts {
			if v, ok := inst.(llvalue.Value); ok && pure(inst) && !used[v] {
				changed = true
				continue
			}
			kept = append(kept, inst)
		}
		b.Insts = kept
	}
	return changed
}

func pure(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstCall, *ir.InstStore:
		return false
	}
	return true
}

// Operands returns the values inst reads, for the instructions the
// generator emits.
func Operands(inst any) []llvalue.Value {
	switch i := inst.(type) {
	case *ir.InstAlloca:
		return nil
	case *ir.InstLoad:
		return []llvalue.Value{i.Src}
	case *ir.InstStore:
		return []llvalue.Value{i.Src, i.Dst}
	case *ir.InstGetElementPtr:
		return append([]llvalue.Value{i.Src}, i.Indices...)
	case *ir.InstAdd:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstSub:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstMul:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstSDiv:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstAnd:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstOr:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFAdd:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFSub:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFMul:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFDiv:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFNeg:
		return []llvalue.Value{i.X}
	case *ir.InstICmp:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstFCmp:
		return []llvalue.Value{i.X, i.Y}
	case *ir.InstSelect:
		return []llvalue.Value{i.Cond, i.ValueTrue, i.ValueFalse}
	case *ir.InstTrunc:
		return []llvalue.Value{i.From}
	case *ir.InstSExt:
		return []llvalue.Value{i.From}
	case *ir.InstZExt:
		return []llvalue.Value{i.From}
	case *ir.InstFPTrunc:
		return []llvalue.Value{i.From}
	case *ir.InstFPExt:
		return []llvalue.Value{i.From}
	case *ir.InstSIToFP:
		return []llvalue.Value{i.From}
	case *ir.InstFPToSI:
		return []llvalue.Value{i.From}
	case *ir.InstBitCast:
		return []llvalue.Value{i.From}
	case *ir.InstCall:
		return append([]llvalue.Value{i.Callee}, i.Args...)
	case *ir.TermRet:
		if i.X == nil {
			return nil
		}
		return []llvalue.Value{i.X}
	case *ir.TermCondBr:
		return []llvalue.Value{i.Cond}
	}
	return nil
}
