package jit

import (
	"math"

	"github.com/llir/llvm/ir/types"
)

// Runtime values are int64 for every integer width (kept sign-extended to
// the width), float64 for float and double, and *Pointer for pointers.

type object struct {
	cells []any
}

// Pointer addresses one cell of an engine-managed object. A nil *Pointer
// is the null pointer.
type Pointer struct {
	obj   *object
	index int
}

func newObject(n int) *Pointer {
	return &Pointer{obj: &object{cells: make([]any, n)}}
}

func (p *Pointer) offset(n int) *Pointer {
	return &Pointer{obj: p.obj, index: p.index + n}
}

func (p *Pointer) same(q *Pointer) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.obj == q.obj && p.index == q.index
}

// cellsFor returns how many cells an object of type t occupies.
func cellsFor(t types.Type) int {
	if st, ok := t.(*types.StructType); ok && len(st.Fields) > 0 {
		return len(st.Fields)
	}
	return 1
}

func zeroOf(t types.Type) any {
	switch t.(type) {
	case *types.IntType:
		return int64(0)
	case *types.FloatType:
		return float64(0)
	case *types.PointerType:
		return (*Pointer)(nil)
	}
	return nil
}

func bitSize(t types.Type) uint64 {
	if it, ok := t.(*types.IntType); ok {
		return it.BitSize
	}
	return 64
}

// canon wraps x to the width of integer type t.
func canon(t types.Type, x int64) int64 {
	switch bitSize(t) {
	case 1:
		return x & 1
	case 8:
		return int64(int8(x))
	case 16:
		return int64(int16(x))
	case 32:
		return int64(int32(x))
	}
	return x
}

// round rounds f to the precision of floating type t.
func round(t types.Type, f float64) float64 {
	if ft, ok := t.(*types.FloatType); ok && ft.Kind == types.FloatKindFloat {
		return float64(float32(f))
	}
	return f
}

func unsigned(t types.Type, x int64) uint64 {
	n := bitSize(t)
	if n >= 64 {
		return uint64(x)
	}
	return uint64(x) & (1<<n - 1)
}

func float64bits(f float64) int64 { return int64(math.Float64bits(f)) }

func float64from(x int64) float64 { return math.Float64frombits(uint64(x)) }
