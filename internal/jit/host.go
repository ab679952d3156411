package jit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

type hostFunc func(u *loaded, args []any) (any, error)

func (e *Engine) hostFuncs() map[string]hostFunc {
	return map[string]hostFunc{
		config.AllocBoxSymbol: func(*loaded, []any) (any, error) {
			p := newObject(2)
			p.obj.cells[0], p.obj.cells[1] = int64(0), int64(0)
			return p, nil
		},
		config.PowSymbol: func(_ *loaded, args []any) (any, error) {
			return math.Pow(args[0].(float64), args[1].(float64)), nil
		},
		config.StrLitSymbol: func(u *loaded, args []any) (any, error) {
			s, err := unitString(u, args[0])
			if err != nil {
				return nil, err
			}
			return e.strings.put(s), nil
		},
		config.StrConcatSymbol: func(_ *loaded, args []any) (any, error) {
			a, ok1 := e.strings.get(args[0].(int64))
			b, ok2 := e.strings.get(args[1].(int64))
			if !ok1 || !ok2 {
				return nil, errors.New("dangling string handle")
			}
			return e.strings.put(a + b), nil
		},
		config.VarGetSymbol: func(u *loaded, args []any) (any, error) {
			name, err := unitString(u, args[0])
			if err != nil {
				return nil, err
			}
			if e.bridge == nil {
				return nil, diagnostics.New(diagnostics.ReferenceError, "%s not found", name)
			}
			v, ok := e.bridge.GetVariable(name)
			if !ok {
				return nil, diagnostics.New(diagnostics.ReferenceError, "%s not found", name)
			}
			if v == nil {
				return (*Pointer)(nil), nil
			}
			return e.writeBox(v), nil
		},
		config.VarSetSymbol: func(u *loaded, args []any) (any, error) {
			name, v, err := e.bridged(u, args)
			if err != nil {
				return nil, err
			}
			return nil, e.bridge.SetVariable(name, v)
		},
		config.FailSymbol: func(u *loaded, args []any) (any, error) {
			kind, err := unitString(u, args[0])
			if err != nil {
				return nil, err
			}
			msg, err := unitString(u, args[1])
			if err != nil {
				return nil, err
			}
			d := diagnostics.New(diagnostics.Kind(kind), "%s", msg)
			if line, ok := args[2].(int64); ok && line > 0 {
				col, _ := args[3].(int64)
				d.Line, d.Column = int(line), int(col)
			}
			return nil, d
		},
	}
}

func unitString(u *loaded, id any) (string, error) {
	s, ok := u.unit.StringAt(id.(int64))
	if !ok {
		return "", errors.Errorf("unit %s has no string %d", u.unit.Name, id)
	}
	return s, nil
}

// bridged decodes the (name, box) arguments of a variable store.
func (e *Engine) bridged(u *loaded, args []any) (string, *value.NodeValue, error) {
	name, err := unitString(u, args[0])
	if err != nil {
		return "", nil, err
	}
	if e.bridge == nil {
		return "", nil, diagnostics.New(diagnostics.ReferenceError, "%s not defined", name)
	}
	p, _ := args[1].(*Pointer)
	if p == nil {
		return name, nil, nil
	}
	v, err := e.readBox(p)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}
