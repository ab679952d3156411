// Package jit is the execution engine for compiled units. It links units
// against each other and against host symbols, then runs their functions
// by interpreting the IR directly.
package jit

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/funvibe/exprjit/internal/codegen"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

// Handle identifies a unit added to the engine.
type Handle = uuid.UUID

// Bridge gives compiled code access to the interpreter's variables.
type Bridge interface {
	GetVariable(name string) (*value.NodeValue, bool)
	SetVariable(name string, v *value.NodeValue) error
}

// Symbol is a resolved function.
type Symbol struct {
	Name   string
	Handle Handle
	Func   *ir.Func

	unit *loaded
}

// Raw is the untyped result of an invocation.
type Raw struct {
	Type  types.Type
	Value any
}

type loaded struct {
	handle Handle
	unit   *codegen.Unit
	defs   []string
}

// Config configures an Engine.
type Config struct {
	MaxSteps     int64
	MaxCallDepth int
	Bridge       Bridge
	Logger       *slog.Logger
}

// DefaultMaxCallDepth bounds nested compiled calls.
const DefaultMaxCallDepth = 4096

type Engine struct {
	mu      sync.RWMutex
	exec    sync.Mutex
	units   map[Handle]*loaded
	symbols map[string][]*Symbol
	host    map[string]hostFunc

	bridge   Bridge
	strings  arena
	maxSteps int64
	maxDepth int
	steps    int64
	log      *slog.Logger
}

func New(cfg Config) *Engine {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = config.DefaultMaxSteps
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		units:    make(map[Handle]*loaded),
		symbols:  make(map[string][]*Symbol),
		bridge:   cfg.Bridge,
		maxSteps: cfg.MaxSteps,
		maxDepth: cfg.MaxCallDepth,
		log:      cfg.Logger,
	}
	e.host = e.hostFuncs()
	return e
}

// SetBridge replaces the variable bridge.
func (e *Engine) SetBridge(b Bridge) { e.bridge = b }

// AddUnit links u and makes its functions callable. Every declaration in u
// must resolve to a host symbol or a function of a resident unit.
func (e *Engine) AddUnit(u *codegen.Unit) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range u.Module.Funcs {
		if len(f.Blocks) > 0 {
			continue
		}
		name := f.Name()
		if _, ok := e.host[name]; ok {
			continue
		}
		if len(e.symbols[name]) == 0 {
			return uuid.Nil, errors.Errorf("unit %s: unresolved symbol %s", u.Name, name)
		}
	}
	l := &loaded{handle: uuid.New(), unit: u, defs: u.Defines()}
	for _, name := range l.defs {
		e.symbols[name] = append(e.symbols[name], &Symbol{Name: name, Handle: l.handle, Func: u.Func(name), unit: l})
	}
	e.units[l.handle] = l
	e.log.Debug("unit added", "unit", u.Name, "handle", l.handle, "symbols", l.defs)
	return l.handle, nil
}

// RemoveUnit unloads a unit; its symbols stop resolving.
func (e *Engine) RemoveUnit(h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.units[h]
	if !ok {
		return errors.Errorf("unknown unit %s", h)
	}
	for _, name := range l.defs {
		syms := e.symbols[name][:0]
		for _, s := range e.symbols[name] {
			if s.Handle != h {
				syms = append(syms, s)
			}
		}
		if len(syms) == 0 {
			delete(e.symbols, name)
		} else {
			e.symbols[name] = syms
		}
	}
	delete(e.units, h)
	e.log.Debug("unit removed", "unit", l.unit.Name, "handle", h)
	return nil
}

// Lookup resolves name to the most recently added definition.
func (e *Engine) Lookup(name string) (*Symbol, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	syms := e.symbols[name]
	if len(syms) == 0 {
		return nil, errors.Errorf("symbol %s not found", name)
	}
	return syms[len(syms)-1], nil
}

// Resident reports whether a compiled definition of name is loaded.
func (e *Engine) Resident(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.symbols[name]) > 0
}

// Units returns the number of loaded units.
func (e *Engine) Units() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.units)
}

// Invoke runs sym with args. The string arena is reset first, so string
// handles in a previous Raw are invalid afterwards.
func (e *Engine) Invoke(sym *Symbol, args ...any) (Raw, error) {
	e.exec.Lock()
	defer e.exec.Unlock()
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(args) != len(sym.Func.Params) {
		return Raw{}, errors.Errorf("%s takes %d arguments, got %d", sym.Name, len(sym.Func.Params), len(args))
	}
	e.strings.reset()
	e.steps = 0
	v, err := e.call(sym.unit, sym.Func, args, 0)
	if err != nil {
		return Raw{}, err
	}
	e.log.Debug("invoked", "symbol", sym.Name, "steps", e.steps)
	return Raw{Type: sym.Func.Sig.RetType, Value: v}, nil
}

// Decode converts a raw result into a value. Pointer results must point at
// a box.
func (e *Engine) Decode(r Raw) (*value.NodeValue, error) {
	switch t := r.Type.(type) {
	case *types.VoidType:
		return value.VoidValue, nil
	case *types.FloatType:
		f, _ := r.Value.(float64)
		if t.Kind == types.FloatKindFloat {
			return value.NewFloat(float32(f)), nil
		}
		return value.NewDouble(f), nil
	case *types.IntType:
		x, _ := r.Value.(int64)
		return value.NewLong(x), nil
	case *types.PointerType:
		p, _ := r.Value.(*Pointer)
		if p == nil {
			return nil, diagnostics.New(diagnostics.DecodeError, "result is a null pointer")
		}
		return e.readBox(p)
	}
	return nil, diagnostics.New(diagnostics.DecodeError, "cannot decode result of type %s", r.Type)
}

func (e *Engine) readBox(p *Pointer) (*value.NodeValue, error) {
	if p.index != 0 || len(p.obj.cells) != 2 {
		return nil, diagnostics.New(diagnostics.DecodeError, "result does not point at a box")
	}
	tag, ok1 := p.obj.cells[0].(int64)
	bits, ok2 := p.obj.cells[1].(int64)
	if !ok1 || !ok2 {
		return nil, diagnostics.New(diagnostics.DecodeError, "box is not initialized")
	}
	t := value.Tag(tag)
	if t == value.String {
		s, ok := e.strings.get(bits)
		if !ok {
			return nil, diagnostics.New(diagnostics.DecodeError, "dangling string handle %d", bits)
		}
		return value.NewString(s), nil
	}
	v, ok := value.FromBits(t, uint64(bits))
	if !ok {
		return nil, diagnostics.New(diagnostics.DecodeError, "invalid box tag %d", tag)
	}
	return v, nil
}

// writeBox allocates a box holding v.
func (e *Engine) writeBox(v *value.NodeValue) *Pointer {
	p := newObject(2)
	p.obj.cells[0] = int64(v.Tag())
	if s, ok := v.AsString(); ok && v.Tag() == value.String {
		p.obj.cells[1] = e.strings.put(s)
	} else {
		p.obj.cells[1] = int64(v.Bits())
	}
	return p
}
