// Package symbols implements the scoped symbol context: a chain of
// name-to-binding tables for variables, functions and compiled storage.
package symbols

import (
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/value"
)

// Function is a function binding. The AST's function definition implements it.
type Function interface {
	FunctionName() string
}

// Context is one scope. get*/update* walk the parent chain; store*/remove*
// only touch the local maps.
type Context struct {
	name   string
	parent *Context

	functions map[string]Function
	// A nil value records a declaration without an assigned value.
	variables map[string]*value.NodeValue
	// Storage handles are the slots compiled code loads and stores through.
	storage map[string]llvalue.Value
}

// NewContext creates a context. parent is nil only for the root.
func NewContext(name string, parent *Context) *Context {
	return &Context{
		name:      name,
		parent:    parent,
		functions: make(map[string]Function),
		variables: make(map[string]*value.NodeValue),
		storage:   make(map[string]llvalue.Value),
	}
}

func (c *Context) Name() string { return c.name }

// Parent returns the enclosing context, nil for the root.
func (c *Context) Parent() *Context { return c.parent }

// IsRoot reports whether c has no parent.
func (c *Context) IsRoot() bool { return c.parent == nil }

// Depth is the number of ancestors of c.
func (c *Context) Depth() int {
	d := 0
	for p := c.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// GetVariable returns the nearest binding for name. A found binding may
// carry a nil value when it was declared but never assigned.
func (c *Context) GetVariable(name string) (*value.NodeValue, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Context) GetFunction(name string) (Function, bool) {
	for s := c; s != nil; s = s.parent {
		if fn, ok := s.functions[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (c *Context) GetStorageHandle(name string) (llvalue.Value, bool) {
	for s := c; s != nil; s = s.parent {
		if h, ok := s.storage[name]; ok {
			return h, true
		}
	}
	return nil, false
}

// HasLocalVariable reports whether name is bound in c itself.
func (c *Context) HasLocalVariable(name string) bool {
	_, ok := c.variables[name]
	return ok
}

func (c *Context) HasLocalFunction(name string) bool {
	_, ok := c.functions[name]
	return ok
}

func (c *Context) StoreVariable(name string, v *value.NodeValue) {
	c.variables[name] = v
}

func (c *Context) StoreFunction(name string, fn Function) {
	c.functions[name] = fn
}

func (c *Context) StoreStorageHandle(name string, h llvalue.Value) {
	c.storage[name] = h
}

// DeclareVariable creates an unassigned local binding. Redeclaring a name
// already bound in c is a DefinitionError; shadowing a parent binding is fine.
func (c *Context) DeclareVariable(name string) error {
	if c.HasLocalVariable(name) {
		return diagnostics.New(diagnostics.DefinitionError, "%s is already declared in %s", name, c.name)
	}
	c.variables[name] = nil
	return nil
}

// UpdateVariable overwrites the nearest existing binding.
func (c *Context) UpdateVariable(name string, v *value.NodeValue) error {
	for s := c; s != nil; s = s.parent {
		if _, ok := s.variables[name]; ok {
			s.variables[name] = v
			return nil
		}
	}
	return diagnostics.New(diagnostics.ReferenceError, "%s not defined", name)
}

func (c *Context) UpdateStorageHandle(name string, h llvalue.Value) error {
	for s := c; s != nil; s = s.parent {
		if _, ok := s.storage[name]; ok {
			s.storage[name] = h
			return nil
		}
	}
	return diagnostics.New(diagnostics.ReferenceError, "%s not defined", name)
}

func (c *Context) RemoveVariable(name string) bool {
	_, ok := c.variables[name]
	delete(c.variables, name)
	return ok
}

func (c *Context) RemoveFunction(name string) bool {
	_, ok := c.functions[name]
	delete(c.functions, name)
	return ok
}

func (c *Context) RemoveStorageHandle(name string) bool {
	_, ok := c.storage[name]
	delete(c.storage, name)
	return ok
}

// ClearStorage drops every local storage handle. Handles point into a
// compilation unit and must not outlive it.
func (c *Context) ClearStorage() {
	for name := range c.storage {
		delete(c.storage, name)
	}
}

// VariableNames returns the local variable names (unordered).
func (c *Context) VariableNames() []string {
	names := make([]string, 0, len(c.variables))
	for name := range c.variables {
		names = append(names, name)
	}
	return names
}
