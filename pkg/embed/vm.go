// Package exprjit embeds the expression language in Go programs.
package exprjit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/session"
	"github.com/funvibe/exprjit/internal/value"
)

// VM wraps a session and provides a high-level embedding API.
type VM struct {
	session    *session.Session
	marshaller *Marshaller
}

// Option adjusts the settings a VM starts with.
type Option func(*config.Settings)

// WithBackend selects "jit" or "tree-walk".
func WithBackend(name string) Option {
	return func(s *config.Settings) { s.Backend = name }
}

// WithMaxSteps bounds the instructions one compiled invocation may run.
func WithMaxSteps(n int64) Option {
	return func(s *config.Settings) { s.MaxSteps = n }
}

// New creates a VM. Output the scripts would print is discarded.
func New(opts ...Option) (*VM, error) {
	settings := config.Default()
	for _, opt := range opts {
		opt(settings)
	}
	wd, _ := os.Getwd()
	s, err := session.New(session.Options{
		Settings: settings,
		Out:      io.Discard,
		Err:      io.Discard,
		Dir:      wd,
	})
	if err != nil {
		return nil, err
	}
	return &VM{session: s, marshaller: NewMarshaller()}, nil
}

// Close releases the session's resources.
func (v *VM) Close() error {
	return v.session.Close()
}

// Set binds a global variable, declaring it if needed.
func (v *VM) Set(name string, val interface{}) error {
	nv, err := v.marshaller.ToValue(val)
	if err != nil {
		return err
	}
	v.session.Stack.Root().StoreVariable(name, nv)
	return nil
}

// Get retrieves a global variable.
func (v *VM) Get(name string) (interface{}, error) {
	nv, ok := v.session.Stack.Root().GetVariable(name)
	if !ok {
		return nil, fmt.Errorf("variable '%s' not found", name)
	}
	if nv == nil {
		return nil, fmt.Errorf("variable '%s' has no value", name)
	}
	return v.marshaller.FromValue(nv, nil)
}

// Call calls a function defined in a script by name.
func (v *VM) Call(funcName string, args ...interface{}) (interface{}, error) {
	vals, err := v.marshalArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := v.session.Call(funcName, vals...)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

func (v *VM) marshalArgs(args []interface{}) ([]*value.NodeValue, error) {
	out := make([]*value.NodeValue, len(args))
	for i, arg := range args {
		nv, err := v.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = nv
	}
	return out, nil
}

// Eval executes code and returns the value of its last top-level
// expression, or nil when it has none.
func (v *VM) Eval(code string) (interface{}, error) {
	result, err := v.session.Exec(code, "")
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// LoadFile executes a file; its imports resolve against its directory.
func (v *VM) LoadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	_, err = v.session.Exec(string(content), abs)
	return err
}
