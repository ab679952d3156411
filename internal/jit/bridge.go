package jit

import (
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

// StackBridge resolves variables in the active context of a stack.
type StackBridge struct {
	Stack *symbols.Stack
}

func (b StackBridge) GetVariable(name string) (*value.NodeValue, bool) {
	return b.Stack.Current().GetVariable(name)
}

func (b StackBridge) SetVariable(name string, v *value.NodeValue) error {
	return b.Stack.Current().UpdateVariable(name, v)
}

var _ Bridge = StackBridge{}
