package symbols

// Stack is the list of currently active contexts. The bottom entry is the
// root and is never popped.
type Stack struct {
	contexts []*Context
}

func NewStack(root *Context) *Stack {
	return &Stack{contexts: []*Context{root}}
}

// Current returns the innermost active context.
func (s *Stack) Current() *Context {
	return s.contexts[len(s.contexts)-1]
}

func (s *Stack) Root() *Context {
	return s.contexts[0]
}

func (s *Stack) Push(c *Context) {
	s.contexts = append(s.contexts, c)
}

// Pop removes the innermost context. The root stays; popping it returns nil.
func (s *Stack) Pop() *Context {
	if len(s.contexts) == 1 {
		return nil
	}
	top := s.contexts[len(s.contexts)-1]
	s.contexts = s.contexts[:len(s.contexts)-1]
	return top
}

func (s *Stack) Len() int { return len(s.contexts) }

// Reset pops everything down to the root, used after a failed statement.
func (s *Stack) Reset() {
	s.contexts = s.contexts[:1]
}

// With pushes c, runs fn and pops c again.
func (s *Stack) With(c *Context, fn func() error) error {
	s.Push(c)
	defer s.Pop()
	return fn()
}
