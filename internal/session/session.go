// Package session holds the state one interactive or file run shares across
// statements: the context stack, the interpreter, the execution engine and
// the selected backend. Evaluate is the recovery boundary for a statement.
package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/funvibe/exprjit/internal/artifacts"
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/backend"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/evaluator"
	"github.com/funvibe/exprjit/internal/jit"
	"github.com/funvibe/exprjit/internal/parser"
	"github.com/funvibe/exprjit/internal/pipeline"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/utils"
	"github.com/funvibe/exprjit/internal/value"
)

// Options configures a Session.
type Options struct {
	Settings *config.Settings
	// Out receives results, Err receives diagnostics.
	Out io.Writer
	Err io.Writer
	// Color enables ANSI colour in diagnostics.
	Color bool
	// Dir resolves imports issued at the top level.
	Dir    string
	Logger *slog.Logger
}

type Session struct {
	Stack    *symbols.Stack
	Builder  *ast.Builder
	Eval     *evaluator.Evaluator
	Engine   *jit.Engine
	Compiler *pipeline.Compiler
	Backend  backend.Backend
	Store    *artifacts.Store

	out      io.Writer
	errOut   io.Writer
	color    bool
	dir      string
	imported map[string]bool
	log      *slog.Logger
}

func New(opts Options) (*Session, error) {
	settings := opts.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	stack := symbols.NewStack(symbols.NewContext(config.RootContextName, nil))
	s := &Session{
		Stack:    stack,
		Builder:  ast.NewBuilder(stack),
		Eval:     evaluator.New(stack),
		out:      out,
		errOut:   errOut,
		color:    opts.Color,
		dir:      opts.Dir,
		imported: make(map[string]bool),
		log:      log,
	}
	s.Engine = jit.New(jit.Config{
		MaxSteps: settings.MaxSteps,
		Bridge:   jit.StackBridge{Stack: stack},
		Logger:   log,
	})
	if settings.Artifacts != "" {
		store, err := artifacts.Open(settings.Artifacts)
		if err != nil {
			return nil, err
		}
		s.Store = store
	}
	s.Compiler = &pipeline.Compiler{
		Stack:    stack,
		Builder:  s.Builder,
		Engine:   s.Engine,
		Store:    s.Store,
		Optimize: settings.Optimize,
		Log:      log,
	}
	if settings.DumpIR {
		s.Compiler.DumpIR = errOut
	}
	b, err := backend.New(settings.Backend, s.Eval, s.Compiler)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Backend = b
	log.Debug("session started", "backend", b.Name(), "artifacts", settings.Artifacts)
	return s, nil
}

// Close releases the artifact store.
func (s *Session) Close() error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// Evaluate processes one statement through its category's strategy. A
// failure is reported as "Kind: message", the context stack is reset to
// the root and every existing binding is kept.
func (s *Session) Evaluate(n ast.Node) error {
	err := s.dispatch(n)
	if err != nil {
		s.report(err)
	}
	return err
}

func (s *Session) report(err error) {
	diagnostics.Fprint(s.errOut, err, s.color)
	s.Stack.Reset()
}

func (s *Session) dispatch(n ast.Node) error {
	if n == nil {
		return nil
	}
	strategy, ok := strategies[n.Category()]
	if !ok {
		return diagnostics.NewAt(diagnostics.SyntaxError, n.GetToken(), "no strategy for %s", n.Kind())
	}
	return strategy(s, n)
}

// PrintResult writes a value produced by a statement.
func (s *Session) PrintResult(v *value.NodeValue) {
	io.WriteString(s.out, v.String()+"\n")
}

func (s *Session) announce(verb, name string) {
	io.WriteString(s.out, verb+" "+name+"\n")
}

// Run parses src and evaluates its statements in order. Statements after a
// failing one still run; the first error is returned. A named file counts as
// imported, so an import cycle back to it is skipped.
func (s *Session) Run(src, file string) error {
	dir := s.dir
	if file != "" {
		dir = utils.GetModuleDir(file)
		if abs, err := filepath.Abs(file); err == nil {
			s.imported[abs] = true
		}
	}
	return s.run(src, file, dir, true)
}

// run evaluates the statements of src. With recover set every failure is
// reported and evaluation continues; otherwise the first failure is returned
// unreported.
func (s *Session) run(src, file, dir string, recover bool) error {
	p := parser.New(src, s.Builder, dir)
	prog := p.ParseProgram()
	prog.File = file
	var first error
	for _, stmt := range prog.Statements {
		err := s.dispatch(stmt)
		if err == nil {
			continue
		}
		var d *diagnostics.Error
		if errors.As(err, &d) && d.File == "" {
			d.File = file
		}
		if !recover {
			return err
		}
		s.report(err)
		if first == nil {
			first = err
		}
	}
	return first
}
