package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/funvibe/exprjit/internal/artifacts"
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/codegen"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/jit"
	"github.com/funvibe/exprjit/internal/prettyprinter"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

// Compiler owns the compiled path: it lowers function definitions into
// resident units and runs top-level expressions through the stages
// wrap, lower, add, resolve, invoke and decode, retiring the unit after.
type Compiler struct {
	Stack   *symbols.Stack
	Builder *ast.Builder
	Engine  *jit.Engine
	// Store, when set, receives the IR of every unit added to the engine.
	Store    *artifacts.Store
	Optimize bool
	// DumpIR, when set, receives each unit's IR before it is added.
	DumpIR io.Writer
	Log    *slog.Logger

	expr *Pipeline
}

func (c *Compiler) logger() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}

func (c *Compiler) generator(u *codegen.Unit) *codegen.Generator {
	return codegen.New(c.Stack, u, codegen.Options{Optimize: c.Optimize, Resident: c.Engine.Resident})
}

// Evaluate compiles and runs one top-level expression.
func (c *Compiler) Evaluate(expr ast.Expression) (*value.NodeValue, error) {
	if c.expr == nil {
		c.expr = New(
			ProcessorFunc(c.wrap),
			ProcessorFunc(c.lower),
			ProcessorFunc(c.add),
			ProcessorFunc(c.resolve),
			ProcessorFunc(c.invoke),
			ProcessorFunc(c.decode),
		)
	}
	ctx := c.expr.Run(NewContext(expr))
	c.retire(ctx)
	if ctx.Err != nil {
		return nil, positioned(ctx.Err, expr)
	}
	return ctx.Result, nil
}

// Define lowers def into its own unit and keeps it resident so later
// units can call it.
func (c *Compiler) Define(def *ast.FunctionDef) (jit.Handle, error) {
	u := codegen.NewUnit(def.Signature.Name)
	if _, err := c.generator(u).LowerFunction(def); err != nil {
		return jit.Handle{}, err
	}
	src := prettyprinter.Format(def)
	c.dump(u, src)
	h, err := c.Engine.AddUnit(u)
	if err != nil {
		return jit.Handle{}, positioned(diagnostics.Wrap(diagnostics.LoweringError, err), def)
	}
	c.save(h, u, artifacts.KindFunction, src)
	c.logger().Debug("function compiled", "name", def.Signature.Name, "handle", h)
	return h, nil
}

// Wrap builds the anonymous function returning expr, scoped under the
// active context.
func (c *Compiler) Wrap(expr ast.Expression) *ast.FunctionDef {
	fs := c.Builder.BeginFunction(expr.GetToken(), config.AnonFuncName)
	return c.Builder.EndFunction(fs, nil, nil, expr)
}

func (c *Compiler) wrap(ctx *PipelineContext) *PipelineContext {
	if ctx.Expr == nil {
		ctx.Err = diagnostics.New(diagnostics.LoweringError, "no expression to evaluate")
		return ctx
	}
	ctx.Wrapper = c.Wrap(ctx.Expr)
	return ctx
}

func (c *Compiler) lower(ctx *PipelineContext) *PipelineContext {
	u := codegen.NewUnit(config.AnonFuncName)
	if _, err := c.generator(u).LowerFunction(ctx.Wrapper); err != nil {
		ctx.Err = err
		return ctx
	}
	c.dump(u, prettyprinter.Format(ctx.Expr))
	ctx.Unit = u
	return ctx
}

func (c *Compiler) add(ctx *PipelineContext) *PipelineContext {
	h, err := c.Engine.AddUnit(ctx.Unit)
	if err != nil {
		ctx.Err = diagnostics.Wrap(diagnostics.LoweringError, err)
		return ctx
	}
	ctx.Handle, ctx.Added = h, true
	c.save(h, ctx.Unit, artifacts.KindExpression, prettyprinter.Format(ctx.Expr))
	return ctx
}

func (c *Compiler) resolve(ctx *PipelineContext) *PipelineContext {
	sym, err := c.Engine.Lookup(config.AnonFuncName)
	if err != nil {
		ctx.Err = diagnostics.Wrap(diagnostics.LoweringError, err)
		return ctx
	}
	ctx.Symbol = sym
	return ctx
}

func (c *Compiler) invoke(ctx *PipelineContext) *PipelineContext {
	raw, err := c.Engine.Invoke(ctx.Symbol)
	if err != nil {
		ctx.Err = diagnostics.Wrap(diagnostics.RuntimeError, err)
		return ctx
	}
	ctx.Raw = raw
	return ctx
}

func (c *Compiler) decode(ctx *PipelineContext) *PipelineContext {
	v, err := c.Engine.Decode(ctx.Raw)
	if err != nil {
		ctx.Err = diagnostics.Wrap(diagnostics.DecodeError, err)
		return ctx
	}
	ctx.Result = v
	return ctx
}

// retire removes the expression unit, whether or not the stages succeeded.
func (c *Compiler) retire(ctx *PipelineContext) {
	if !ctx.Added {
		return
	}
	if err := c.Engine.RemoveUnit(ctx.Handle); err != nil {
		c.logger().Warn("retire unit", "handle", ctx.Handle, "err", err)
	}
	if c.Store != nil {
		if err := c.Store.Retire(context.Background(), ctx.Handle); err != nil {
			c.logger().Warn("retire artifact", "handle", ctx.Handle, "err", err)
		}
	}
	ctx.Added = false
}

// dump writes the unit's IR preceded by its source as comment lines.
func (c *Compiler) dump(u *codegen.Unit, src string) {
	if c.DumpIR == nil {
		return
	}
	fmt.Fprintf(c.DumpIR, "; unit %s\n", u.Name)
	for _, line := range strings.Split(src, "\n") {
		fmt.Fprintf(c.DumpIR, "; %s\n", line)
	}
	fmt.Fprintf(c.DumpIR, "%s\n", u.IR())
}

func (c *Compiler) save(h jit.Handle, u *codegen.Unit, kind, src string) {
	if c.Store == nil {
		return
	}
	r := artifacts.Record{Handle: h, Name: u.Name, Kind: kind, Source: src, IR: u.IR()}
	if err := c.Store.Save(context.Background(), r); err != nil {
		c.logger().Warn("save artifact", "unit", u.Name, "err", err)
	}
}

// positioned attaches n's position to err when it has none.
func positioned(err error, n ast.Node) error {
	d := diagnostics.Wrap(diagnostics.RuntimeError, err)
	if d.Line == 0 && n != nil {
		tok := n.GetToken()
		d.Line, d.Column = tok.Line, tok.Column
	}
	return d
}
