package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/exprjit/internal/artifacts"
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/jit"
	"github.com/funvibe/exprjit/internal/parser"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/value"
)

func TestRunStopsAtFirstError(t *testing.T) {
	var ran []string
	stage := func(name string, fail bool) Processor {
		return ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
			ran = append(ran, name)
			if fail {
				ctx.Err = errors.New(name)
			}
			return ctx
		})
	}
	ctx := New(stage("a", false), stage("b", true), stage("c", false)).Run(NewContext(nil))
	if ctx.Err == nil || ctx.Err.Error() != "b" {
		t.Fatalf("Err = %v, want b", ctx.Err)
	}
	if strings.Join(ran, ",") != "a,b" {
		t.Errorf("ran %v, want a,b", ran)
	}
}

func newCompiler(t *testing.T) (*Compiler, *bytes.Buffer) {
	t.Helper()
	stack := symbols.NewStack(symbols.NewContext(config.RootContextName, nil))
	store, err := artifacts.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	var dump bytes.Buffer
	c := &Compiler{
		Stack:    stack,
		Builder:  ast.NewBuilder(stack),
		Engine:   jit.New(jit.Config{Bridge: jit.StackBridge{Stack: stack}}),
		Store:    store,
		Optimize: true,
		DumpIR:   &dump,
	}
	return c, &dump
}

func parseOne(t *testing.T, c *Compiler, input string) ast.Node {
	t.Helper()
	p := parser.New(input, c.Builder, ".")
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse %q: %v", input, errs[0])
	}
	return prog.Statements[0]
}

func TestCompilerEvaluate(t *testing.T) {
	c, dump := newCompiler(t)
	def := parseOne(t, c, "def add(a, b) { return a + b; }").(*ast.FunctionDef)
	if _, err := c.Define(def); err != nil {
		t.Fatalf("Define: %v", err)
	}
	c.Stack.Root().StoreFunction("add", def)

	top := parseOne(t, c, "add(2, 3)").(*ast.TopLevelExp)
	got, err := c.Evaluate(top.Expr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got.Equal(value.NewLong(5)) {
		t.Errorf("add(2, 3) = %s", got.Inspect())
	}
	if n := c.Engine.Units(); n != 1 {
		t.Errorf("%d units loaded, want only add", n)
	}
	if !strings.Contains(dump.String(), "@"+config.AnonFuncName) {
		t.Errorf("IR dump lacks the wrapper:\n%s", dump.String())
	}

	records, err := c.Store.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("%d records, want 2", len(records))
	}
	if records[0].Kind != artifacts.KindFunction || records[0].Retired {
		t.Errorf("function record = %+v", records[0])
	}
	if want := "def add(a, b) {\n    return a + b;\n}"; records[0].Source != want {
		t.Errorf("function source = %q, want %q", records[0].Source, want)
	}
	if records[1].Kind != artifacts.KindExpression || !records[1].Retired || records[1].Source != "add(2, 3);" {
		t.Errorf("expression record = %+v", records[1])
	}
	if !strings.Contains(dump.String(), "; unit add\n; def add(a, b) {\n") {
		t.Errorf("IR dump lacks the source header:\n%s", dump.String())
	}
}

func TestCompilerRetiresOnFailure(t *testing.T) {
	c, _ := newCompiler(t)
	top := parseOne(t, c, `"a" - "b"`).(*ast.TopLevelExp)
	_, err := c.Evaluate(top.Expr)
	if !diagnostics.Is(err, diagnostics.TypeError) {
		t.Fatalf("got %v, want TypeError", err)
	}
	if n := c.Engine.Units(); n != 0 {
		t.Errorf("%d units left after failure", n)
	}
	if c.Engine.Resident(config.AnonFuncName) {
		t.Error("wrapper still resident")
	}
}

func TestCompilerRedefinition(t *testing.T) {
	c, _ := newCompiler(t)
	first := parseOne(t, c, "def f(a) { return a; }").(*ast.FunctionDef)
	if _, err := c.Define(first); err != nil {
		t.Fatal(err)
	}
	second := parseOne(t, c, "def f(b) { return b * 2; }").(*ast.FunctionDef)
	if _, err := c.Define(second); !diagnostics.Is(err, diagnostics.DefinitionError) {
		t.Fatalf("got %v, want DefinitionError", err)
	}
}
