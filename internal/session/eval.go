package session

import (
	"errors"
	"path/filepath"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/parser"
	"github.com/funvibe/exprjit/internal/token"
	"github.com/funvibe/exprjit/internal/utils"
	"github.com/funvibe/exprjit/internal/value"
)

// Exec runs src like Run but stops at the first failure, which it returns
// unreported. The value of the last top-level expression is returned
// instead of printed, or nil when src has none.
func (s *Session) Exec(src, file string) (*value.NodeValue, error) {
	dir := s.dir
	if file != "" {
		dir = utils.GetModuleDir(file)
		if abs, err := filepath.Abs(file); err == nil {
			s.imported[abs] = true
		}
	}
	prog := parser.New(src, s.Builder, dir).ParseProgram()
	var last *value.NodeValue
	for _, stmt := range prog.Statements {
		var err error
		if top, ok := stmt.(*ast.TopLevelExp); ok {
			last, err = s.Backend.Evaluate(top.Expr)
		} else {
			err = s.dispatch(stmt)
		}
		if err != nil {
			s.Stack.Reset()
			var d *diagnostics.Error
			if errors.As(err, &d) && d.File == "" {
				d.File = file
			}
			return nil, err
		}
	}
	return last, nil
}

// Call invokes the function name with literal arguments on the active
// backend.
func (s *Session) Call(name string, args ...*value.NodeValue) (*value.NodeValue, error) {
	tok := token.Token{Type: token.IDENT, Lexeme: name, Literal: name}
	exprs := make([]ast.Expression, 0, len(args))
	for i, a := range args {
		switch {
		case a == nil || a.Tag() == value.Void:
			return nil, diagnostics.New(diagnostics.TypeError, "argument %d of %s has no value", i+1, name)
		case a.Tag() == value.String:
			str, _ := a.AsString()
			exprs = append(exprs, s.Builder.String(tok, str))
		default:
			exprs = append(exprs, s.Builder.NumberValue(tok, a))
		}
	}
	v, err := s.Backend.Evaluate(s.Builder.Call(tok, name, exprs))
	if err != nil {
		s.Stack.Reset()
		return nil, err
	}
	return v, nil
}
