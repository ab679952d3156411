// Package diagnostics defines the error kinds surfaced by evaluation,
// lowering and the top-level pipeline.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/exprjit/internal/token"
)

// Kind classifies an error.
type Kind string

const (
	SyntaxError     Kind = "SyntaxError"
	DefinitionError Kind = "DefinitionError"
	ReferenceError  Kind = "ReferenceError"
	ArityError      Kind = "ArityError"
	TypeError       Kind = "TypeError"
	LoweringError   Kind = "LoweringError"
	DecodeError     Kind = "DecodeError"
	ImportError     Kind = "ImportError"
	RuntimeError    Kind = "RuntimeError"
)

// Error codes, one per kind.
const (
	ErrP001 = "P001"
	ErrD001 = "D001"
	ErrR001 = "R001"
	ErrA001 = "A001"
	ErrT001 = "T001"
	ErrL001 = "L001"
	ErrJ001 = "J001"
	ErrI001 = "I001"
	ErrE001 = "E001"
)

var codes = map[Kind]string{
	SyntaxError:     ErrP001,
	DefinitionError: ErrD001,
	ReferenceError:  ErrR001,
	ArityError:      ErrA001,
	TypeError:       ErrT001,
	LoweringError:   ErrL001,
	DecodeError:     ErrJ001,
	ImportError:     ErrI001,
	RuntimeError:    ErrE001,
}

// Error is the single concrete error type of the core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an error of the given kind without a position.
func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Code: codes[kind], Message: fmt.Sprintf(format, a...)}
}

// NewAt builds an error positioned at tok.
func NewAt(kind Kind, tok token.Token, format string, a ...interface{}) *Error {
	err := New(kind, format, a...)
	err.Line = tok.Line
	err.Column = tok.Column
	return err
}

// Is reports whether err (or anything it wraps) is a diagnostics error of kind.
func Is(err error, kind Kind) bool {
	var d *Error
	if errors.As(err, &d) {
		return d.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not a diagnostics error.
func KindOf(err error) Kind {
	var d *Error
	if errors.As(err, &d) {
		return d.Kind
	}
	return ""
}

// Wrap converts an arbitrary error into a diagnostics error of kind,
// leaving existing diagnostics errors untouched.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var d *Error
	if errors.As(err, &d) {
		return d
	}
	return New(kind, "%s", err.Error())
}
