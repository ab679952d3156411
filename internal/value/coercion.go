package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/exprjit/internal/diagnostics"
)

// Binary operators understood by Apply.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpPow = "^"
)

// Operators lists the binary operators in a fixed order.
var Operators = []string{OpAdd, OpSub, OpMul, OpDiv, OpPow}

// CommonType resolves the tag two numeric operands are promoted to.
// The rules apply in order:
//
//	double wins; float+float is float; float+long widens to double;
//	then float, long, int, short, char.
//
// The second result is false when no rule applies (void or string operands).
func CommonType(a, b Tag) (Tag, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Void, false
	}
	switch {
	case a == Double || b == Double:
		return Double, true
	case a == Float && b == Float:
		return Float, true
	case (a == Float && b == Long) || (a == Long && b == Float):
		return Double, true
	case a == Float || b == Float:
		return Float, true
	case a == Long || b == Long:
		return Long, true
	case a == Int || b == Int:
		return Int, true
	case a == Short || b == Short:
		return Short, true
	}
	return Char, true
}

// Apply evaluates l op r in the operands' common type. Two strings support
// only concatenation.
func Apply(op string, l, r *NodeValue) (*NodeValue, error) {
	if l == nil || r == nil {
		return nil, diagnostics.New(diagnostics.TypeError, "operator %s applied to a missing value", op)
	}
	if l.tag == String || r.tag == String {
		return applyString(op, l, r)
	}
	common, ok := CommonType(l.tag, r.tag)
	if !ok {
		return nil, diagnostics.New(diagnostics.TypeError, "unsupported operand types for %s: %s and %s", op, l.tag, r.tag)
	}
	lv, _ := l.Get(common)
	rv, _ := r.Get(common)
	switch common {
	case Double:
		return applyDouble(op, lv.payload.(float64), rv.payload.(float64))
	case Float:
		return applyFloat(op, lv.payload.(float32), rv.payload.(float32))
	}
	return applyIntegral(op, common, lv.AsInt64(), rv.AsInt64())
}

func applyString(op string, l, r *NodeValue) (*NodeValue, error) {
	ls, lok := l.AsString()
	rs, rok := r.AsString()
	if !lok || !rok {
		return nil, diagnostics.New(diagnostics.TypeError, "unsupported operand types for %s: %s and %s", op, l.tag, r.tag)
	}
	if op != OpAdd {
		return nil, diagnostics.New(diagnostics.TypeError, "operator %s is not supported on strings", op)
	}
	return NewString(ls + rs), nil
}

func applyDouble(op string, a, b float64) (*NodeValue, error) {
	switch op {
	case OpAdd:
		return NewDouble(a + b), nil
	case OpSub:
		return NewDouble(a - b), nil
	case OpMul:
		return NewDouble(a * b), nil
	case OpDiv:
		return NewDouble(a / b), nil
	case OpPow:
		return NewDouble(math.Pow(a, b)), nil
	}
	return nil, unknownOperator(op)
}

func applyFloat(op string, a, b float32) (*NodeValue, error) {
	switch op {
	case OpAdd:
		return NewFloat(a + b), nil
	case OpSub:
		return NewFloat(a - b), nil
	case OpMul:
		return NewFloat(a * b), nil
	case OpDiv:
		return NewFloat(a / b), nil
	case OpPow:
		return NewFloat(float32(math.Pow(float64(a), float64(b)))), nil
	}
	return nil, unknownOperator(op)
}

// applyIntegral computes in 64 bits and narrows to tag, which matches
// wrapping arithmetic in the narrower type.
func applyIntegral(op string, tag Tag, a, b int64) (*NodeValue, error) {
	var x int64
	switch op {
	case OpAdd:
		x = a + b
	case OpSub:
		x = a - b
	case OpMul:
		x = a * b
	case OpDiv:
		if b == 0 {
			return nil, diagnostics.New(diagnostics.TypeError, "division by zero")
		}
		if b == -1 {
			x = -a
		} else {
			x = a / b
		}
	case OpPow:
		x = int64(math.Pow(float64(a), float64(b)))
	default:
		return nil, unknownOperator(op)
	}
	return FromInt64(tag, x), nil
}

// Negate implements unary minus.
func Negate(v *NodeValue) (*NodeValue, error) {
	if v == nil {
		return nil, diagnostics.New(diagnostics.TypeError, "negation of a missing value")
	}
	switch p := v.payload.(type) {
	case float64:
		return NewDouble(-p), nil
	case float32:
		return NewFloat(-p), nil
	}
	if v.tag.IsIntegral() {
		return FromInt64(v.tag, -v.AsInt64()), nil
	}
	return nil, diagnostics.New(diagnostics.TypeError, "cannot negate a %s value", v.tag)
}

// ApplyUnary evaluates a prefix operator. Only negation is defined.
func ApplyUnary(op string, v *NodeValue) (*NodeValue, error) {
	if op != OpSub {
		return nil, diagnostics.New(diagnostics.TypeError, "unsupported unary operator %s", op)
	}
	return Negate(v)
}

func unknownOperator(op string) error {
	return diagnostics.New(diagnostics.TypeError, "unknown operator %s", op)
}

// ParseNumber converts numeric literal text. Integer text is long, text with
// a fraction or exponent is double; a trailing c, s, i or f selects char,
// short, int or float.
func ParseNumber(text string) (*NodeValue, error) {
	if text == "" {
		return nil, diagnostics.New(diagnostics.SyntaxError, "empty number literal")
	}
	suffix := text[len(text)-1]
	body := text
	switch suffix {
	case 'c', 's', 'i', 'f':
		body = text[:len(text)-1]
	default:
		suffix = 0
	}
	isFloat := strings.ContainsAny(body, ".eE")
	if isFloat || suffix == 'f' {
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return nil, diagnostics.New(diagnostics.SyntaxError, "invalid number %q", text)
		}
		switch suffix {
		case 'f':
			return NewFloat(float32(f)), nil
		case 0:
			return NewDouble(f), nil
		}
		return nil, diagnostics.New(diagnostics.SyntaxError, "invalid integral suffix on %q", text)
	}
	bits := 64
	tag := Long
	switch suffix {
	case 'c':
		bits, tag = 8, Char
	case 's':
		bits, tag = 16, Short
	case 'i':
		bits, tag = 32, Int
	}
	n, err := strconv.ParseInt(body, 10, bits)
	if err != nil {
		return nil, diagnostics.New(diagnostics.SyntaxError, "invalid number %q", text)
	}
	return FromInt64(tag, n), nil
}
