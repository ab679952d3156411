package value

import (
	"testing"

	"github.com/funvibe/exprjit/internal/diagnostics"
)

func TestCommonTypeTable(t *testing.T) {
	tests := []struct {
		a, b Tag
		want Tag
	}{
		{Long, Double, Double},
		{Double, Char, Double},
		{Float, Float, Float},
		{Float, Long, Double},
		{Long, Float, Double},
		{Float, Int, Float},
		{Short, Float, Float},
		{Long, Int, Long},
		{Int, Short, Int},
		{Short, Char, Short},
		{Char, Char, Char},
		{Long, Long, Long},
	}
	for _, tt := range tests {
		got, ok := CommonType(tt.a, tt.b)
		if !ok || got != tt.want {
			t.Errorf("CommonType(%s, %s) = %s, %v; want %s", tt.a, tt.b, got, ok, tt.want)
		}
	}
	for _, pair := range [][2]Tag{{String, String}, {String, Long}, {Void, Int}} {
		if _, ok := CommonType(pair[0], pair[1]); ok {
			t.Errorf("CommonType(%s, %s) should have no rule", pair[0], pair[1])
		}
	}
}

func TestGetIsIdempotent(t *testing.T) {
	v := NewLong(42)
	got, ok := v.Get(Long)
	if !ok || got != v {
		t.Fatalf("Get with own tag must return the receiver")
	}
	d, ok := v.Get(Double)
	if !ok || d == v || d.Tag() != Double || d.AsFloat64() != 42 {
		t.Errorf("unexpected conversion %v", d.Inspect())
	}
	if v.Tag() != Long || v.AsInt64() != 42 {
		t.Errorf("conversion mutated the source")
	}
}

func TestGetUnavailable(t *testing.T) {
	if _, ok := NewString("x").Get(Long); ok {
		t.Errorf("string -> long must be unavailable")
	}
	if _, ok := NewInt(1).Get(String); ok {
		t.Errorf("int -> string must be unavailable")
	}
	if s, ok := NewString("x").Get(String); !ok || s.Tag() != String {
		t.Errorf("string -> string must be available")
	}
}

func TestGetNarrowing(t *testing.T) {
	c, _ := NewLong(300).Get(Char)
	if c.Payload().(int8) != 44 {
		t.Errorf("expected wrapping narrow to 44, got %v", c.Payload())
	}
	i, _ := NewDouble(3.9).Get(Int)
	if i.Payload().(int32) != 3 {
		t.Errorf("expected truncation to 3, got %v", i.Payload())
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		op   string
		l, r *NodeValue
		want *NodeValue
	}{
		{OpAdd, NewLong(2), NewLong(3), NewLong(5)},
		{OpAdd, NewDouble(2.5), NewLong(3), NewDouble(5.5)},
		{OpMul, NewInt(6), NewShort(7), NewInt(42)},
		{OpSub, NewFloat(1.5), NewInt(1), NewFloat(0.5)},
		{OpAdd, NewFloat(1.5), NewLong(1), NewDouble(2.5)},
		{OpDiv, NewLong(7), NewLong(2), NewLong(3)},
		{OpDiv, NewDouble(7), NewLong(2), NewDouble(3.5)},
		{OpPow, NewLong(2), NewLong(10), NewLong(1024)},
		{OpPow, NewDouble(2), NewLong(-1), NewDouble(0.5)},
		{OpPow, NewLong(2), NewLong(-1), NewLong(0)},
		{OpAdd, NewChar(127), NewChar(1), NewChar(-128)},
		{OpAdd, NewString("ab"), NewString("cd"), NewString("abcd")},
	}
	for _, tt := range tests {
		got, err := Apply(tt.op, tt.l, tt.r)
		if err != nil {
			t.Errorf("%s %s %s: unexpected error %v", tt.l, tt.op, tt.r, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s %s %s = %s; want %s", tt.l, tt.op, tt.r, got.Inspect(), tt.want.Inspect())
		}
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		op   string
		l, r *NodeValue
	}{
		{OpSub, NewString("ab"), NewString("cd")},
		{OpAdd, NewString("ab"), NewLong(1)},
		{OpDiv, NewLong(1), NewLong(0)},
		{"%", NewLong(1), NewLong(2)},
		{OpAdd, VoidValue, NewLong(2)},
	}
	for _, tt := range tests {
		if _, err := Apply(tt.op, tt.l, tt.r); !diagnostics.Is(err, diagnostics.TypeError) {
			t.Errorf("%s %s %s: expected TypeError, got %v", tt.l, tt.op, tt.r, err)
		}
	}
}

func TestUnary(t *testing.T) {
	v, err := ApplyUnary(OpSub, NewInt(5))
	if err != nil || !v.Equal(NewInt(-5)) {
		t.Errorf("unexpected negation %v, %v", v, err)
	}
	if _, err := ApplyUnary("!", NewInt(5)); !diagnostics.Is(err, diagnostics.TypeError) {
		t.Errorf("expected TypeError for !, got %v", err)
	}
	if _, err := Negate(NewString("a")); err == nil {
		t.Errorf("expected error negating a string")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text string
		want *NodeValue
	}{
		{"5", NewLong(5)},
		{"2.5", NewDouble(2.5)},
		{"1e3", NewDouble(1000)},
		{"3i", NewInt(3)},
		{"7s", NewShort(7)},
		{"9c", NewChar(9)},
		{"2.5f", NewFloat(2.5)},
		{"2f", NewFloat(2)},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.text)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %s", tt.text, got, err, tt.want.Inspect())
		}
	}
	for _, bad := range []string{"", "300c", "2.5i", "x"} {
		if _, err := ParseNumber(bad); err == nil {
			t.Errorf("ParseNumber(%q) should fail", bad)
		}
	}
}

func TestBitsRoundTrip(t *testing.T) {
	for _, v := range []*NodeValue{NewLong(-3), NewChar(-1), NewDouble(5.5), NewFloat(0.25), NewInt(7)} {
		got, ok := FromBits(v.Tag(), v.Bits())
		if !ok || !got.Equal(v) {
			t.Errorf("FromBits(Bits(%s)) = %v", v.Inspect(), got)
		}
	}
	if _, ok := FromBits(String, 0); ok {
		t.Errorf("string bits must be resolved by the arena")
	}
}
