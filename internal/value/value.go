// Package value implements the boxed runtime value shared by the
// interpreter and compiled code, and the numeric coercion rules.
package value

import (
	"math"
	"strconv"
)

// Tag identifies the concrete type of a NodeValue. Numeric tags are ordered
// by width: Void < Char < Short < Int < Float < Long < Double. String is
// disjoint from the numeric order.
type Tag int32

const (
	Void Tag = iota
	Char
	Short
	Int
	Float
	Long
	Double
	String
)

var tagNames = [...]string{"void", "char", "short", "int", "float", "long", "double", "string"}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "tag(" + strconv.Itoa(int(t)) + ")"
	}
	return tagNames[t]
}

// Valid reports whether t is one of the declared tags.
func (t Tag) Valid() bool { return t >= Void && t <= String }

func (t Tag) IsNumeric() bool  { return t >= Char && t <= Double }
func (t Tag) IsFloating() bool { return t == Float || t == Double }
func (t Tag) IsIntegral() bool { return t == Char || t == Short || t == Int || t == Long }

// NodeValue is an immutable tagged payload. Conversions never mutate the
// receiver; they allocate a new value.
type NodeValue struct {
	tag     Tag
	payload interface{}
}

// VoidValue is the value of an expression that produces nothing.
var VoidValue = &NodeValue{tag: Void}

func NewChar(v int8) *NodeValue      { return &NodeValue{tag: Char, payload: v} }
func NewShort(v int16) *NodeValue    { return &NodeValue{tag: Short, payload: v} }
func NewInt(v int32) *NodeValue      { return &NodeValue{tag: Int, payload: v} }
func NewFloat(v float32) *NodeValue  { return &NodeValue{tag: Float, payload: v} }
func NewLong(v int64) *NodeValue     { return &NodeValue{tag: Long, payload: v} }
func NewDouble(v float64) *NodeValue { return &NodeValue{tag: Double, payload: v} }
func NewString(v string) *NodeValue  { return &NodeValue{tag: String, payload: v} }

func (v *NodeValue) Tag() Tag             { return v.tag }
func (v *NodeValue) Payload() interface{} { return v.payload }

// Get returns the value converted to target. When the value already carries
// target the receiver itself is returned. The second result is false when the
// conversion is unavailable (string <-> numeric, anything involving void).
func (v *NodeValue) Get(target Tag) (*NodeValue, bool) {
	if v.tag == target {
		return v, true
	}
	if !v.tag.IsNumeric() || !target.IsNumeric() {
		return nil, false
	}
	if target.IsFloating() {
		f := v.AsFloat64()
		if target == Float {
			return NewFloat(float32(f)), true
		}
		return NewDouble(f), true
	}
	if v.tag.IsFloating() {
		f := v.AsFloat64()
		switch target {
		case Char:
			return NewChar(int8(f)), true
		case Short:
			return NewShort(int16(f)), true
		case Int:
			return NewInt(int32(f)), true
		}
		return NewLong(int64(f)), true
	}
	return FromInt64(target, v.AsInt64()), true
}

// AsInt64 widens an integral payload. Floating payloads are truncated.
func (v *NodeValue) AsInt64() int64 {
	switch p := v.payload.(type) {
	case int8:
		return int64(p)
	case int16:
		return int64(p)
	case int32:
		return int64(p)
	case int64:
		return p
	case float32:
		return int64(p)
	case float64:
		return int64(p)
	}
	return 0
}

// AsFloat64 widens a numeric payload to float64.
func (v *NodeValue) AsFloat64() float64 {
	switch p := v.payload.(type) {
	case int8:
		return float64(p)
	case int16:
		return float64(p)
	case int32:
		return float64(p)
	case int64:
		return float64(p)
	case float32:
		return float64(p)
	case float64:
		return p
	}
	return 0
}

// AsString returns the payload of a string value.
func (v *NodeValue) AsString() (string, bool) {
	s, ok := v.payload.(string)
	return s, ok
}

// FromInt64 narrows x to the integral tag, wrapping like a machine cast.
func FromInt64(tag Tag, x int64) *NodeValue {
	switch tag {
	case Char:
		return NewChar(int8(x))
	case Short:
		return NewShort(int16(x))
	case Int:
		return NewInt(int32(x))
	}
	return NewLong(x)
}

// Bits returns the machine word stored in a compiled box: integral payloads
// sign-extended to 64 bits, floating payloads as float64 bits.
func (v *NodeValue) Bits() uint64 {
	if v.tag.IsFloating() {
		return math.Float64bits(v.AsFloat64())
	}
	return uint64(v.AsInt64())
}

// FromBits decodes a compiled box word. String boxes are resolved by the
// caller, which owns the string arena.
func FromBits(tag Tag, bits uint64) (*NodeValue, bool) {
	switch {
	case tag == Void:
		return VoidValue, true
	case tag == Float:
		return NewFloat(float32(math.Float64frombits(bits))), true
	case tag == Double:
		return NewDouble(math.Float64frombits(bits)), true
	case tag.IsIntegral():
		return FromInt64(tag, int64(bits)), true
	}
	return nil, false
}

// Equal compares tag and payload.
func (v *NodeValue) Equal(o *NodeValue) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.tag == o.tag && v.payload == o.payload
}

func (v *NodeValue) String() string {
	if v == nil {
		return "<no value>"
	}
	switch p := v.payload.(type) {
	case int8:
		return strconv.FormatInt(int64(p), 10)
	case int16:
		return strconv.FormatInt(int64(p), 10)
	case int32:
		return strconv.FormatInt(int64(p), 10)
	case int64:
		return strconv.FormatInt(p, 10)
	case float32:
		return strconv.FormatFloat(float64(p), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(p, 'g', -1, 64)
	case string:
		return strconv.Quote(p)
	}
	return "void"
}

// Inspect renders the value with its tag, e.g. "5 (long)".
func (v *NodeValue) Inspect() string {
	if v == nil {
		return "<no value>"
	}
	return v.String() + " (" + v.tag.String() + ")"
}
