package exprjit

import (
	"fmt"
	"reflect"

	"github.com/funvibe/exprjit/internal/value"
)

// Marshaller handles conversion between Go and exprjit values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a boxed value. Sized integers keep their
// width: int8 is char, int16 short, int32 int; other integers become long.
func (m *Marshaller) ToValue(val interface{}) (*value.NodeValue, error) {
	if val == nil {
		return value.VoidValue, nil
	}

	// Check if already a boxed value
	if v, ok := val.(*value.NodeValue); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int8:
		return value.NewChar(int8(v.Int())), nil
	case reflect.Int16:
		return value.NewShort(int16(v.Int())), nil
	case reflect.Int32:
		return value.NewInt(int32(v.Int())), nil
	case reflect.Int, reflect.Int64:
		return value.NewLong(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.NewLong(int64(v.Uint())), nil
	case reflect.Float32:
		return value.NewFloat(float32(v.Float())), nil
	case reflect.Float64:
		return value.NewDouble(v.Float()), nil
	case reflect.String:
		return value.NewString(v.String()), nil
	}
	return nil, fmt.Errorf("unsupported Go type %T", val)
}

// FromValue converts a boxed value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(v *value.NodeValue, targetType reflect.Type) (interface{}, error) {
	if v == nil || v.Tag() == value.Void {
		return nil, nil
	}

	// If target type is *value.NodeValue, return as is
	if targetType != nil && targetType == reflect.TypeOf(v) {
		return v, nil
	}

	if targetType != nil {
		switch targetType.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !v.Tag().IsNumeric() {
				break
			}
			out := reflect.New(targetType).Elem()
			out.SetInt(v.AsInt64())
			return out.Interface(), nil
		case reflect.Float32, reflect.Float64:
			if !v.Tag().IsNumeric() {
				break
			}
			out := reflect.New(targetType).Elem()
			out.SetFloat(v.AsFloat64())
			return out.Interface(), nil
		case reflect.String:
			if s, ok := v.AsString(); ok {
				return s, nil
			}
		}
		return nil, fmt.Errorf("cannot convert %s to %s", v.Inspect(), targetType)
	}

	switch v.Tag() {
	case value.Char:
		return int8(v.AsInt64()), nil
	case value.Short:
		return int16(v.AsInt64()), nil
	case value.Int:
		return int32(v.AsInt64()), nil
	case value.Long:
		return v.AsInt64(), nil
	case value.Float:
		return float32(v.AsFloat64()), nil
	case value.Double:
		return v.AsFloat64(), nil
	case value.String:
		s, _ := v.AsString()
		return s, nil
	}
	return nil, fmt.Errorf("unsupported type for conversion: %s", v.Tag())
}
