package command

import (
	"fmt"
	"reflect"
	"strconv"
)

// ParamType is a declared command parameter type.
type ParamType struct {
	name string
	kind reflect.Kind
}

// Supported parameter types.
var (
	Bool    = ParamType{"bool", reflect.Bool}
	Int     = ParamType{"int", reflect.Int}
	Int8    = ParamType{"int8", reflect.Int8}
	Int16   = ParamType{"int16", reflect.Int16}
	Int32   = ParamType{"int32", reflect.Int32}
	Int64   = ParamType{"int64", reflect.Int64}
	Uint    = ParamType{"uint", reflect.Uint}
	Uint8   = ParamType{"uint8", reflect.Uint8}
	Uint16  = ParamType{"uint16", reflect.Uint16}
	Uint32  = ParamType{"uint32", reflect.Uint32}
	Uint64  = ParamType{"uint64", reflect.Uint64}
	Float32 = ParamType{"float32", reflect.Float32}
	Float64 = ParamType{"float64", reflect.Float64}
	String  = ParamType{"string", reflect.String}
)

// Unsupported records a declared type the dispatcher cannot convert to.
func Unsupported(typeName string) ParamType {
	return ParamType{name: typeName, kind: reflect.Invalid}
}

// String returns the type name used in console messages.
func (p ParamType) String() string { return p.name }

// Supported reports whether tokens can be converted to this type.
func (p ParamType) Supported() bool {
	_, ok := parsers[p.kind]
	return ok
}

type parseFunc func(token string) (any, error)

// parsers converts a token into a value of the matching Go kind.
var parsers = map[reflect.Kind]parseFunc{
	reflect.Bool: func(s string) (any, error) { return strconv.ParseBool(s) },
	reflect.Int: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, strconv.IntSize)
		return int(v), err
	},
	reflect.Int8: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 8)
		return int8(v), err
	},
	reflect.Int16: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	},
	reflect.Int32: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	},
	reflect.Int64: func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) },
	reflect.Uint: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, strconv.IntSize)
		return uint(v), err
	},
	reflect.Uint8: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	},
	reflect.Uint16: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	},
	reflect.Uint32: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	},
	reflect.Uint64: func(s string) (any, error) { return strconv.ParseUint(s, 10, 64) },
	reflect.Float32: func(s string) (any, error) {
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	},
	reflect.Float64: func(s string) (any, error) { return strconv.ParseFloat(s, 64) },
	reflect.String:  func(s string) (any, error) { return s, nil },
}

// Parse converts a token to the parameter's Go value.
func (p ParamType) Parse(token string) (any, error) {
	parse, ok := parsers[p.kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, p.name)
	}
	v, err := parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrParse, p.name, token)
	}
	return v, nil
}

// paramTypeOf maps a reflected Go parameter type onto a ParamType.
// Named types (type Speed float64) are unsupported, like any non-primitive.
func paramTypeOf(t reflect.Type) ParamType {
	if t.PkgPath() == "" {
		for _, p := range []ParamType{Bool, Int, Int8, Int16, Int32, Int64, Uint, Uint8, Uint16, Uint32, Uint64, Float32, Float64, String} {
			if p.kind == t.Kind() {
				return p
			}
		}
	}
	return Unsupported(t.String())
}
