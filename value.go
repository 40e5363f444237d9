package scpi

import "strconv"

// Type tags the wire type of a parameter or return value. The tag set is
// closed, so decoding and encoding never need runtime type inspection.
type Type uint8

const (
	// TypeInt is a signed integer, decimal on the wire.
	TypeInt Type = iota + 1
	// TypeFloat is a double-precision float.
	TypeFloat
	// TypeBool is "1"/"0" on output and additionally ON/OFF on input.
	TypeBool
	// TypeString is bounded-length text, double-quoted on the wire.
	TypeString
	// TypeChars is raw character data: mnemonic arguments and unquoted
	// response fields such as identification strings.
	TypeChars
)

// String returns a short name for the tag.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeChars:
		return "chars"
	default:
		return "unknown"
	}
}

// Value is one decoded argument or return value, a tagged union over the
// supported wire types.
type Value struct {
	typ Type
	num int64
	flt float64
	str string
}

// Int returns an integer value.
func Int(v int64) Value { return Value{typ: TypeInt, num: v} }

// Float returns a floating point value.
func Float(v float64) Value { return Value{typ: TypeFloat, flt: v} }

// Bool returns a boolean value.
func Bool(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{typ: TypeBool, num: n}
}

// String returns a quoted-text value.
func String(v string) Value { return Value{typ: TypeString, str: v} }

// Chars returns a raw character-data value.
func Chars(v string) Value { return Value{typ: TypeChars, str: v} }

// Type returns the value's tag. The zero Value has no tag.
func (v Value) Type() Type { return v.typ }

// AsInt returns the integer payload.
func (v Value) AsInt() int64 { return v.num }

// AsFloat returns the float payload. An integer value converts.
func (v Value) AsFloat() float64 {
	if v.typ == TypeInt {
		return float64(v.num)
	}
	return v.flt
}

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.num != 0 }

// AsString returns the text payload of a string or chars value.
func (v Value) AsString() string { return v.str }

// text returns the canonical wire form of the value, used by tests and
// diagnostics. Response encoding writes the same form incrementally.
func (v Value) text() string {
	switch v.typ {
	case TypeInt:
		return strconv.FormatInt(v.num, 10)
	case TypeFloat:
		return formatFloat(v.flt)
	case TypeBool:
		if v.num != 0 {
			return "1"
		}
		return "0"
	case TypeString:
		return quoteString(v.str)
	case TypeChars:
		return v.str
	}
	return ""
}
