package serialized

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Kind
// --------------------------------------------------------------------------

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindArray
	KindObject
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is one node of a decoded tree. Only the fields belonging to the
// active Kind are valid.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	floatRaw string // original decimal literal, kept for byte-identical round trips
	strVal   []byte

	entries []Entry // KindArray
	class   string  // KindObject
	props   []Prop  // KindObject
}

// Entry is one ordered key/value pair of an array. Keys are KindInt or
// KindStr values.
type Entry struct {
	Key *Value
	Val *Value
}

// Prop is one ordered property of an object instance.
type Prop struct {
	Name []byte
	Val  *Value
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Float creates a float value. The decimal literal is regenerated on encode.
func Float(v float64) *Value {
	return &Value{kind: KindFloat, floatVal: v}
}

// floatLit creates a float value that remembers its source literal, so an
// untouched decode/encode round trip reproduces the input exactly.
func floatLit(v float64, raw string) *Value {
	return &Value{kind: KindFloat, floatVal: v, floatRaw: raw}
}

// Str creates a string value holding the given byte sequence.
func Str(b []byte) *Value {
	return &Value{kind: KindStr, strVal: b}
}

// StrString creates a string value from a Go string.
func StrString(s string) *Value {
	return &Value{kind: KindStr, strVal: []byte(s)}
}

// Array creates an array value with the given ordered entries.
func Array(entries []Entry) *Value {
	return &Value{kind: KindArray, entries: entries}
}

// Object creates a named object instance with the given ordered properties.
func Object(class string, props []Prop) *Value {
	return &Value{kind: KindObject, class: class, props: props}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Kind returns the active variant.
func (v *Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean payload.
func (v *Value) BoolVal() bool { return v.boolVal }

// IntVal returns the integer payload.
func (v *Value) IntVal() int64 { return v.intVal }

// FloatVal returns the float payload.
func (v *Value) FloatVal() float64 { return v.floatVal }

// StrVal returns the string payload. The slice must not be mutated.
func (v *Value) StrVal() []byte { return v.strVal }

// Entries returns the ordered array entries.
func (v *Value) Entries() []Entry { return v.entries }

// Class returns the object class name.
func (v *Value) Class() string { return v.class }

// Props returns the ordered object properties.
func (v *Value) Props() []Prop { return v.props }

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// Equal reports whether two trees are structurally identical, including
// element order. Floats compare by their encoded literal so that values
// round-tripped through Decode/Encode compare equal to their source.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == o.boolVal
	case KindInt:
		return v.intVal == o.intVal
	case KindFloat:
		return v.floatLiteral() == o.floatLiteral()
	case KindStr:
		return bytes.Equal(v.strVal, o.strVal)
	case KindArray:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if !v.entries[i].Key.Equal(o.entries[i].Key) || !v.entries[i].Val.Equal(o.entries[i].Val) {
				return false
			}
		}
		return true
	case KindObject:
		if v.class != o.class || len(v.props) != len(o.props) {
			return false
		}
		for i := range v.props {
			if !bytes.Equal(v.props[i].Name, o.props[i].Name) || !v.props[i].Val.Equal(o.props[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}

// floatLiteral returns the decimal text form written on encode: the source
// literal when one is known, otherwise a regenerated shortest form.
func (v *Value) floatLiteral() string {
	if v.floatRaw != "" {
		return v.floatRaw
	}
	f := v.floatVal
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	// Shortest round-trip form, uppercase exponent to match the source format.
	return strings.ToUpper(strconv.FormatFloat(f, 'g', -1, 64))
}
