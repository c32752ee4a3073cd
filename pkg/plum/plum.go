// Package plum packs and unpacks declared binary layouts.
//
// A layout is declared once with the type constructors (NewInt, NewStr,
// NewEnum, NewFlag, NewSeq, NewArray, NewStruct, ...) and is immutable
// afterwards. Every Type converts native Go values into typed Values,
// unpacks them from a byte buffer and packs them back.
//
// Diagnostics are optional: pack and unpack accept a *Record that, when
// non-nil, is filled with the access path, value, bytes and type of every
// node visited. A nil *Record disables recording without changing behaviour.
package plum

import "bytes"

// Variable is the declared size of a type whose encoded length depends on
// the value.
const Variable = -1

// Type is a declared binary layout.
//
// Unpack reads one value at the cursor. parent is the structure under
// construction when the type is a member of one; switch types use it to
// read an earlier discriminator. Pack appends the encoding of v to w,
// converting v through New first when it is not already an exact instance.
type Type interface {
	Name() string
	Size() int
	New(v any) (Value, error)
	Unpack(c *Cursor, rec *Record, parent *Struct) (Value, error)
	Pack(w *bytes.Buffer, v any, rec *Record) error
}

// Value is an instance of a Type.
type Value interface {
	Type() Type
	// Native returns the plain Go form of the value (int64, uint64, float64,
	// string, []byte, []any, map[string]any or nil).
	Native() any
	Equal(other Value) bool
	String() string
}

// Emptier is implemented by types that can build a value when a structure
// member is omitted and has no default.
type Emptier interface {
	Empty() (Value, error)
}

// sumSizes adds declared sizes, propagating Variable.
func sumSizes(types []Type) int {
	total := 0
	for _, t := range types {
		n := t.Size()
		if n == Variable {
			return Variable
		}
		total += n
	}
	return total
}
