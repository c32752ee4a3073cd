package plum

import (
	"bytes"
	"fmt"
)

// NilType is a zero-width marker.
type NilType struct{}

// Nil consumes and produces no bytes.
var Nil = &NilType{}

// NilValue is the only value of Nil.
type NilValue struct{}

// None is the canonical Nil value.
var None = NilValue{}

func (t *NilType) Name() string { return "Nil" }
func (t *NilType) Size() int    { return 0 }

func (t *NilType) New(v any) (Value, error) {
	switch v.(type) {
	case nil, NilValue:
		return None, nil
	}
	return nil, fmt.Errorf("%w: Nil from %T", ErrNotConvertible, v)
}

func (t *NilType) Empty() (Value, error) { return None, nil }

func (t *NilType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.Name())
	rec.setMemory(c.Offset(), nil)
	rec.setValue(None)
	return None, nil
}

func (t *NilType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.Name())
	if _, err := t.New(v); err != nil {
		return packErr(t.Name(), err)
	}
	rec.setMemory(w.Len(), nil)
	rec.setValue(None)
	return nil
}

func (NilValue) Type() Type  { return Nil }
func (NilValue) Native() any { return nil }

func (NilValue) Equal(other Value) bool {
	switch other.(type) {
	case nil, NilValue:
		return true
	}
	return false
}

func (NilValue) String() string { return "None" }
