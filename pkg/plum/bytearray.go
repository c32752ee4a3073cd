package plum

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// ByteArrayConfig declares a byte array. NBytes == 0 means unbounded: the
// array takes the rest of the buffer, or the length held by a dims member.
type ByteArrayConfig struct {
	Name   string
	NBytes int
}

type ByteArrayType struct {
	name   string
	nbytes int
}

// ByteArray is the unbounded byte array.
var ByteArray = MustByteArray(ByteArrayConfig{Name: "ByteArray"})

func NewByteArray(cfg ByteArrayConfig) (*ByteArrayType, error) {
	if err := checkName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.NBytes < 0 {
		return nil, fmt.Errorf("%w: %s: negative nbytes %d", ErrInvalidConfig, cfg.Name, cfg.NBytes)
	}
	return &ByteArrayType{name: cfg.Name, nbytes: cfg.NBytes}, nil
}

func MustByteArray(cfg ByteArrayConfig) *ByteArrayType {
	return must(NewByteArray(cfg))
}

func (t *ByteArrayType) Name() string { return t.name }

func (t *ByteArrayType) Size() int {
	if t.nbytes == 0 {
		return Variable
	}
	return t.nbytes
}

func (t *ByteArrayType) New(v any) (Value, error) {
	var b []byte
	switch x := v.(type) {
	case Bytes:
		if x.typ == t {
			return x, nil
		}
		b = x.b
	case []byte:
		b = x
	case string:
		b = []byte(x)
	case []any:
		b = make([]byte, len(x))
		for i, item := range x {
			n, err := UInt8.convert(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", t.name, i, err)
			}
			b[i] = byte(n)
		}
	default:
		return nil, fmt.Errorf("%w: %s from %T", ErrNotConvertible, t.name, v)
	}
	if t.nbytes > 0 && len(b) != t.nbytes {
		return nil, &SizeError{TypeName: t.name, Expected: t.nbytes, Got: len(b)}
	}
	return Bytes{typ: t, b: bytes.Clone(b)}, nil
}

func (t *ByteArrayType) Empty() (Value, error) {
	if t.nbytes > 0 {
		return nil, fmt.Errorf("%w: %s has a fixed length", ErrMissingMember, t.name)
	}
	return Bytes{typ: t, b: []byte{}}, nil
}

func (t *ByteArrayType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	var chunk []byte
	if t.nbytes > 0 {
		var err error
		if chunk, err = c.take(t.nbytes, rec, t.name); err != nil {
			return nil, err
		}
	} else {
		chunk = c.rest(rec, t.name)
	}
	v := Bytes{typ: t, b: bytes.Clone(chunk)}
	rec.setValue(v)
	return v, nil
}

func (t *ByteArrayType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	b := val.(Bytes).b
	start := w.Len()
	w.Write(b)
	rec.setValue(val)
	rec.setMemory(start, b)
	return nil
}

func (t *ByteArrayType) rank() int { return 1 }

func (t *ByteArrayType) shape(v Value) []int {
	return []int{len(v.(Bytes).b)}
}

func (t *ByteArrayType) unpackShape(c *Cursor, rec *Record, shape []int) (Value, error) {
	rec.setType(t.name)
	chunk, err := c.take(shape[0], rec, t.name)
	if err != nil {
		return nil, err
	}
	v := Bytes{typ: t, b: bytes.Clone(chunk)}
	rec.setValue(v)
	return v, nil
}

// Bytes is a byte array value.
type Bytes struct {
	typ *ByteArrayType
	b   []byte
}

func (v Bytes) Type() Type { return v.typ }

// Bytes returns a copy of the contents.
func (v Bytes) Bytes() []byte { return bytes.Clone(v.b) }

func (v Bytes) Len() int { return len(v.b) }

func (v Bytes) Native() any { return bytes.Clone(v.b) }

func (v Bytes) Equal(other Value) bool {
	o, ok := other.(Bytes)
	return ok && bytes.Equal(v.b, o.b)
}

func (v Bytes) String() string {
	if len(v.b) == 0 {
		return "<empty>"
	}
	return "0x" + hex.EncodeToString(v.b)
}
