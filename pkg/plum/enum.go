package plum

import (
	"bytes"
	"fmt"
	"slices"
)

// EnumMember is one named constant of an enumeration.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumConfig declares an enumeration over an integer layout. Strict enums
// reject integers with no matching member; the default keeps them.
type EnumConfig struct {
	IntConfig
	Members []EnumMember
	Strict  bool
}

type EnumType struct {
	base    *IntType
	members []EnumMember
	byName  map[string]uint64
	byBits  map[uint64]string
	strict  bool
}

func NewEnum(cfg EnumConfig) (*EnumType, error) {
	base, err := NewInt(cfg.IntConfig)
	if err != nil {
		return nil, err
	}
	t := &EnumType{
		base:    base,
		members: slices.Clone(cfg.Members),
		byName:  make(map[string]uint64, len(cfg.Members)),
		byBits:  make(map[uint64]string, len(cfg.Members)),
		strict:  cfg.Strict,
	}
	for _, m := range cfg.Members {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: %s: member with empty name", ErrInvalidConfig, cfg.Name)
		}
		if _, dup := t.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate member %q", ErrInvalidConfig, cfg.Name, m.Name)
		}
		bits, err := base.convert(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidConfig, cfg.Name, m.Name, err)
		}
		t.byName[m.Name] = bits
		if _, seen := t.byBits[bits]; !seen {
			t.byBits[bits] = m.Name
		}
	}
	return t, nil
}

func MustEnum(cfg EnumConfig) *EnumType {
	return must(NewEnum(cfg))
}

func (t *EnumType) Name() string   { return t.base.name }
func (t *EnumType) Size() int      { return t.base.width }
func (t *EnumType) Base() *IntType { return t.base }
func (t *EnumType) Strict() bool   { return t.strict }

// Members returns the declared constants in declaration order.
func (t *EnumType) Members() []EnumMember { return slices.Clone(t.members) }

// Member returns the constant called name.
func (t *EnumType) Member(name string) (Enum, bool) {
	bits, ok := t.byName[name]
	if !ok {
		return Enum{}, false
	}
	return Enum{typ: t, bits: bits}, true
}

func (t *EnumType) New(v any) (Value, error) {
	switch x := v.(type) {
	case Enum:
		if x.typ == t {
			return x, nil
		}
	case string:
		e, ok := t.Member(x)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no member %q", ErrUnknownValue, t.Name(), x)
		}
		return e, nil
	}
	bits, err := t.base.convert(v)
	if err != nil {
		return nil, err
	}
	return t.make(bits)
}

func (t *EnumType) make(bits uint64) (Enum, error) {
	e := Enum{typ: t, bits: bits}
	if t.strict && !e.Known() {
		return Enum{}, fmt.Errorf("%w: %s has no member with value %s", ErrUnknownValue, t.Name(), e.integer())
	}
	return e, nil
}

func (t *EnumType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.Name())
	chunk, err := c.take(t.base.width, rec, t.Name())
	if err != nil {
		return nil, err
	}
	v, err := t.make(t.base.decode(chunk))
	if err != nil {
		rec.setText(fmt.Sprintf("%s(%s)", t.Name(), integerOf(t.base.decode(chunk), t.base.signed)))
		return nil, &UnpackError{TypeName: t.Name(), Err: err}
	}
	rec.setValue(v)
	return v, nil
}

func (t *EnumType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.Name())
	val, err := t.New(v)
	if err != nil {
		return packErr(t.Name(), err)
	}
	start := w.Len()
	t.base.encode(w, val.(Enum).bits)
	rec.setValue(val)
	rec.setMemory(start, w.Bytes()[start:])
	return nil
}

// Enum is an enumeration value. Values outside the declared set are kept
// unless the type is strict.
type Enum struct {
	typ  *EnumType
	bits uint64
}

func (v Enum) Type() Type { return v.typ }

// Name returns the member name, or "" when the value is not declared.
func (v Enum) Name() string { return v.typ.byBits[v.bits] }

func (v Enum) Known() bool {
	_, ok := v.typ.byBits[v.bits]
	return ok
}

func (v Enum) Int64() int64   { return int64(v.bits) }
func (v Enum) Uint64() uint64 { return v.bits }

func (v Enum) Native() any {
	if v.typ.base.signed {
		return int64(v.bits)
	}
	return v.bits
}

func (v Enum) Equal(other Value) bool {
	n, err := toInteger(other)
	return err == nil && n == v.integer()
}

func (v Enum) String() string {
	if name, ok := v.typ.byBits[v.bits]; ok {
		return fmt.Sprintf("%s.%s (%s)", v.typ.Name(), name, v.integer())
	}
	return fmt.Sprintf("%s(%s)", v.typ.Name(), v.integer())
}

func (v Enum) integer() integer { return integerOf(v.bits, v.typ.base.signed) }
