package plum

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FlagMember names one or more bits of a flag type.
type FlagMember struct {
	Name  string
	Value uint64
}

// FlagConfig declares a bit set over an unsigned integer layout. Bits with
// no member are valid and survive a round trip.
type FlagConfig struct {
	IntConfig
	Members []FlagMember
}

type FlagType struct {
	base    *IntType
	members []FlagMember
	byName  map[string]uint64
	mask    uint64
}

func NewFlag(cfg FlagConfig) (*FlagType, error) {
	if cfg.Signed {
		return nil, fmt.Errorf("%w: %s: flags must be unsigned", ErrInvalidConfig, cfg.Name)
	}
	base, err := NewInt(cfg.IntConfig)
	if err != nil {
		return nil, err
	}
	t := &FlagType{
		base:    base,
		members: slices.Clone(cfg.Members),
		byName:  make(map[string]uint64, len(cfg.Members)),
		mask:    base.max,
	}
	for _, m := range cfg.Members {
		switch {
		case m.Name == "" || strings.Contains(m.Name, "|"):
			return nil, fmt.Errorf("%w: %s: invalid member name %q", ErrInvalidConfig, cfg.Name, m.Name)
		case m.Value == 0:
			return nil, fmt.Errorf("%w: %s.%s: member has no bits set", ErrInvalidConfig, cfg.Name, m.Name)
		case m.Value > base.max:
			return nil, fmt.Errorf("%w: %s.%s: %#x exceeds %d bytes", ErrInvalidConfig, cfg.Name, m.Name, m.Value, base.width)
		}
		if _, dup := t.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate member %q", ErrInvalidConfig, cfg.Name, m.Name)
		}
		t.byName[m.Name] = m.Value
	}
	return t, nil
}

func MustFlag(cfg FlagConfig) *FlagType {
	return must(NewFlag(cfg))
}

func (t *FlagType) Name() string   { return t.base.name }
func (t *FlagType) Size() int      { return t.base.width }
func (t *FlagType) Base() *IntType { return t.base }

func (t *FlagType) Members() []FlagMember { return slices.Clone(t.members) }

// Member returns the flag called name.
func (t *FlagType) Member(name string) (Flag, bool) {
	b, ok := t.byName[name]
	if !ok {
		return Flag{}, false
	}
	return Flag{typ: t, bits: b}, true
}

// New accepts integers, member names (optionally joined with "|"), and
// slices of names or integers which are OR-ed together.
func (t *FlagType) New(v any) (Value, error) {
	switch x := v.(type) {
	case Flag:
		if x.typ == t {
			return x, nil
		}
	case string:
		return t.parse(x)
	case []string:
		acc := Flag{typ: t}
		for _, name := range x {
			f, err := t.parse(name)
			if err != nil {
				return nil, err
			}
			acc.bits |= f.bits
		}
		return acc, nil
	case []any:
		acc := Flag{typ: t}
		for i, item := range x {
			f, err := t.New(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", t.Name(), i, err)
			}
			acc.bits |= f.(Flag).bits
		}
		return acc, nil
	}
	b, err := t.base.convert(v)
	if err != nil {
		return nil, err
	}
	return Flag{typ: t, bits: b}, nil
}

func (t *FlagType) parse(s string) (Flag, error) {
	acc := Flag{typ: t}
	if s = strings.TrimSpace(s); s == "" || s == "0" {
		return acc, nil
	}
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if b, ok := t.byName[part]; ok {
			acc.bits |= b
			continue
		}
		b, err := strconv.ParseUint(part, 0, 64)
		if err != nil {
			return Flag{}, fmt.Errorf("%w: %s has no member %q", ErrUnknownValue, t.Name(), part)
		}
		if b > t.mask {
			return Flag{}, fmt.Errorf("%w: %s cannot hold %#x", ErrOutOfRange, t.Name(), b)
		}
		acc.bits |= b
	}
	return acc, nil
}

func (t *FlagType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.Name())
	chunk, err := c.take(t.base.width, rec, t.Name())
	if err != nil {
		return nil, err
	}
	v := Flag{typ: t, bits: t.base.decode(chunk)}
	rec.setValue(v)
	return v, nil
}

func (t *FlagType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.Name())
	val, err := t.New(v)
	if err != nil {
		return packErr(t.Name(), err)
	}
	start := w.Len()
	t.base.encode(w, val.(Flag).bits)
	rec.setValue(val)
	rec.setMemory(start, w.Bytes()[start:])
	return nil
}

// Flag is a bit set value. Every operation returns a value of the same type.
type Flag struct {
	typ  *FlagType
	bits uint64
}

func (v Flag) Type() Type     { return v.typ }
func (v Flag) Uint64() uint64 { return v.bits }
func (v Flag) Native() any    { return v.bits }

func (v Flag) Or(o Flag) Flag  { return Flag{typ: v.typ, bits: v.bits | o.bits} }
func (v Flag) And(o Flag) Flag { return Flag{typ: v.typ, bits: v.bits & o.bits} }
func (v Flag) Xor(o Flag) Flag { return Flag{typ: v.typ, bits: v.bits ^ o.bits} }

// Not inverts every bit of the declared width.
func (v Flag) Not() Flag { return Flag{typ: v.typ, bits: ^v.bits & v.typ.mask} }

// Contains reports whether every bit of o is set in v.
func (v Flag) Contains(o Flag) bool { return v.bits&o.bits == o.bits }

// Has reports whether the member called name is fully set.
func (v Flag) Has(name string) bool {
	b, ok := v.typ.byName[name]
	return ok && v.bits&b == b
}

// Names returns the members fully contained in v, in declaration order.
func (v Flag) Names() []string {
	var names []string
	for _, m := range v.typ.members {
		if v.bits&m.Value == m.Value {
			names = append(names, m.Name)
		}
	}
	return names
}

func (v Flag) Equal(other Value) bool {
	n, err := toInteger(other)
	return err == nil && !n.neg && n.mag == v.bits
}

func (v Flag) String() string {
	if v.bits == 0 {
		return "0"
	}
	var parts []string
	covered := uint64(0)
	for _, m := range v.typ.members {
		if v.bits&m.Value == m.Value && covered&m.Value != m.Value {
			parts = append(parts, m.Name)
			covered |= m.Value
		}
	}
	if rest := v.bits &^ covered; rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(rest, 16))
	}
	return strings.Join(parts, "|")
}
