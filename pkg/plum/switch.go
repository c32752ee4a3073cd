package plum

import (
	"bytes"
	"fmt"
	"reflect"
)

// Untyped carries a raw member value until its switch member has picked a
// concrete type.
type Untyped struct {
	V any
}

func (u Untyped) Type() Type     { return nil }
func (u Untyped) Native() any    { return u.V }
func (u Untyped) String() string { return fmt.Sprintf("Untyped(%v)", u.V) }

func (u Untyped) Equal(other Value) bool {
	o, ok := other.(Untyped)
	return ok && reflect.DeepEqual(u.V, o.V)
}

type switchKey struct {
	text bool
	s    string
	n    integer
}

func keyOf(k any) (switchKey, bool) {
	switch x := k.(type) {
	case string:
		return switchKey{text: true, s: x}, true
	case Text:
		return switchKey{text: true, s: x.s}, true
	}
	n, err := toInteger(k)
	if err != nil {
		return switchKey{}, false
	}
	return switchKey{n: n}, true
}

// SwitchType is the type of a member declared with Switch. Its concrete type
// depends on an earlier member of the same structure.
type SwitchType struct {
	name    string
	disc    string
	mapping map[switchKey]Type
	err     error
}

func newSwitch(member, disc string, mapping map[any]Type) *SwitchType {
	t := &SwitchType{
		name:    fmt.Sprintf("Switch(%s)", disc),
		disc:    disc,
		mapping: make(map[switchKey]Type, len(mapping)),
	}
	for k, typ := range mapping {
		key, ok := keyOf(k)
		switch {
		case !ok:
			t.err = fmt.Errorf("%w: %s: mapping key %v (%T) is not an integer or string", ErrInvalidConfig, member, k, k)
		case typ == nil:
			t.err = fmt.Errorf("%w: %s: mapping key %v has no type", ErrInvalidConfig, member, k)
		default:
			if _, dup := t.mapping[key]; dup {
				t.err = fmt.Errorf("%w: %s: mapping key %v repeats after normalisation", ErrInvalidConfig, member, k)
			}
			t.mapping[key] = typ
		}
	}
	return t
}

func (t *SwitchType) Name() string { return t.name }

// Size is always Variable; the concrete type is known only per value.
func (t *SwitchType) Size() int { return Variable }

// Discriminator names the member whose value selects the concrete type.
func (t *SwitchType) Discriminator() string { return t.disc }

// Lookup returns the concrete type selected by disc.
func (t *SwitchType) Lookup(disc Value) (Type, bool) {
	if disc == nil {
		return nil, false
	}
	if key, ok := keyOf(disc); ok {
		if typ, ok := t.mapping[key]; ok {
			return typ, true
		}
	}
	if e, ok := disc.(Enum); ok && e.Known() {
		typ, ok := t.mapping[switchKey{text: true, s: e.Name()}]
		return typ, ok
	}
	return nil, false
}

// New keeps typed values and wraps anything else as Untyped for the
// enclosing structure to resolve.
func (t *SwitchType) New(v any) (Value, error) {
	switch x := v.(type) {
	case Untyped:
		return x, nil
	case Value:
		if x.Type() != nil {
			return x, nil
		}
	}
	return Untyped{V: v}, nil
}

// resolve coerces v into the type selected by disc.
func (t *SwitchType) resolve(disc Value, v Value) (Value, error) {
	typ, ok := t.Lookup(disc)
	if !ok {
		return nil, fmt.Errorf("%w: %s = %v", ErrUnmapped, t.disc, disc)
	}
	var raw any = v
	if u, ok := v.(Untyped); ok {
		raw = u.V
	}
	if raw == nil {
		if e, ok := typ.(Emptier); ok {
			return e.Empty()
		}
		return nil, fmt.Errorf("%w: no value for %s", ErrMissingMember, typ.Name())
	}
	return typ.New(raw)
}

func (t *SwitchType) Unpack(c *Cursor, rec *Record, parent *Struct) (Value, error) {
	if parent == nil {
		rec.setType(t.name)
		return nil, &UnpackError{TypeName: t.name, Err: fmt.Errorf("%w: no enclosing structure", ErrMissingMember)}
	}
	disc, _ := parent.Get(t.disc)
	typ, ok := t.Lookup(disc)
	if !ok {
		rec.setType(t.name)
		return nil, &UnpackError{TypeName: t.name, Err: fmt.Errorf("%w: %s = %v", ErrUnmapped, t.disc, disc)}
	}
	return typ.Unpack(c, rec, parent)
}

func (t *SwitchType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	val, ok := v.(Value)
	if !ok || val.Type() == nil {
		rec.setType(t.name)
		return &PackError{TypeName: t.name, Err: fmt.Errorf("%w: %s needs a resolved value, got %T", ErrNotConvertible, t.name, v)}
	}
	return val.Type().Pack(w, val, rec)
}
