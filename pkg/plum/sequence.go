package plum

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SeqType is a fixed-arity ordered list of typed slots.
type SeqType struct {
	name  string
	slots []Type
	size  int
}

func NewSeq(name string, slots ...Type) (*SeqType, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	for i, s := range slots {
		if s == nil {
			return nil, fmt.Errorf("%w: %s: slot %d has no type", ErrInvalidConfig, name, i)
		}
	}
	return &SeqType{name: name, slots: append([]Type(nil), slots...), size: sumSizes(slots)}, nil
}

func MustSeq(name string, slots ...Type) *SeqType {
	return must(NewSeq(name, slots...))
}

func (t *SeqType) Name() string { return t.name }
func (t *SeqType) Size() int    { return t.size }
func (t *SeqType) Len() int     { return len(t.slots) }

// Slot returns the type of slot i.
func (t *SeqType) Slot(i int) Type { return t.slots[i] }

func (t *SeqType) New(v any) (Value, error) {
	if x, ok := v.(*Seq); ok && x.typ == t {
		return x, nil
	}
	items, ok := toItems(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %T", ErrNotConvertible, t.name, v)
	}
	if len(items) != len(t.slots) {
		return nil, fmt.Errorf("%w: %s takes %d items, got %d", ErrWrongLength, t.name, len(t.slots), len(items))
	}
	s := &Seq{typ: t, items: make([]Value, len(items))}
	for i, item := range items {
		val, err := t.slots[i].New(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", t.name, i, err)
		}
		s.items[i] = val
	}
	return s, nil
}

// Empty builds a sequence when every slot can build an empty value.
func (t *SeqType) Empty() (Value, error) {
	s := &Seq{typ: t, items: make([]Value, len(t.slots))}
	for i, slot := range t.slots {
		e, ok := slot.(Emptier)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] (%s) has no empty value", ErrMissingMember, t.name, i, slot.Name())
		}
		val, err := e.Empty()
		if err != nil {
			return nil, err
		}
		s.items[i] = val
	}
	return s, nil
}

func (t *SeqType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	s := &Seq{typ: t, items: make([]Value, len(t.slots))}
	for i, slot := range t.slots {
		val, err := slot.Unpack(c, rec.Add(index(i)), nil)
		if err != nil {
			return nil, err
		}
		s.items[i] = val
	}
	return s, nil
}

func (t *SeqType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	for i, item := range val.(*Seq).items {
		if err := t.slots[i].Pack(w, item, rec.Add(index(i))); err != nil {
			return err
		}
	}
	return nil
}

// Seq is a sequence value. It owns its items.
type Seq struct {
	typ   *SeqType
	items []Value
}

func (s *Seq) Type() Type { return s.typ }
func (s *Seq) Len() int   { return len(s.items) }

func (s *Seq) At(i int) Value { return s.items[i] }

// Set coerces v to the type of slot i.
func (s *Seq) Set(i int, v any) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: %s index %d out of range", ErrNoMember, s.typ.name, i)
	}
	val, err := s.typ.slots[i].New(v)
	if err != nil {
		return err
	}
	s.items[i] = val
	return nil
}

// Items returns a copy of the item list.
func (s *Seq) Items() []Value { return append([]Value(nil), s.items...) }

func (s *Seq) Native() any { return nativeList(s.items) }

func (s *Seq) Equal(other Value) bool {
	o, ok := other.(*Seq)
	return ok && equalLists(s.items, o.items)
}

func (s *Seq) String() string { return listString(s.items) }

// toItems accepts any slice or array as a list of items.
func toItems(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []Value:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out, true
	case *Seq:
		return toItems(x.items)
	case *Array:
		return toItems(x.items)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func nativeList(items []Value) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item.Native()
	}
	return out
}

func equalLists(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func listString(items []Value) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func index(i int) string { return "[" + strconv.Itoa(i) + "]" }
