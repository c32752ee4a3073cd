package plum

import (
	"bytes"
	"fmt"
	"math"
	"slices"
)

// Unsized marks an array dimension whose length is only known at runtime.
const Unsized = -1

// ArrayConfig declares a homogeneous array.
//
// Dims lists the length of each dimension, outermost first. Unsized
// dimensions come from a dims member of the enclosing structure; without
// one, a leading unsized dimension reads items until the buffer ends. A nil
// Dims is a one-dimensional unsized array.
type ArrayConfig struct {
	Name string
	Elem Type
	Dims []int
}

type ArrayType struct {
	name  string
	elem  Type
	dims  []int
	inner *ArrayType // rows of a multi-dimensional array
	size  int
}

func NewArray(cfg ArrayConfig) (*ArrayType, error) {
	if err := checkName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Elem == nil {
		return nil, fmt.Errorf("%w: %s: no element type", ErrInvalidConfig, cfg.Name)
	}
	dims := slices.Clone(cfg.Dims)
	if len(dims) == 0 {
		dims = []int{Unsized}
	}
	for _, d := range dims {
		if d < 0 && d != Unsized {
			return nil, fmt.Errorf("%w: %s: invalid dimension %d", ErrInvalidConfig, cfg.Name, d)
		}
	}
	if greedy(cfg.Elem) {
		return nil, fmt.Errorf("%w: %s: element %s reads to the end of the buffer", ErrInvalidConfig, cfg.Name, cfg.Elem.Name())
	}
	t := &ArrayType{name: cfg.Name, elem: cfg.Elem, dims: dims}
	if dims[0] == Unsized && cfg.Elem.Size() == 0 {
		return nil, fmt.Errorf("%w: %s: unsized array of zero-width %s", ErrInvalidConfig, cfg.Name, cfg.Elem.Name())
	}
	if len(dims) > 1 {
		inner, err := NewArray(ArrayConfig{Name: cfg.Name + "[]", Elem: cfg.Elem, Dims: dims[1:]})
		if err != nil {
			return nil, err
		}
		t.inner = inner
	}
	t.size = t.elem.Size()
	for _, d := range dims {
		if d == Unsized || t.size == Variable {
			t.size = Variable
			break
		}
		t.size *= d
	}
	return t, nil
}

func MustArray(cfg ArrayConfig) *ArrayType {
	return must(NewArray(cfg))
}

func (t *ArrayType) Name() string { return t.name }
func (t *ArrayType) Size() int    { return t.size }
func (t *ArrayType) Elem() Type   { return t.elem }
func (t *ArrayType) Dims() []int  { return slices.Clone(t.dims) }

// row is the type of each top-level item.
func (t *ArrayType) row() Type {
	if t.inner != nil {
		return t.inner
	}
	return t.elem
}

func (t *ArrayType) New(v any) (Value, error) {
	if x, ok := v.(*Array); ok && x.typ == t {
		return x, nil
	}
	items, ok := toItems(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %T", ErrNotConvertible, t.name, v)
	}
	if d := t.dims[0]; d != Unsized && len(items) != d {
		return nil, fmt.Errorf("%w: %s takes %d items, got %d", ErrWrongLength, t.name, d, len(items))
	}
	a := &Array{typ: t, items: make([]Value, len(items))}
	row := t.row()
	for i, item := range items {
		val, err := row.New(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", t.name, i, err)
		}
		a.items[i] = val
	}
	if t.inner != nil && len(a.items) > 1 {
		first := t.inner.shape(a.items[0])
		for i, item := range a.items[1:] {
			if !slices.Equal(first, t.inner.shape(item)) {
				return nil, fmt.Errorf("%w: %s row %d is not %v", ErrShapeMismatch, t.name, i+1, first)
			}
		}
	}
	return a, nil
}

func (t *ArrayType) Empty() (Value, error) {
	if t.dims[0] != Unsized {
		return nil, fmt.Errorf("%w: %s has a fixed length", ErrMissingMember, t.name)
	}
	return &Array{typ: t, items: []Value{}}, nil
}

func (t *ArrayType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	if !slices.Contains(t.dims, Unsized) {
		return t.unpackShape(c, rec, t.dims)
	}
	if slices.Contains(t.dims[1:], Unsized) {
		rec.setType(t.name)
		return nil, &UnpackError{TypeName: t.name, Err: fmt.Errorf("%w: inner dimensions need a dims member", ErrMissingMember)}
	}
	rec.setType(t.name)
	a := &Array{typ: t, items: []Value{}}
	row := t.row()
	for i := 0; c.Remaining() > 0; i++ {
		start := c.Offset()
		val, err := row.Unpack(c, rec.Add(index(i)), nil)
		if err != nil {
			return nil, err
		}
		if c.Offset() == start {
			return nil, t.stalled(i)
		}
		a.items = append(a.items, val)
	}
	return a, nil
}

func (t *ArrayType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	row := t.row()
	for i, item := range val.(*Array).items {
		if err := row.Pack(w, item, rec.Add(index(i))); err != nil {
			return err
		}
	}
	return nil
}

func (t *ArrayType) rank() int { return len(t.dims) }

func (t *ArrayType) shape(v Value) []int {
	a := v.(*Array)
	out := []int{len(a.items)}
	if t.inner == nil {
		return out
	}
	if len(a.items) > 0 {
		return append(out, t.inner.shape(a.items[0])...)
	}
	for _, d := range t.dims[1:] {
		out = append(out, max(d, 0))
	}
	return out
}

func (t *ArrayType) unpackShape(c *Cursor, rec *Record, shape []int) (Value, error) {
	rec.setType(t.name)
	for i, d := range t.dims {
		if d != Unsized && d != shape[i] {
			return nil, &UnpackError{TypeName: t.name, Err: fmt.Errorf("%w: dimension %d is %d, dims say %d", ErrShapeMismatch, i, d, shape[i])}
		}
	}
	if need, ok := shapeBytes(t.elem, shape); ok && need > c.Remaining() {
		// Fail before allocating for counts the buffer cannot hold.
		_, err := c.take(need, rec, t.name)
		return nil, err
	}
	a := &Array{typ: t, items: make([]Value, 0, min(shape[0], c.Remaining()+1))}
	// Rows without bytes legitimately consume nothing.
	emptyRow := t.elem.Size() == 0 || slices.Contains(shape[1:], 0)
	for i := range shape[0] {
		var (
			val Value
			err error
		)
		child := rec.Add(index(i))
		start := c.Offset()
		if t.inner != nil {
			val, err = t.inner.unpackShape(c, child, shape[1:])
		} else {
			val, err = t.elem.Unpack(c, child, nil)
		}
		if err != nil {
			return nil, err
		}
		if c.Offset() == start && !emptyRow {
			return nil, t.stalled(i)
		}
		a.items = append(a.items, val)
	}
	return a, nil
}

func (t *ArrayType) stalled(i int) error {
	return &UnpackError{TypeName: t.name, Err: fmt.Errorf("%w: item %d of %s", ErrNoProgress, i, t.elem.Name())}
}

// greedy reports whether t reads until the buffer ends rather than
// stopping at a declared length or terminator. Such a type cannot be
// followed by another item of the same array.
func greedy(t Type) bool {
	switch x := t.(type) {
	case *ByteArrayType:
		return x.nbytes == 0
	case *StrType:
		return x.nbytes == 0 && !x.zeroTerm
	case *ArrayType:
		return x.dims[0] == Unsized
	case *SeqType:
		return slices.ContainsFunc(x.slots, greedy)
	case *StructType:
		for _, m := range x.members {
			if m.sizedBy == "" && greedy(m.typ) {
				return true
			}
		}
	case *SwitchType:
		for _, arm := range x.mapping {
			if greedy(arm) {
				return true
			}
		}
	}
	return false
}

// shapeBytes is the byte count of a fixed-size element grid. It saturates
// at math.MaxInt and reports false for variable-size elements.
func shapeBytes(elem Type, shape []int) (int, bool) {
	n := elem.Size()
	if n == Variable {
		return 0, false
	}
	for _, d := range shape {
		if d != 0 && n > math.MaxInt/d {
			return math.MaxInt, true
		}
		n *= d
	}
	return n, true
}

// Array is an array value. Rows of a multi-dimensional array are *Array.
type Array struct {
	typ   *ArrayType
	items []Value
}

func (a *Array) Type() Type     { return a.typ }
func (a *Array) Len() int       { return len(a.items) }
func (a *Array) At(i int) Value { return a.items[i] }
func (a *Array) Shape() []int   { return a.typ.shape(a) }

// Items returns a copy of the top-level items.
func (a *Array) Items() []Value { return append([]Value(nil), a.items...) }

// Append coerces v to the row type and adds it. Dims members of an
// enclosing structure are not updated.
func (a *Array) Append(v any) error {
	if d := a.typ.dims[0]; d != Unsized {
		return fmt.Errorf("%w: %s has a fixed length of %d", ErrWrongLength, a.typ.name, d)
	}
	val, err := a.typ.row().New(v)
	if err != nil {
		return err
	}
	a.items = append(a.items, val)
	return nil
}

func (a *Array) Native() any { return nativeList(a.items) }

func (a *Array) Equal(other Value) bool {
	o, ok := other.(*Array)
	return ok && equalLists(a.items, o.items)
}

func (a *Array) String() string { return listString(a.items) }
