package plum

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strings"
)

// shaper is implemented by types whose length can be held by a dims member.
type shaper interface {
	rank() int
	shape(v Value) []int
	unpackShape(c *Cursor, rec *Record, shape []int) (Value, error)
}

// sizable reports whether t can be sized by a dims member.
func sizable(t Type) (shaper, bool) {
	s, ok := t.(shaper)
	if !ok {
		return nil, false
	}
	switch x := t.(type) {
	case *ByteArrayType:
		return s, x.nbytes == 0
	case *StrType:
		return s, x.nbytes == 0 && !x.zeroTerm
	case *ArrayType:
		return s, slices.Contains(x.dims, Unsized)
	}
	return s, true
}

// StructType is an ordered set of named members.
type StructType struct {
	name    string
	members []Member
	index   map[string]int
	dimsOf  map[string]int // array member -> its dims member
	size    int
}

// NewStruct validates the member list and returns the structure type.
// Dims members and discriminators must be declared before the members that
// depend on them.
func NewStruct(name string, members ...Member) (*StructType, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	t := &StructType{
		name:    name,
		members: slices.Clone(members),
		index:   make(map[string]int, len(members)),
		dimsOf:  make(map[string]int),
	}
	for i, m := range t.members {
		if m.name == "" {
			return nil, fmt.Errorf("%w: %s: member %d has no name", ErrInvalidConfig, name, i)
		}
		if m.typ == nil {
			return nil, fmt.Errorf("%w: %s.%s: no type", ErrInvalidConfig, name, m.name)
		}
		if _, dup := t.index[m.name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate member %q", ErrInvalidConfig, name, m.name)
		}
		t.index[m.name] = i
	}

	variable := false
	for i := range t.members {
		m := &t.members[i]
		switch m.kind {
		case dimsMember:
			if err := t.checkDims(i); err != nil {
				return nil, err
			}
			t.dimsOf[m.array] = i
			t.members[t.index[m.array]].sizedBy = m.name
			variable = true
		case switchMember:
			sw := m.typ.(*SwitchType)
			if sw.err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, m.name, sw.err)
			}
			if j, ok := t.index[sw.disc]; !ok || j >= i {
				return nil, fmt.Errorf("%w: %s.%s: discriminator %q must be declared before it", ErrInvalidConfig, name, m.name, sw.disc)
			}
			variable = true
		}
		if m.hasDefault && m.kind == plainMember {
			if _, err := m.typ.New(m.def); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: default: %v", ErrInvalidConfig, name, m.name, err)
			}
		}
	}

	t.size = Variable
	if !variable {
		types := make([]Type, len(t.members))
		for i, m := range t.members {
			types[i] = m.typ
		}
		t.size = sumSizes(types)
	}
	return t, nil
}

func MustStruct(name string, members ...Member) *StructType {
	return must(NewStruct(name, members...))
}

func (t *StructType) checkDims(i int) error {
	m := t.members[i]
	j, ok := t.index[m.array]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s.%s: no array member %q", ErrInvalidConfig, t.name, m.name, m.array)
	case j <= i:
		return fmt.Errorf("%w: %s.%s: array %q must be declared after its dims", ErrInvalidConfig, t.name, m.name, m.array)
	case m.hasDefault:
		return fmt.Errorf("%w: %s.%s: dims members take no default", ErrInvalidConfig, t.name, m.name)
	}
	if _, taken := t.dimsOf[m.array]; taken {
		return fmt.Errorf("%w: %s.%s: %q already has a dims member", ErrInvalidConfig, t.name, m.name, m.array)
	}
	arr, ok := sizable(t.members[j].typ)
	if !ok {
		return fmt.Errorf("%w: %s.%s: %s cannot be sized by a dims member", ErrInvalidConfig, t.name, m.name, t.members[j].typ.Name())
	}
	switch dt := m.typ.(type) {
	case *IntType:
		if arr.rank() != 1 {
			return fmt.Errorf("%w: %s.%s: %q has %d dimensions, dims is a single integer", ErrInvalidConfig, t.name, m.name, m.array, arr.rank())
		}
	case *SeqType:
		if dt.Len() != arr.rank() {
			return fmt.Errorf("%w: %s.%s: %q has %d dimensions, dims has %d", ErrInvalidConfig, t.name, m.name, m.array, arr.rank(), dt.Len())
		}
		for k := range dt.Len() {
			if _, ok := dt.Slot(k).(*IntType); !ok {
				return fmt.Errorf("%w: %s.%s: dims slot %d is not an integer", ErrInvalidConfig, t.name, m.name, k)
			}
		}
	default:
		return fmt.Errorf("%w: %s.%s: dims must be an integer or a sequence of integers", ErrInvalidConfig, t.name, m.name)
	}
	return nil
}

func (t *StructType) Name() string { return t.name }
func (t *StructType) Size() int    { return t.size }

// Names returns the member names in declaration order.
func (t *StructType) Names() []string {
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.name
	}
	return names
}

// Members returns the member declarations in order.
func (t *StructType) Members() []Member { return slices.Clone(t.members) }

// Member returns the declaration of the member called name.
func (t *StructType) Member(name string) (Member, bool) {
	i, ok := t.index[name]
	if !ok {
		return Member{}, false
	}
	return t.members[i], true
}

// New builds an instance from nil (defaults only), a map keyed by member
// name, or another structure. Omitted members take their default or empty
// value, then dims and switch members are derived once from their siblings.
func (t *StructType) New(v any) (Value, error) {
	var supplied map[string]any
	switch x := v.(type) {
	case nil:
	case *Struct:
		if x.typ == t {
			return x, nil
		}
		supplied = make(map[string]any, len(x.values))
		for i, m := range x.typ.members {
			supplied[m.name] = x.values[i]
		}
	case map[string]any:
		supplied = x
	case map[string]Value:
		supplied = make(map[string]any, len(x))
		for k, val := range x {
			supplied[k] = val
		}
	default:
		return nil, fmt.Errorf("%w: %s from %T", ErrNotConvertible, t.name, v)
	}
	for k := range supplied {
		if _, ok := t.index[k]; !ok {
			return nil, fmt.Errorf("%w: %s has no member %q", ErrNoMember, t.name, k)
		}
	}

	s := &Struct{typ: t, values: make([]Value, len(t.members))}
	explicit := make([]bool, len(t.members))
	for i, m := range t.members {
		raw, ok := supplied[m.name]
		switch {
		case ok:
			explicit[i] = true
		case m.hasDefault:
			raw = m.def
		case m.kind == dimsMember, m.kind == switchMember:
			continue
		default:
			e, ok := m.typ.(Emptier)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s", ErrMissingMember, t.name, m.name)
			}
			val, err := e.Empty()
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.name, m.name, err)
			}
			s.values[i] = val
			continue
		}
		val, err := m.typ.New(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.name, m.name, err)
		}
		s.values[i] = val
	}
	if err := s.touchup(explicit); err != nil {
		return nil, err
	}
	return s, nil
}

// touchup derives dims members that were not supplied and resolves switch
// members, in declaration order.
func (s *Struct) touchup(explicit []bool) error {
	t := s.typ
	for i, m := range t.members {
		switch m.kind {
		case dimsMember:
			if explicit[i] {
				continue
			}
			j := t.index[m.array]
			arr, _ := sizable(t.members[j].typ)
			val, err := dimsValue(m.typ, arr.shape(s.values[j]))
			if err != nil {
				return fmt.Errorf("%s.%s: %w", t.name, m.name, err)
			}
			s.values[i] = val
		case switchMember:
			sw := m.typ.(*SwitchType)
			val, err := sw.resolve(s.values[t.index[sw.disc]], s.values[i])
			if err != nil {
				return fmt.Errorf("%s.%s: %w", t.name, m.name, err)
			}
			s.values[i] = val
		}
	}
	return nil
}

func dimsValue(t Type, shape []int) (Value, error) {
	if _, ok := t.(*SeqType); ok {
		items := make([]any, len(shape))
		for i, n := range shape {
			items[i] = n
		}
		return t.New(items)
	}
	return t.New(shape[0])
}

// shapeOf reads the shape held by a dims value.
func shapeOf(v Value) ([]int, error) {
	var items []Value
	switch x := v.(type) {
	case *Seq:
		items = x.items
	default:
		items = []Value{v}
	}
	shape := make([]int, len(items))
	for i, item := range items {
		n, err := toInteger(item)
		if err != nil || n.neg || n.mag > math.MaxInt {
			return nil, fmt.Errorf("%w: invalid dimension %v", ErrOutOfRange, item)
		}
		shape[i] = int(n.mag)
	}
	return shape, nil
}

// Empty builds an instance from defaults and empty values only.
func (t *StructType) Empty() (Value, error) { return t.New(nil) }

func (t *StructType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	s := &Struct{typ: t, values: make([]Value, len(t.members))}
	for i, m := range t.members {
		child := rec.Add("." + m.name)
		var (
			val Value
			err error
		)
		if m.sizedBy != "" {
			val, err = s.unpackSized(c, child, m)
		} else {
			val, err = m.typ.Unpack(c, child, s)
		}
		if err != nil {
			return nil, err
		}
		s.values[i] = val
	}
	return s, nil
}

func (s *Struct) unpackSized(c *Cursor, rec *Record, m Member) (Value, error) {
	dims, _ := s.Get(m.sizedBy)
	shape, err := shapeOf(dims)
	if err != nil {
		rec.setType(m.typ.Name())
		return nil, &UnpackError{TypeName: m.typ.Name(), Err: fmt.Errorf("%s: %w", m.sizedBy, err)}
	}
	arr, _ := sizable(m.typ)
	return arr.unpackShape(c, rec, shape)
}

func (t *StructType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	s := val.(*Struct)
	if err := s.checkDims(); err != nil {
		return &PackError{TypeName: t.name, Err: err}
	}
	if err := s.checkSwitches(); err != nil {
		return &PackError{TypeName: t.name, Err: err}
	}
	for i, m := range t.members {
		if err := m.typ.Pack(w, s.values[i], rec.Add("."+m.name)); err != nil {
			return err
		}
	}
	return nil
}

// checkDims verifies every dims member against its array.
func (s *Struct) checkDims() error {
	t := s.typ
	for array, i := range t.dimsOf {
		j := t.index[array]
		arr, _ := sizable(t.members[j].typ)
		want := arr.shape(s.values[j])
		got, err := shapeOf(s.values[i])
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.name, t.members[i].name, err)
		}
		if !slices.Equal(want, got) {
			return fmt.Errorf("%w: %s.%s is %v, %s has shape %v", ErrShapeMismatch, t.name, t.members[i].name, got, array, want)
		}
	}
	return nil
}

// checkSwitches verifies every switch member still has the type its
// discriminator selects. Setting a discriminator after construction leaves
// the member stale.
func (s *Struct) checkSwitches() error {
	t := s.typ
	for i, m := range t.members {
		if m.kind != switchMember {
			continue
		}
		sw := m.typ.(*SwitchType)
		disc, _ := s.Get(sw.disc)
		want, ok := sw.Lookup(disc)
		if !ok {
			return fmt.Errorf("%w: %s.%s = %v", ErrUnmapped, t.name, sw.disc, disc)
		}
		val := s.values[i]
		if val == nil || val.Type() == nil {
			continue
		}
		if val.Type() != want {
			return fmt.Errorf("%w: %s.%s is %s, %s = %v selects %s", ErrSwitchMismatch, t.name, m.name, val.Type().Name(), sw.disc, disc, want.Name())
		}
	}
	return nil
}

// Struct is a structure value. It owns its member values.
type Struct struct {
	typ    *StructType
	values []Value
}

func (s *Struct) Type() Type { return s.typ }
func (s *Struct) Len() int   { return len(s.values) }

func (s *Struct) Names() []string { return s.typ.Names() }

// Get returns the member called name. During unpack only earlier members
// are present.
func (s *Struct) Get(name string) (Value, bool) {
	i, ok := s.typ.index[name]
	if !ok || s.values[i] == nil {
		return nil, false
	}
	return s.values[i], true
}

// At returns the member at position i.
func (s *Struct) At(i int) Value { return s.values[i] }

// Set coerces v to the member's type. Dims members are not recomputed.
func (s *Struct) Set(name string, v any) error {
	i, ok := s.typ.index[name]
	if !ok {
		return fmt.Errorf("%w: %s has no member %q", ErrNoMember, s.typ.name, name)
	}
	return s.SetAt(i, v)
}

// SetAt is Set by position.
func (s *Struct) SetAt(i int, v any) error {
	if i < 0 || i >= len(s.values) {
		return fmt.Errorf("%w: %s index %d out of range", ErrNoMember, s.typ.name, i)
	}
	m := s.typ.members[i]
	val, err := m.typ.New(v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", s.typ.name, m.name, err)
	}
	if sw, ok := m.typ.(*SwitchType); ok {
		if val, err = sw.resolve(s.values[s.typ.index[sw.disc]], val); err != nil {
			return fmt.Errorf("%s.%s: %w", s.typ.name, m.name, err)
		}
	}
	s.values[i] = val
	return nil
}

// Native returns the members as a map; use Names for their order.
func (s *Struct) Native() any {
	out := make(map[string]any, len(s.values))
	for i, m := range s.typ.members {
		out[m.name] = s.values[i].Native()
	}
	return out
}

// Equal compares members in order, skipping members ignored on either side.
func (s *Struct) Equal(other Value) bool {
	o, ok := other.(*Struct)
	if !ok || len(o.values) != len(s.values) {
		return false
	}
	for i, m := range s.typ.members {
		om := o.typ.members[i]
		if m.name != om.name {
			return false
		}
		if m.ignore || om.ignore {
			continue
		}
		if !s.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

func (s *Struct) String() string {
	var b strings.Builder
	b.WriteString(s.typ.name)
	b.WriteByte('(')
	for i, m := range s.typ.members {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.name)
		b.WriteByte('=')
		b.WriteString(s.values[i].String())
	}
	b.WriteByte(')')
	return b.String()
}

// As returns member name of s as a T.
func As[T Value](s *Struct, name string) (T, error) {
	var zero T
	v, ok := s.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s has no member %q", ErrNoMember, s.typ.name, name)
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s.%s is %T", ErrNotConvertible, s.typ.name, name, v)
	}
	return x, nil
}
