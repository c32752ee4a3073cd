package plum

type memberKind int

const (
	plainMember memberKind = iota
	dimsMember
	switchMember
)

// Member declares one named member of a structure. Build members with
// Field, Dims and Switch.
type Member struct {
	name       string
	typ        Type
	kind       memberKind
	def        any
	hasDefault bool
	ignore     bool

	array   string // dims members: the array they size
	sizedBy string // set by NewStruct on arrays with a dims member
}

// MemberOption adjusts a member declaration.
type MemberOption func(*Member)

// Default supplies the value used when the member is omitted at
// construction.
func Default(v any) MemberOption {
	return func(m *Member) {
		m.def = v
		m.hasDefault = true
	}
}

// Ignore excludes the member from equality.
func Ignore() MemberOption {
	return func(m *Member) { m.ignore = true }
}

// Field declares a plain member.
func Field(name string, t Type, opts ...MemberOption) Member {
	return build(Member{name: name, typ: t}, opts)
}

// Dims declares a member holding the length (an integer type) or shape (a
// Seq of integer types) of the later member array. When omitted at
// construction it is computed from that array once.
func Dims(name string, t Type, array string, opts ...MemberOption) Member {
	return build(Member{name: name, typ: t, kind: dimsMember, array: array}, opts)
}

// Switch declares a member whose type is picked by looking up the value of
// the earlier member discriminator in mapping. Mapping keys are integers or
// strings; strings match enum member names and text discriminators.
func Switch(name, discriminator string, mapping map[any]Type, opts ...MemberOption) Member {
	return build(Member{name: name, typ: newSwitch(name, discriminator, mapping), kind: switchMember}, opts)
}

func build(m Member, opts []MemberOption) Member {
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Member) Name() string  { return m.name }
func (m Member) Type() Type    { return m.typ }
func (m Member) Ignored() bool { return m.ignore }

// Default returns the declared default.
func (m Member) Default() (any, bool) { return m.def, m.hasDefault }
