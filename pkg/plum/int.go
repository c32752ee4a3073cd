package plum

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ByteOrder selects how multi-byte scalars are laid out.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// IntConfig declares an integer type.
type IntConfig struct {
	Name   string
	Width  int // bytes, 1..8
	Order  ByteOrder
	Signed bool
}

// IntType is a fixed-width integer layout.
type IntType struct {
	name   string
	width  int
	order  ByteOrder
	signed bool
	min    int64
	max    uint64
}

// Predeclared integers. The plain names are little endian.
var (
	UInt8  = MustInt(IntConfig{Name: "UInt8", Width: 1})
	SInt8  = MustInt(IntConfig{Name: "SInt8", Width: 1, Signed: true})
	UInt16 = MustInt(IntConfig{Name: "UInt16", Width: 2})
	SInt16 = MustInt(IntConfig{Name: "SInt16", Width: 2, Signed: true})
	UInt32 = MustInt(IntConfig{Name: "UInt32", Width: 4})
	SInt32 = MustInt(IntConfig{Name: "SInt32", Width: 4, Signed: true})
	UInt64 = MustInt(IntConfig{Name: "UInt64", Width: 8})
	SInt64 = MustInt(IntConfig{Name: "SInt64", Width: 8, Signed: true})

	UInt16BE = MustInt(IntConfig{Name: "UInt16BE", Width: 2, Order: BigEndian})
	SInt16BE = MustInt(IntConfig{Name: "SInt16BE", Width: 2, Order: BigEndian, Signed: true})
	UInt32BE = MustInt(IntConfig{Name: "UInt32BE", Width: 4, Order: BigEndian})
	SInt32BE = MustInt(IntConfig{Name: "SInt32BE", Width: 4, Order: BigEndian, Signed: true})
	UInt64BE = MustInt(IntConfig{Name: "UInt64BE", Width: 8, Order: BigEndian})
	SInt64BE = MustInt(IntConfig{Name: "SInt64BE", Width: 8, Order: BigEndian, Signed: true})
)

// NewInt validates cfg and returns the integer type.
func NewInt(cfg IntConfig) (*IntType, error) {
	if err := checkName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Width < 1 || cfg.Width > 8 {
		return nil, fmt.Errorf("%w: %s: width %d outside 1..8", ErrInvalidConfig, cfg.Name, cfg.Width)
	}
	if err := checkOrder(cfg.Name, cfg.Order); err != nil {
		return nil, err
	}
	t := &IntType{name: cfg.Name, width: cfg.Width, order: cfg.Order, signed: cfg.Signed}
	bits := uint(8 * cfg.Width)
	if cfg.Signed {
		t.min = -1 << (bits - 1)
		t.max = 1<<(bits-1) - 1
	} else {
		t.max = math.MaxUint64 >> (64 - bits)
	}
	return t, nil
}

// MustInt is NewInt for package-level declarations; it panics on error.
func MustInt(cfg IntConfig) *IntType {
	return must(NewInt(cfg))
}

func (t *IntType) Name() string     { return t.name }
func (t *IntType) Size() int        { return t.width }
func (t *IntType) Width() int       { return t.width }
func (t *IntType) Order() ByteOrder { return t.order }
func (t *IntType) Signed() bool     { return t.signed }

// Range returns the smallest and largest accepted values.
func (t *IntType) Range() (int64, uint64) { return t.min, t.max }

func (t *IntType) New(v any) (Value, error) {
	if x, ok := v.(Int); ok && x.typ == t {
		return x, nil
	}
	bits, err := t.convert(v)
	if err != nil {
		return nil, err
	}
	return Int{typ: t, bits: bits}, nil
}

// convert range-checks any integer-like input and returns its two's
// complement bits.
func (t *IntType) convert(v any) (uint64, error) {
	n, err := toInteger(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s from %T", err, t.name, v)
	}
	if !t.fits(n) {
		return 0, fmt.Errorf("%w: %s accepts %d..%d, got %s", ErrOutOfRange, t.name, t.min, t.max, n)
	}
	return n.bits(), nil
}

func (t *IntType) fits(n integer) bool {
	if n.neg {
		return t.signed && n.mag <= uint64(-(t.min+1))+1
	}
	return n.mag <= t.max
}

func (t *IntType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	chunk, err := c.take(t.width, rec, t.name)
	if err != nil {
		return nil, err
	}
	v := Int{typ: t, bits: t.decode(chunk)}
	rec.setValue(v)
	return v, nil
}

func (t *IntType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	start := w.Len()
	t.encode(w, val.(Int).bits)
	rec.setValue(val)
	rec.setMemory(start, w.Bytes()[start:])
	return nil
}

func (t *IntType) decode(b []byte) uint64 {
	var u uint64
	for i := range t.width {
		shift := 8 * i
		if t.order == BigEndian {
			shift = 8 * (t.width - 1 - i)
		}
		u |= uint64(b[i]) << shift
	}
	if t.signed {
		pad := uint(64 - 8*t.width)
		u = uint64(int64(u<<pad) >> pad)
	}
	return u
}

func (t *IntType) encode(w *bytes.Buffer, u uint64) {
	for i := range t.width {
		shift := 8 * i
		if t.order == BigEndian {
			shift = 8 * (t.width - 1 - i)
		}
		w.WriteByte(byte(u >> shift))
	}
}

// Int is an integer value. Signed values are stored sign-extended.
type Int struct {
	typ  *IntType
	bits uint64
}

func (v Int) Type() Type { return v.typ }

func (v Int) Int64() int64 { return int64(v.bits) }

func (v Int) Uint64() uint64 { return v.bits }

// Int returns the value as an int; it truncates on 32-bit platforms.
func (v Int) Int() int { return int(v.bits) }

func (v Int) Native() any {
	if v.typ.signed {
		return int64(v.bits)
	}
	return v.bits
}

func (v Int) Equal(other Value) bool {
	n, err := toInteger(other)
	return err == nil && n == v.integer()
}

func (v Int) String() string { return v.integer().String() }

func (v Int) integer() integer { return integerOf(v.bits, v.typ.signed) }

// integer is an exact integer as sign and magnitude.
type integer struct {
	neg bool
	mag uint64
}

func integerOf(bits uint64, signed bool) integer {
	if signed && int64(bits) < 0 {
		return integer{neg: true, mag: -bits}
	}
	return integer{mag: bits}
}

func (n integer) bits() uint64 {
	if n.neg {
		return -n.mag
	}
	return n.mag
}

func (n integer) String() string {
	s := strconv.FormatUint(n.mag, 10)
	if n.neg {
		return "-" + s
	}
	return s
}

// intLike is satisfied by json.Number and similar decimal carriers.
type intLike interface {
	Int64() (int64, error)
	String() string
}

// toInteger converts integer-like inputs. Floats and strings are rejected.
func toInteger(v any) (integer, error) {
	switch x := v.(type) {
	case Int:
		return x.integer(), nil
	case Enum:
		return integerOf(x.bits, x.typ.base.signed), nil
	case Flag:
		return integer{mag: x.bits}, nil
	case intLike:
		if i, err := x.Int64(); err == nil {
			return integerOf(uint64(i), true), nil
		}
		u, err := strconv.ParseUint(x.String(), 10, 64)
		if err != nil {
			return integer{}, ErrNotConvertible
		}
		return integer{mag: u}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return integerOf(uint64(rv.Int()), true), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return integer{mag: rv.Uint()}, nil
	}
	return integer{}, ErrNotConvertible
}
