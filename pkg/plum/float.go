package plum

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// FloatConfig declares an IEEE-754 floating point type.
type FloatConfig struct {
	Name  string
	Width int // 4 or 8
	Order ByteOrder
}

// FloatType is a binary32 or binary64 layout.
type FloatType struct {
	name  string
	width int
	order binary.ByteOrder
}

var (
	Float32   = MustFloat(FloatConfig{Name: "Float32", Width: 4})
	Float64   = MustFloat(FloatConfig{Name: "Float64", Width: 8})
	Float32BE = MustFloat(FloatConfig{Name: "Float32BE", Width: 4, Order: BigEndian})
	Float64BE = MustFloat(FloatConfig{Name: "Float64BE", Width: 8, Order: BigEndian})
)

func NewFloat(cfg FloatConfig) (*FloatType, error) {
	if err := checkName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Width != 4 && cfg.Width != 8 {
		return nil, fmt.Errorf("%w: %s: float width must be 4 or 8, got %d", ErrInvalidConfig, cfg.Name, cfg.Width)
	}
	if err := checkOrder(cfg.Name, cfg.Order); err != nil {
		return nil, err
	}
	var order binary.ByteOrder = binary.LittleEndian
	if cfg.Order == BigEndian {
		order = binary.BigEndian
	}
	return &FloatType{name: cfg.Name, width: cfg.Width, order: order}, nil
}

func MustFloat(cfg FloatConfig) *FloatType {
	return must(NewFloat(cfg))
}

func (t *FloatType) Name() string { return t.name }
func (t *FloatType) Size() int    { return t.width }

func (t *FloatType) New(v any) (Value, error) {
	if x, ok := v.(Float); ok && x.typ == t {
		return x, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s from %T", err, t.name, v)
	}
	if t.width == 4 {
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %s cannot hold %g", ErrOutOfRange, t.name, f)
		}
		f = float64(float32(f))
	}
	return Float{typ: t, v: f}, nil
}

func (t *FloatType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	chunk, err := c.take(t.width, rec, t.name)
	if err != nil {
		return nil, err
	}
	var f float64
	if t.width == 4 {
		f = float64(math.Float32frombits(t.order.Uint32(chunk)))
	} else {
		f = math.Float64frombits(t.order.Uint64(chunk))
	}
	v := Float{typ: t, v: f}
	rec.setValue(v)
	return v, nil
}

func (t *FloatType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	f := val.(Float).v
	var buf [8]byte
	if t.width == 4 {
		t.order.PutUint32(buf[:4], math.Float32bits(float32(f)))
	} else {
		t.order.PutUint64(buf[:], math.Float64bits(f))
	}
	start := w.Len()
	w.Write(buf[:t.width])
	rec.setValue(val)
	rec.setMemory(start, buf[:t.width])
	return nil
}

// Float is a floating point value.
type Float struct {
	typ *FloatType
	v   float64
}

func (v Float) Type() Type       { return v.typ }
func (v Float) Float64() float64 { return v.v }
func (v Float) Native() any      { return v.v }

func (v Float) Equal(other Value) bool {
	f, err := toFloat(other)
	return err == nil && f == v.v
}

func (v Float) String() string {
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

type floatLike interface {
	Float64() (float64, error)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case Float:
		return x.v, nil
	case Int, Enum, Flag:
		n, _ := toInteger(x)
		f := float64(n.mag)
		if n.neg {
			f = -f
		}
		return f, nil
	case floatLike:
		f, err := x.Float64()
		if err != nil {
			return 0, ErrNotConvertible
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	}
	return 0, ErrNotConvertible
}
