package plum

import (
	"bytes"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// MarshalValue encodes v as JSON. Structure members keep their declared
// order, byte arrays become lists of integers, and known enum values are
// written by name so the output can be fed back through UnmarshalValue.
func MarshalValue(v Value) ([]byte, error) {
	return json.Marshal(jsonOf(v))
}

// UnmarshalValue decodes JSON into a value of t. Numbers keep their exact
// decimal form until the target type converts them.
func UnmarshalValue(t Type, data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.Name(), err)
	}
	return t.New(raw)
}

// JSON returns the JSON-friendly form of v, as used by MarshalValue.
func JSON(v Value) any { return jsonOf(v) }

func jsonOf(v Value) any {
	switch x := v.(type) {
	case nil, NilValue:
		return nil
	case *Struct:
		obj := make(orderedObject, len(x.values))
		for i, m := range x.typ.members {
			obj[i] = field{key: m.name, value: jsonOf(x.values[i])}
		}
		return obj
	case *Seq:
		return jsonList(x.items)
	case *Array:
		return jsonList(x.items)
	case Bytes:
		out := make([]int, len(x.b))
		for i, b := range x.b {
			out[i] = int(b)
		}
		return out
	case Enum:
		if x.Known() {
			return x.Name()
		}
		return x.Native()
	case Float:
		if math.IsNaN(x.v) || math.IsInf(x.v, 0) {
			return x.String()
		}
		return x.v
	}
	return v.Native()
}

func jsonList(items []Value) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = jsonOf(item)
	}
	return out
}

type field struct {
	key   string
	value any
}

// orderedObject is a JSON object that keeps insertion order.
type orderedObject []field

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type recordJSON struct {
	Offset   *int      `json:"offset,omitempty"`
	Access   string    `json:"access,omitempty"`
	Value    string    `json:"value,omitempty"`
	Memory   *string   `json:"memory,omitempty"`
	Type     string    `json:"type,omitempty"`
	Children []*Record `json:"children,omitempty"`
}

// MarshalJSON writes the dump tree with memory as spaced hex.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	out := recordJSON{Access: r.Access, Value: r.Value, Type: r.Type, Children: r.Children}
	if r.hasMemory {
		off, mem := r.Offset, spacedHex(r.Memory)
		out.Offset, out.Memory = &off, &mem
	}
	return json.Marshal(out)
}
