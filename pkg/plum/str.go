package plum

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// StrConfig declares a text type.
//
// NBytes > 0 fixes the encoded width. Shorter text is padded with Pad (or
// with zero bytes when ZeroTerminated); without either, the encoding must
// fill NBytes exactly. NBytes == 0 is unbounded: a zero-terminated string
// reads up to its terminator, otherwise the text takes the rest of the
// buffer or the length held by a dims member.
type StrConfig struct {
	Name           string
	Encoding       string // default "utf-8"
	NBytes         int
	Pad            []byte
	ZeroTerminated bool
}

type StrType struct {
	name     string
	encName  string
	enc      encoding.Encoding // nil means strict ASCII
	nbytes   int
	pad      byte
	hasPad   bool
	zeroTerm bool
}

var (
	// Str is unbounded UTF-8.
	Str = MustStr(StrConfig{Name: "Str"})
	// CStr is zero-terminated UTF-8.
	CStr = MustStr(StrConfig{Name: "CStr", ZeroTerminated: true})
)

func NewStr(cfg StrConfig) (*StrType, error) {
	if err := checkName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.NBytes < 0 {
		return nil, fmt.Errorf("%w: %s: negative nbytes %d", ErrInvalidConfig, cfg.Name, cfg.NBytes)
	}
	if cfg.Pad != nil && len(cfg.Pad) != 1 {
		return nil, fmt.Errorf("%w: %s: pad must be exactly one byte, got %d", ErrInvalidConfig, cfg.Name, len(cfg.Pad))
	}
	name := cfg.Encoding
	if name == "" {
		name = "utf-8"
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, cfg.Name, err)
	}
	t := &StrType{
		name:     cfg.Name,
		encName:  name,
		enc:      enc,
		nbytes:   cfg.NBytes,
		zeroTerm: cfg.ZeroTerminated,
	}
	if cfg.Pad != nil {
		t.pad, t.hasPad = cfg.Pad[0], true
	}
	if t.zeroTerm {
		// A one-byte terminator only works for byte-oriented encodings.
		if one, err := t.encode("A"); err != nil || len(one) != 1 {
			return nil, fmt.Errorf("%w: %s: zero termination needs a single-byte encoding, not %s", ErrInvalidConfig, cfg.Name, name)
		}
	}
	return t, nil
}

func MustStr(cfg StrConfig) *StrType {
	return must(NewStr(cfg))
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "ascii", "us-ascii":
		return nil, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

func (t *StrType) Name() string     { return t.name }
func (t *StrType) Encoding() string { return t.encName }

func (t *StrType) Size() int {
	if t.nbytes == 0 {
		return Variable
	}
	return t.nbytes
}

func (t *StrType) New(v any) (Value, error) {
	switch x := v.(type) {
	case Text:
		if x.typ == t {
			return x, nil
		}
		return t.make(x.s)
	case string:
		return t.make(x)
	case fmt.Stringer:
		if _, isValue := v.(Value); !isValue {
			return t.make(x.String())
		}
	}
	return nil, fmt.Errorf("%w: %s from %T", ErrNotConvertible, t.name, v)
}

func (t *StrType) make(s string) (Value, error) {
	if _, err := t.encode(s); err != nil {
		return nil, err
	}
	return Text{typ: t, s: s}, nil
}

func (t *StrType) Empty() (Value, error) { return Text{typ: t}, nil }

func (t *StrType) encode(s string) ([]byte, error) {
	if t.enc == nil {
		for i := 0; i < len(s); i++ {
			if s[i] >= 0x80 {
				return nil, fmt.Errorf("%w: %s: byte %#x at %d is not ascii", ErrNotConvertible, t.name, s[i], i)
			}
		}
		return []byte(s), nil
	}
	b, err := t.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotConvertible, t.name, err)
	}
	return b, nil
}

func (t *StrType) decode(b []byte) (string, error) {
	if t.enc == nil {
		for i, c := range b {
			if c >= 0x80 {
				return "", fmt.Errorf("byte %#x at %d is not ascii", c, i)
			}
		}
		return string(b), nil
	}
	if t.enc == unicode.UTF8 {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("invalid utf-8 in % x", b)
		}
		return string(b), nil
	}
	out, err := t.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	// Decoders substitute U+FFFD for bytes they cannot map. Only keep it
	// when it encodes back to the same bytes.
	if bytes.ContainsRune(out, utf8.RuneError) {
		back, err := t.enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, b) {
			return "", fmt.Errorf("invalid %s in % x", t.encName, b)
		}
	}
	return string(out), nil
}

func (t *StrType) Unpack(c *Cursor, rec *Record, _ *Struct) (Value, error) {
	rec.setType(t.name)
	var (
		raw  []byte
		body []byte
		err  error
	)
	switch {
	case t.nbytes > 0:
		if raw, err = c.take(t.nbytes, rec, t.name); err != nil {
			return nil, err
		}
		body = t.strip(raw)
	case t.zeroTerm:
		end := bytes.IndexByte(c.peek(), 0)
		if end < 0 {
			// The terminator is the missing byte.
			_, err := c.take(c.Remaining()+1, rec, t.name)
			return nil, err
		}
		raw, _ = c.take(end+1, rec, t.name)
		body = raw[:end]
	default:
		raw = c.rest(rec, t.name)
		body = t.strip(raw)
	}
	return t.finish(body, rec)
}

func (t *StrType) strip(raw []byte) []byte {
	switch {
	case t.zeroTerm:
		if end := bytes.IndexByte(raw, 0); end >= 0 {
			return raw[:end]
		}
		return raw
	case t.hasPad:
		return bytes.TrimRight(raw, string([]byte{t.pad}))
	}
	return raw
}

func (t *StrType) finish(body []byte, rec *Record) (Value, error) {
	s, err := t.decode(body)
	if err != nil {
		return nil, &UnpackError{TypeName: t.name, Err: err}
	}
	v := Text{typ: t, s: s}
	rec.setValue(v)
	return v, nil
}

func (t *StrType) Pack(w *bytes.Buffer, v any, rec *Record) error {
	rec.setType(t.name)
	val, err := t.New(v)
	if err != nil {
		return packErr(t.name, err)
	}
	b, err := t.encode(val.(Text).s)
	if err != nil {
		return packErr(t.name, err)
	}
	if t.zeroTerm {
		b = append(b, 0)
	}
	if t.nbytes > 0 {
		switch {
		case len(b) > t.nbytes:
			return &SizeError{TypeName: t.name, Expected: t.nbytes, Got: len(b)}
		case len(b) < t.nbytes && (t.hasPad || t.zeroTerm):
			b = append(b, bytes.Repeat([]byte{t.pad}, t.nbytes-len(b))...)
		case len(b) < t.nbytes:
			return &SizeError{TypeName: t.name, Expected: t.nbytes, Got: len(b)}
		}
	}
	start := w.Len()
	w.Write(b)
	rec.setValue(val)
	rec.setMemory(start, b)
	return nil
}

func (t *StrType) rank() int { return 1 }

func (t *StrType) shape(v Value) []int {
	b, err := t.encode(v.(Text).s)
	if err != nil {
		return []int{len(v.(Text).s)}
	}
	return []int{len(b)}
}

func (t *StrType) unpackShape(c *Cursor, rec *Record, shape []int) (Value, error) {
	rec.setType(t.name)
	raw, err := c.take(shape[0], rec, t.name)
	if err != nil {
		return nil, err
	}
	return t.finish(raw, rec)
}

// Text is a string value.
type Text struct {
	typ *StrType
	s   string
}

func (v Text) Type() Type     { return v.typ }
func (v Text) Value() string  { return v.s }
func (v Text) Native() any    { return v.s }
func (v Text) String() string { return strconv.Quote(v.s) }

func (v Text) Equal(other Value) bool {
	o, ok := other.(Text)
	return ok && o.s == v.s
}
