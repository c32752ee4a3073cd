package plum

import (
	"bytes"
	"errors"
	"fmt"
)

// excessAccess labels the dump row that holds trailing bytes.
const excessAccess = "<excess bytes>"

// Pack returns the encoding of v as t.
func Pack(t Type, v any) ([]byte, error) {
	out, err := pack(t, v, nil)
	if err != nil {
		return nil, withDump(err, func(rec *Record) error {
			_, err := pack(t, v, rec)
			return err
		})
	}
	return out, nil
}

// PackAndGetDump is Pack that also returns the dump, including on failure.
func PackAndGetDump(t Type, v any) ([]byte, *Record, error) {
	rec := NewRecord()
	out, err := pack(t, v, rec)
	if err != nil {
		attachDump(err, rec)
		return nil, rec, err
	}
	return out, rec, nil
}

func pack(t Type, v any, rec *Record) ([]byte, error) {
	var w bytes.Buffer
	if err := t.Pack(&w, v, rec); err != nil {
		return nil, err
	}
	if size := t.Size(); size != Variable && w.Len() != size {
		return nil, &SizeError{TypeName: t.Name(), Expected: size, Got: w.Len()}
	}
	return w.Bytes(), nil
}

// Unpack decodes buf as t and requires every byte to be consumed.
func Unpack(t Type, buf []byte) (Value, error) {
	v, _, err := unpack(t, buf, 0, true, nil)
	if err != nil {
		return nil, withDump(err, func(rec *Record) error {
			_, _, err := unpack(t, buf, 0, true, rec)
			return err
		})
	}
	return v, nil
}

// UnpackFrom decodes t at offset and returns the value with the number of
// bytes consumed. Trailing bytes are not an error.
func UnpackFrom(t Type, buf []byte, offset int) (Value, int, error) {
	v, n, err := unpack(t, buf, offset, false, nil)
	if err != nil {
		return nil, 0, withDump(err, func(rec *Record) error {
			_, _, err := unpack(t, buf, offset, false, rec)
			return err
		})
	}
	return v, n, nil
}

// UnpackAndGetDump is Unpack that also returns the dump, including on
// failure.
func UnpackAndGetDump(t Type, buf []byte) (Value, *Record, error) {
	rec := NewRecord()
	v, _, err := unpack(t, buf, 0, true, rec)
	if err != nil {
		attachDump(err, rec)
		return nil, rec, err
	}
	return v, rec, nil
}

// UnpackFromAndGetDump is UnpackFrom that also returns the dump.
func UnpackFromAndGetDump(t Type, buf []byte, offset int) (Value, int, *Record, error) {
	rec := NewRecord()
	v, n, err := unpack(t, buf, offset, false, rec)
	if err != nil {
		attachDump(err, rec)
		return nil, 0, rec, err
	}
	return v, n, rec, nil
}

// CalcSize returns the declared size of t, or false when it varies by value.
func CalcSize(t Type) (int, bool) {
	n := t.Size()
	return n, n != Variable
}

func unpack(t Type, buf []byte, offset int, strict bool, rec *Record) (Value, int, error) {
	if offset < 0 {
		rec.setType(t.Name())
		return nil, 0, &UnpackError{TypeName: t.Name(), Err: fmt.Errorf("%w: negative offset %d", ErrOutOfRange, offset)}
	}
	c := NewCursor(buf, offset)
	v, err := t.Unpack(c, rec, nil)
	if err != nil {
		return nil, 0, declaredShortage(t, c, offset, err)
	}
	if strict && c.Remaining() > 0 {
		leftover := c.Remaining()
		excess := rec.Add(excessAccess)
		c.rest(excess, t.Name())
		return nil, 0, &ExcessMemoryError{TypeName: t.Name(), Leftover: leftover}
	}
	return v, c.Offset() - offset, nil
}

// declaredShortage reports a short buffer against the full declared size
// of a fixed-size type, not just the member that ran out.
func declaredShortage(t Type, c *Cursor, offset int, err error) error {
	var ime *InsufficientMemoryError
	size := t.Size()
	if size == Variable || !errors.As(err, &ime) {
		return err
	}
	avail := max(c.Limit()-offset, 0)
	ime.TypeName = t.Name()
	ime.Need = size
	ime.Available = avail
	ime.Shortage = size - avail
	return err
}

// withDump reruns a failed operation with a record so the returned error
// carries the dump. The first error stands if the rerun disagrees.
func withDump(err error, rerun func(rec *Record) error) error {
	rec := NewRecord()
	if again := rerun(rec); again != nil {
		err = again
	}
	attachDump(err, rec)
	return err
}
