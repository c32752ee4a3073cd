package plum

// Cursor tracks the read position and limit within a caller-owned buffer.
// Unpacking never writes to the buffer.
type Cursor struct {
	buf   []byte
	off   int
	limit int
}

// NewCursor returns a cursor at offset whose limit is the end of buf.
func NewCursor(buf []byte, offset int) *Cursor {
	return &Cursor{buf: buf, off: offset, limit: len(buf)}
}

func (c *Cursor) Offset() int { return c.off }

func (c *Cursor) Limit() int { return c.limit }

// Remaining returns the number of bytes left before the limit.
func (c *Cursor) Remaining() int {
	if c.off >= c.limit {
		return 0
	}
	return c.limit - c.off
}

// take consumes exactly n bytes. On a short buffer nothing is consumed and
// rec receives the partial bytes that were available.
func (c *Cursor) take(n int, rec *Record, typeName string) ([]byte, error) {
	start := c.off
	avail := c.Remaining()
	if n > avail {
		rec.setMemory(start, c.peek())
		rec.setText("<insufficient data>")
		return nil, &InsufficientMemoryError{
			TypeName:  typeName,
			Shortage:  n - avail,
			Need:      n,
			Available: avail,
		}
	}
	chunk := c.peek()[:n]
	c.off += n
	rec.setMemory(start, chunk)
	return chunk, nil
}

// rest consumes everything up to the limit.
func (c *Cursor) rest(rec *Record, typeName string) []byte {
	chunk, _ := c.take(c.Remaining(), rec, typeName)
	return chunk
}

// peek returns the unconsumed bytes without advancing.
func (c *Cursor) peek() []byte {
	if c.off >= c.limit {
		return nil
	}
	return c.buf[c.off:c.limit]
}
