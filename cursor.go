package dat

import "fmt"

// cursor tracks a read offset over a fixed buffer.
// off always stays within [0, len(buf)]; buf is never resized.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) size() int      { return len(c.buf) }
func (c *cursor) pos() int       { return c.off }
func (c *cursor) remaining() int { return len(c.buf) - c.off }

// seek moves to pos, or leaves the offset unchanged and returns ErrOutOfRange.
func (c *cursor) seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("%w: position %d outside [0, %d]", ErrOutOfRange, pos, len(c.buf))
	}
	c.off = pos
	return nil
}

// skip advances by n, or leaves the offset unchanged and returns ErrOutOfRange.
func (c *cursor) skip(n int) error {
	if n < 0 || n > c.remaining() {
		return fmt.Errorf("%w: skip %d at %d of %d", ErrOutOfRange, n, c.off, len(c.buf))
	}
	c.off += n
	return nil
}

// read copies up to len(dst) bytes and advances past them.
func (c *cursor) read(dst []byte) int {
	n := copy(dst, c.buf[c.off:])
	c.off += n
	return n
}

// next returns the following n bytes without copying. It consumes nothing
// when fewer than n bytes remain.
func (c *cursor) next(n int) ([]byte, bool) {
	if n > c.remaining() {
		return nil, false
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, true
}
