package wire

import "encoding/binary"

// Cursor is a bounds-checked reader over an immutable byte slice.
// Every read reports whether enough bytes remained; a short read leaves
// the cursor position unchanged so callers can stop cleanly on truncated
// input instead of indexing past the end.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor creates a cursor positioned at the start of buf.
// The cursor never mutates buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, bool) {
	if c.Remaining() < 1 {
		return 0, false
	}
	v := c.buf[c.off]
	c.off++
	return v, true
}

// Uint16 reads a big-endian 16-bit integer.
func (c *Cursor) Uint16() (uint16, bool) {
	if c.Remaining() < 2 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, true
}

// Uint32 reads a big-endian 32-bit integer.
func (c *Cursor) Uint32() (uint32, bool) {
	if c.Remaining() < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, true
}

// Bytes reads n bytes. The returned slice is a copy, so retaining it does
// not pin the underlying buffer.
func (c *Cursor) Bytes(n int) ([]byte, bool) {
	if n < 0 || c.Remaining() < n {
		return nil, false
	}
	v := make([]byte, n)
	copy(v, c.buf[c.off:c.off+n])
	c.off += n
	return v, true
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) bool {
	if n < 0 || c.Remaining() < n {
		return false
	}
	c.off += n
	return true
}
