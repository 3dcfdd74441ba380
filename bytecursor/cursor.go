// Package bytecursor provides a stateful, allocation-free reader over a
// byte slice with explicit per-call endianness.
package bytecursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned whenever a read would cross the cursor's bound.
var ErrTruncated = errors.New("bytecursor: truncated read")

// Cursor tracks a read position within a fixed byte slice. The zero value
// is not usable; construct one with New or SubCursor.
type Cursor struct {
	data []byte
	pos  int
}

// New creates a Cursor over data starting at offset 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the total length of the underlying slice.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, c.Remaining())
	}
	return nil
}

// SeekRelative advances (or rewinds, with a negative n) the read position
// by n bytes. It fails if the result would fall outside the slice.
func (c *Cursor) SeekRelative(n int) error {
	target := c.pos + n
	if target < 0 || target > len(c.data) {
		return fmt.Errorf("%w: seek to %d out of bounds [0,%d]", ErrTruncated, target, len(c.data))
	}
	c.pos = target
	return nil
}

// ReadBytes returns a view over the next n bytes and advances the cursor.
// The returned slice aliases the cursor's backing array.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// SubCursor returns a new Cursor bounded to the next n bytes and advances
// this cursor past them.
func (c *Cursor) SubCursor(n int) (*Cursor, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

// ReadU8 reads an unsigned 8-bit integer.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadU16BE reads a big-endian unsigned 16-bit integer.
func (c *Cursor) ReadU16BE() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32BE reads a big-endian unsigned 32-bit integer.
func (c *Cursor) ReadU32BE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI16BE reads a big-endian signed 16-bit integer.
func (c *Cursor) ReadI16BE() (int16, error) {
	v, err := c.ReadU16BE()
	return int16(v), err
}

// ReadI32BE reads a big-endian signed 32-bit integer.
func (c *Cursor) ReadI32BE() (int32, error) {
	v, err := c.ReadU32BE()
	return int32(v), err
}

// ReadU32LE reads a little-endian unsigned 32-bit integer.
func (c *Cursor) ReadU32LE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32LE reads a little-endian signed 32-bit integer.
func (c *Cursor) ReadI32LE() (int32, error) {
	v, err := c.ReadU32LE()
	return int32(v), err
}

// ReadI64LE reads a little-endian signed 64-bit integer.
func (c *Cursor) ReadI64LE() (int64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return int64(v), nil
}

// ReadF64LE reads a little-endian IEEE-754 double.
func (c *Cursor) ReadF64LE() (float64, error) {
	v, err := c.ReadI64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// ReadCString reads bytes up to (and past) the next NUL terminator and
// returns them decoded as UTF-8, excluding the terminator.
func (c *Cursor) ReadCString() (string, error) {
	for i := c.pos; i < len(c.data); i++ {
		if c.data[i] == 0 {
			s := string(c.data[c.pos:i])
			c.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unterminated cstring starting at offset %d", ErrTruncated, c.pos)
}

// LengthPrefixType selects the integer encoding of a length-prefixed
// string's size field.
type LengthPrefixType int

const (
	// LengthU16BE reads the length as a big-endian uint16.
	LengthU16BE LengthPrefixType = iota
	// LengthI32LE reads the length as a little-endian int32.
	LengthI32LE
)

// ReadLengthPrefixedString reads a length, then that many bytes of UTF-8
// text, according to prefixType.
func (c *Cursor) ReadLengthPrefixedString(prefixType LengthPrefixType) (string, error) {
	var n int
	switch prefixType {
	case LengthU16BE:
		v, err := c.ReadU16BE()
		if err != nil {
			return "", err
		}
		n = int(v)
	case LengthI32LE:
		v, err := c.ReadI32LE()
		if err != nil {
			return "", err
		}
		if v < 0 {
			return "", fmt.Errorf("%w: negative string length %d", ErrTruncated, v)
		}
		n = int(v)
	default:
		return "", fmt.Errorf("bytecursor: unknown length prefix type %d", prefixType)
	}
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
