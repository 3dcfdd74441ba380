package document

import (
	"errors"
	"fmt"

	"github.com/go-hytale/regionfile/bytecursor"
)

// Tag identifies the on-wire type of a document entry's value.
type Tag uint8

const (
	TagEnd      Tag = 0x00
	TagDouble   Tag = 0x01
	TagString   Tag = 0x02
	TagDocument Tag = 0x03
	TagArray    Tag = 0x04
	TagBinary   Tag = 0x05
	TagBool     Tag = 0x08
	TagNull     Tag = 0x0A
	TagInt32    Tag = 0x10
	TagInt64    Tag = 0x12
)

// ErrUnknownTag is returned when a document entry carries a type tag this
// parser does not recognize.
var ErrUnknownTag = errors.New("document: unknown type tag")

// ErrSizeMismatch is returned when a document's declared byte size does
// not match the number of bytes actually consumed decoding it.
var ErrSizeMismatch = errors.New("document: size prefix mismatch")

// Parse decodes one document (with its own 4-byte little-endian size
// prefix) from the front of data and returns the root Node plus the
// number of bytes consumed.
func Parse(data []byte) (*Node, int, error) {
	c := bytecursor.New(data)
	return parseFrom(c)
}

// parseFrom reads a length-prefixed document starting at the cursor's
// current position, leaving the cursor positioned just past it.
func parseFrom(c *bytecursor.Cursor) (*Node, int, error) {
	start := c.Pos()

	size, err := c.ReadU32LE()
	if err != nil {
		return nil, 0, fmt.Errorf("document: reading size prefix: %w", err)
	}

	body, err := c.SubCursor(int(size) - 4)
	if err != nil {
		return nil, 0, fmt.Errorf("document: reading body of declared size %d: %w", size, err)
	}

	doc := NewDocument()
	for {
		tagByte, err := body.ReadU8()
		if err != nil {
			return nil, 0, fmt.Errorf("document: reading tag: %w", err)
		}
		tag := Tag(tagByte)
		if tag == TagEnd {
			break
		}

		key, err := body.ReadCString()
		if err != nil {
			return nil, 0, fmt.Errorf("document: reading key for tag %#x: %w", tagByte, err)
		}

		value, err := decodeValue(body, tag)
		if err != nil {
			return nil, 0, fmt.Errorf("document: decoding key %q: %w", key, err)
		}
		doc.Set(key, value)
	}

	if body.Remaining() != 0 {
		return nil, 0, fmt.Errorf("%w: declared %d bytes, %d unconsumed", ErrSizeMismatch, size, body.Remaining())
	}

	consumed := c.Pos() - start
	if consumed != int(size) {
		return nil, 0, fmt.Errorf("%w: declared %d bytes, consumed %d", ErrSizeMismatch, size, consumed)
	}

	return doc, consumed, nil
}

// decodeValue decodes the value encoding for a single tagged entry. The
// cursor is positioned immediately after the entry's key.
func decodeValue(c *bytecursor.Cursor, tag Tag) (Node, error) {
	switch tag {
	case TagDouble:
		v, err := c.ReadF64LE()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: KindDouble, Double: v}, nil

	case TagString:
		s, err := c.ReadLengthPrefixedString(bytecursor.LengthI32LE)
		if err != nil {
			return Node{}, err
		}
		// The length prefix includes the trailing NUL; strip it.
		if len(s) > 0 && s[len(s)-1] == 0 {
			s = s[:len(s)-1]
		}
		return Node{Kind: KindString, Str: s}, nil

	case TagDocument, TagArray:
		child, _, err := parseFrom(c)
		if err != nil {
			return Node{}, err
		}
		if tag == TagArray {
			child.Kind = KindArray
		}
		return *child, nil

	case TagBinary:
		n, err := c.ReadI32LE()
		if err != nil {
			return Node{}, err
		}
		if n < 0 {
			return Node{}, fmt.Errorf("document: negative binary length %d", n)
		}
		subtype, err := c.ReadU8()
		if err != nil {
			return Node{}, err
		}
		b, err := c.ReadBytes(int(n))
		if err != nil {
			return Node{}, err
		}
		buf := make([]byte, len(b))
		copy(buf, b)
		return Node{Kind: KindBinary, Binary: buf, BinType: subtype}, nil

	case TagBool:
		v, err := c.ReadU8()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: KindBool, Bool: v != 0}, nil

	case TagNull:
		return Node{Kind: KindNull}, nil

	case TagInt32:
		v, err := c.ReadI32LE()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: KindInt32, Int32: v}, nil

	case TagInt64:
		v, err := c.ReadI64LE()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: KindInt64, Int64: v}, nil

	default:
		return Node{}, fmt.Errorf("%w: %#02x", ErrUnknownTag, uint8(tag))
	}
}
