package document

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnexpectedShape is returned when a caller expects a particular Kind
// at a document path but finds another (e.g. an expected array is a
// string).
var ErrUnexpectedShape = errors.New("document: unexpected shape")

// Path looks up a dotted sequence of keys, descending through nested
// Document/Array nodes. It returns ok=false (not an error) when any
// intermediate key is simply absent — a missing optional field is "not
// present", not malformed.
func (n *Node) Path(keys ...string) (Node, bool) {
	cur := n
	var val Node
	for _, k := range keys {
		v, ok := cur.Get(k)
		if !ok {
			return Node{}, false
		}
		val = v
		cur = &val
	}
	return val, true
}

// AsDocument returns the node as a Document/Array, or an error if it is
// neither.
func (n Node) AsDocument() (*Node, error) {
	if n.Kind != KindDocument && n.Kind != KindArray {
		return nil, fmt.Errorf("%w: expected Document, got %s", ErrUnexpectedShape, n.Kind)
	}
	return &n, nil
}

// AsString returns the node's string value, or an error if it is not a
// String node.
func (n Node) AsString() (string, error) {
	if n.Kind != KindString {
		return "", fmt.Errorf("%w: expected String, got %s", ErrUnexpectedShape, n.Kind)
	}
	return n.Str, nil
}

// AsInt returns the node's integer value, coercing Int32, Int64, or
// Double (when it holds a whole number) to int64.
func (n Node) AsInt() (int64, error) {
	switch n.Kind {
	case KindInt32:
		return int64(n.Int32), nil
	case KindInt64:
		return n.Int64, nil
	case KindDouble:
		if n.Double != math.Trunc(n.Double) {
			return 0, fmt.Errorf("%w: expected an integer, got Double %v", ErrUnexpectedShape, n.Double)
		}
		return int64(n.Double), nil
	default:
		return 0, fmt.Errorf("%w: expected an integer, got %s", ErrUnexpectedShape, n.Kind)
	}
}

// AsBool returns the node's boolean value, or an error if it is not Bool.
func (n Node) AsBool() (bool, error) {
	if n.Kind != KindBool {
		return false, fmt.Errorf("%w: expected Bool, got %s", ErrUnexpectedShape, n.Kind)
	}
	return n.Bool, nil
}
