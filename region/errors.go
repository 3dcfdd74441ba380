package region

import "fmt"

// DecodeError wraps a lower-layer decode failure with the context every
// region error should carry: the file path, the slot index when known,
// and a byte offset when known.
type DecodeError struct {
	Path      string
	SlotIndex int // -1 when not applicable (e.g. file-level errors)
	Offset    int64
	Err       error
}

func (e *DecodeError) Error() string {
	if e.SlotIndex >= 0 {
		return fmt.Sprintf("%s: slot %d: %v", e.Path, e.SlotIndex, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// unknownSlot marks a DecodeError as not pertaining to a particular slot.
const unknownSlot = -1

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func wrapErr(path string, slotIndex int, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Path: path, SlotIndex: slotIndex, Err: err}
}
