package rsync

import (
	"fmt"

	"github.com/pkg/errors"
)

// OperationKind identifies the variant of an Operation.
type OperationKind uint8

const (
	// OperationKindCopy indicates a range copied from the base.
	OperationKindCopy OperationKind = iota + 1
	// OperationKindLiteral indicates bytes carried verbatim in the delta.
	OperationKindLiteral
)

// String implements fmt.Stringer.String.
func (k OperationKind) String() string {
	switch k {
	case OperationKindCopy:
		return "copy"
	case OperationKindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Operation is a single delta instruction. Copy operations use BlockIndex and
// Length and emit Length bytes of the base starting at BlockIndex times the
// block size. Literal operations use Data and emit it verbatim.
type Operation struct {
	// Kind is the operation variant.
	Kind OperationKind
	// BlockIndex is the first base block of a copy operation.
	BlockIndex uint64
	// Length is the number of bytes copied by a copy operation.
	Length uint64
	// Data is the payload of a literal operation.
	Data []byte
}

// EnsureValid verifies that operation invariants are respected.
func (o *Operation) EnsureValid() error {
	// A nil operation is not valid.
	if o == nil {
		return errors.New("nil operation")
	}

	// Ensure that the operation parameters match the variant.
	switch o.Kind {
	case OperationKindCopy:
		if len(o.Data) != 0 {
			return errors.New("copy operation with data")
		} else if o.Length == 0 {
			return errors.New("copy operation with zero length")
		}
	case OperationKindLiteral:
		if len(o.Data) == 0 {
			return errors.New("literal operation with no data")
		} else if o.BlockIndex != 0 || o.Length != 0 {
			return errors.New("literal operation with copy parameters")
		}
	default:
		return errors.New("unknown operation kind")
	}

	// Success.
	return nil
}

// TargetLength returns the number of bytes that the operation contributes to
// the reconstructed target.
func (o *Operation) TargetLength() uint64 {
	if o.Kind == OperationKindLiteral {
		return uint64(len(o.Data))
	}
	return o.Length
}

// Copy creates a deep copy of an operation.
func (o *Operation) Copy() *Operation {
	// Make a copy of the operation's data buffer if necessary.
	var data []byte
	if len(o.Data) > 0 {
		data = make([]byte, len(o.Data))
		copy(data, o.Data)
	}

	// Create the copy.
	return &Operation{
		Kind:       o.Kind,
		BlockIndex: o.BlockIndex,
		Length:     o.Length,
		Data:       data,
	}
}

// String implements fmt.Stringer.String.
func (o *Operation) String() string {
	if o.Kind == OperationKindLiteral {
		return fmt.Sprintf("Literal(%d bytes)", len(o.Data))
	}
	return fmt.Sprintf("Copy(%d, %d)", o.BlockIndex, o.Length)
}
