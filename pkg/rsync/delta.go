package rsync

import (
	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/hashing"
)

// DeltaHeader carries the metadata needed to apply a delta before any of its
// operations have been read.
type DeltaHeader struct {
	// BlockSize is the block size of the signature that the delta was computed
	// against.
	BlockSize uint64
	// StrongAlgorithm is the hashing algorithm used for TargetDigest.
	StrongAlgorithm hashing.Algorithm
	// TargetLength is the length of the reconstructed target.
	TargetLength uint64
	// TargetDigest is the strong digest of the reconstructed target.
	TargetDigest []byte
}

// EnsureValid verifies that delta header invariants are respected.
func (h *DeltaHeader) EnsureValid() error {
	// A nil header is not valid.
	if h == nil {
		return errors.New("nil delta header")
	}

	// Ensure that the block size is representable.
	if h.BlockSize == 0 {
		return errors.New("zero block size")
	} else if h.BlockSize > MaximumBlockSize {
		return errors.New("block size too large")
	}

	// Ensure that the digest matches the algorithm.
	if !h.StrongAlgorithm.Supported() {
		return errors.New("unsupported strong hashing algorithm")
	} else if len(h.TargetDigest) != h.StrongAlgorithm.Size() {
		return errors.New("target digest has incorrect size")
	}

	// Success.
	return nil
}

// Delta is a complete, in-memory instruction sequence together with its header.
type Delta struct {
	DeltaHeader
	// Operations are the instructions in application order.
	Operations []*Operation
}

// EnsureValid verifies that delta invariants are respected, including that no
// two literal operations are adjacent and that the operations produce exactly
// the declared target length.
func (d *Delta) EnsureValid() error {
	// A nil delta is not valid.
	if d == nil {
		return errors.New("nil delta")
	}

	// Validate the header.
	if err := d.DeltaHeader.EnsureValid(); err != nil {
		return err
	}

	// Validate operations.
	var length uint64
	previousLiteral := false
	for i, o := range d.Operations {
		if err := o.EnsureValid(); err != nil {
			return errors.Wrapf(err, "invalid operation at index %d", i)
		}
		literal := o.Kind == OperationKindLiteral
		if literal && previousLiteral {
			return errors.Errorf("adjacent literal operations at index %d", i)
		}
		previousLiteral = literal
		if o.TargetLength() > d.TargetLength-length {
			return errors.New("operations exceed target length")
		}
		length += o.TargetLength()
	}
	if length != d.TargetLength {
		return errors.New("operations do not cover target length")
	}

	// Success.
	return nil
}

// Statistics returns a summary of the delta's operations.
func (d *Delta) Statistics() DeltaStatistics {
	var statistics DeltaStatistics
	for _, o := range d.Operations {
		statistics.Observe(o)
	}
	return statistics
}

// DeltaStatistics summarizes a sequence of operations.
type DeltaStatistics struct {
	// CopyOperations is the number of copy operations.
	CopyOperations uint64
	// CopyBytes is the number of bytes reused from the base.
	CopyBytes uint64
	// LiteralOperations is the number of literal operations.
	LiteralOperations uint64
	// LiteralBytes is the number of bytes carried verbatim.
	LiteralBytes uint64
}

// Observe records an operation.
func (s *DeltaStatistics) Observe(operation *Operation) {
	switch operation.Kind {
	case OperationKindCopy:
		s.CopyOperations++
		s.CopyBytes += operation.Length
	case OperationKindLiteral:
		s.LiteralOperations++
		s.LiteralBytes += uint64(len(operation.Data))
	}
}
